package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cardbridge/internal/entities"
)

// HistoryReader provides read access to persisted export outcomes.
type HistoryReader interface {
	Recent(limit int) ([]entities.ExportRecord, error)
	Stats() (map[string]int64, error)
}

type HistoryController struct {
	history HistoryReader
}

func NewHistoryController(history HistoryReader) *HistoryController {
	return &HistoryController{history: history}
}

// Recent returns the latest export records, newest first.
func (hc *HistoryController) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := hc.history.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// Stats returns export counts grouped by terminal status.
func (hc *HistoryController) Stats(c *gin.Context) {
	stats, err := hc.history.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
