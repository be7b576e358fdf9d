package entities

import (
	"strconv"
	"time"
)

// StagedCard is a flashcard draft held in memory between the moment a
// translation is delivered to the user and the moment the user confirms (or
// never confirms) the export. It is keyed by the originating chat message and
// consumed exactly once by the export pipeline.
type StagedCard struct {
	// Key uniquely identifies the pending export, derived from the
	// originating message ("chatID:messageID").
	Key string

	// Word is the source text the user sent, verbatim.
	Word string

	// TranslationText is the raw translator output, unparsed.
	TranslationText string

	// ImageURL is an optional illustration found for the word.
	ImageURL string

	// OwnerID identifies the requesting user and namespaces the
	// destination deck.
	OwnerID int64

	// OwnerName is the user's display name; may be empty.
	OwnerName string

	CreatedAt time.Time
}

// DeckName returns the destination deck name for the card's owner.
// Falls back to "User<ID>" when the display name is unavailable.
func (c StagedCard) DeckName() string {
	name := c.OwnerName
	if name == "" {
		name = "User" + strconv.FormatInt(c.OwnerID, 10)
	}
	return "Vocabulary Bot - " + name
}
