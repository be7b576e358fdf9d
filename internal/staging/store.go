// Package staging holds flashcard drafts between translation and export.
// Cards live only in memory: a restart drops all pending exports by design.
package staging

import (
	"strconv"
	"sync"
	"time"

	"github.com/mrlokans/cardbridge/internal/entities"
)

// Store is a process-wide map from staging key to pending card, safe for
// concurrent use. Contention is low (one entry per un-confirmed message), so
// a single mutex is enough.
type Store struct {
	mu    sync.Mutex
	cards map[string]entities.StagedCard
}

// New creates an empty store.
func New() *Store {
	return &Store{
		cards: make(map[string]entities.StagedCard),
	}
}

// Key derives the staging key from the originating message.
func Key(chatID int64, messageID int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

// Put stages a card under its key. An existing entry with the same key is
// overwritten: last write wins, no merge.
func (s *Store) Put(card entities.StagedCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.Key] = card
}

// Get returns the staged card without consuming it.
func (s *Store) Get(key string) (entities.StagedCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[key]
	return card, ok
}

// TakeAndRemove atomically fetches and deletes the staged card. Of two
// concurrent callers with the same key, exactly one receives the card; the
// other gets ok=false.
func (s *Store) TakeAndRemove(key string) (entities.StagedCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[key]
	if ok {
		delete(s.cards, key)
	}
	return card, ok
}

// Remove deletes the staged card if present.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, key)
}

// Len returns the number of staged cards.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// EvictOlderThan removes cards staged earlier than maxAge ago and returns
// how many were dropped. Bounds memory for cards the user never confirmed.
func (s *Store) EvictOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, card := range s.cards {
		if card.CreatedAt.Before(cutoff) {
			delete(s.cards, key)
			evicted++
		}
	}
	return evicted
}
