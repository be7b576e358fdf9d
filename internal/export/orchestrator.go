// Package export drives a staged card through the configured flashcard
// backend: resolve deck, check duplicates, create, best-effort attach an
// image, optionally sync. Every attempt ends in exactly one terminal
// outcome, and the staged card is consumed exactly once.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/cardbridge/internal/entities"
	"github.com/mrlokans/cardbridge/internal/flashcards"
	"github.com/mrlokans/cardbridge/internal/staging"
	"github.com/mrlokans/cardbridge/internal/translator"
)

// Orchestrator runs the export state machine.
type Orchestrator struct {
	store   *staging.Store
	backend flashcards.Backend
	images  ImageFetcher
}

// NewOrchestrator wires the export pipeline. images may be nil, in which
// case staged image URLs are ignored.
func NewOrchestrator(store *staging.Store, backend flashcards.Backend, images ImageFetcher) *Orchestrator {
	return &Orchestrator{
		store:   store,
		backend: backend,
		images:  images,
	}
}

// Export consumes the staged card under key and exports it. The card is
// removed from the store up front, atomically: of two concurrent triggers
// for the same key, one exports and the other gets a NotFound outcome.
// A later manual re-trigger on a stale control therefore cannot re-execute
// side effects.
func (o *Orchestrator) Export(ctx context.Context, key string) Outcome {
	card, ok := o.store.TakeAndRemove(key)
	if !ok {
		return Outcome{
			Status: StatusFailed,
			Reason: ReasonNotFound,
			Err:    fmt.Errorf("no staged card for key %q", key),
		}
	}

	deckName := card.DeckName()
	outcome := Outcome{Word: card.Word, DeckName: deckName}

	// Connectivity is checked before any mutating call so auth and
	// transport problems surface as a single clear failure.
	if !o.backend.CheckConnection(ctx) {
		outcome.Status = StatusFailed
		outcome.Reason = ReasonBackendUnavailable
		outcome.Err = fmt.Errorf("%s backend is unreachable", o.backend.Name())
		return outcome
	}

	deck, err := o.backend.ResolveDeck(ctx, deckName)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = ReasonBackendUnavailable
		outcome.Err = fmt.Errorf("resolve deck %q: %w", deckName, err)
		return outcome
	}

	content := BuildCardContent(card)

	if o.backend.CardExists(ctx, deck, content.Front()) {
		outcome.Status = StatusDuplicate
		return outcome
	}

	handle, err := o.backend.CreateCard(ctx, deck, content)
	if err != nil {
		if flashcards.IsDuplicate(err) {
			outcome.Status = StatusDuplicate
			return outcome
		}
		outcome.Status = StatusFailed
		outcome.Reason = ReasonBackendError
		outcome.Err = err
		return outcome
	}

	outcome.Status = StatusCreated

	if card.ImageURL != "" && o.images != nil {
		if warn := o.attachImage(ctx, handle, card.ImageURL); warn != "" {
			outcome.AttachmentWarning = warn
		}
	}

	outcome.Sync = o.sync(ctx)
	return outcome
}

// attachImage fetches and attaches the staged image. Failures are returned
// as a warning string: the card exists either way.
func (o *Orchestrator) attachImage(ctx context.Context, handle flashcards.CardHandle, imageURL string) string {
	data, err := o.images.Fetch(ctx, imageURL)
	if err != nil {
		log.Printf("export: image fetch failed for %s: %v", imageURL, err)
		return fmt.Sprintf("image fetch failed: %v", err)
	}

	filename := attachmentFilename()
	if err := o.backend.AttachImage(ctx, handle, data, filename); err != nil {
		log.Printf("export: image attach failed: %v", err)
		return fmt.Sprintf("image attach failed: %v", err)
	}
	return ""
}

// sync runs the optional remote sync. Its failure never changes the
// terminal status: the card exists regardless of sync state.
func (o *Orchestrator) sync(ctx context.Context) SyncStatus {
	err := o.backend.Sync(ctx)
	switch {
	case err == nil:
		return SyncSynced
	case errors.Is(err, flashcards.ErrSyncNotSupported):
		return SyncSkipped
	default:
		log.Printf("export: sync failed: %v", err)
		return SyncFailed
	}
}

// BuildCardContent materializes the staged card's text into the front/back
// parts backends consume. When the raw translator output carried no parsable
// translation, the whole text becomes the translation.
func BuildCardContent(card entities.StagedCard) flashcards.CardContent {
	parsed := translator.ParseTranslation(card.TranslationText)
	translation := parsed.Translation
	if translation == "" {
		translation = card.TranslationText
	}
	return flashcards.CardContent{
		Word:        card.Word,
		Translation: translation,
		Examples:    parsed.Examples,
	}
}
