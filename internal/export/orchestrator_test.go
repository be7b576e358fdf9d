package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cardbridge/internal/entities"
	"github.com/mrlokans/cardbridge/internal/flashcards"
	"github.com/mrlokans/cardbridge/internal/staging"
)

// fakeBackend scripts every backend reaction and records the calls made.
type fakeBackend struct {
	connected   bool
	resolveErr  error
	exists      bool
	createErr   error
	attachErr   error
	syncErr     error
	calls       []string
	lastContent flashcards.CardContent
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) CheckConnection(ctx context.Context) bool {
	f.calls = append(f.calls, "check")
	return f.connected
}

func (f *fakeBackend) ResolveDeck(ctx context.Context, name string) (flashcards.DeckRef, error) {
	f.calls = append(f.calls, "resolve")
	if f.resolveErr != nil {
		return flashcards.DeckRef{}, f.resolveErr
	}
	return flashcards.DeckRef{ID: "d1", Name: name}, nil
}

func (f *fakeBackend) CardExists(ctx context.Context, deck flashcards.DeckRef, frontText string) bool {
	f.calls = append(f.calls, "exists")
	return f.exists
}

func (f *fakeBackend) CreateCard(ctx context.Context, deck flashcards.DeckRef, content flashcards.CardContent) (flashcards.CardHandle, error) {
	f.calls = append(f.calls, "create")
	f.lastContent = content
	if f.createErr != nil {
		return flashcards.CardHandle{}, f.createErr
	}
	return flashcards.CardHandle{ID: "c1"}, nil
}

func (f *fakeBackend) AttachImage(ctx context.Context, card flashcards.CardHandle, image []byte, filename string) error {
	f.calls = append(f.calls, "attach")
	return f.attachErr
}

func (f *fakeBackend) Sync(ctx context.Context) error {
	f.calls = append(f.calls, "sync")
	return f.syncErr
}

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.data, f.err
}

func newStagedStore(card entities.StagedCard) *staging.Store {
	store := staging.New()
	store.Put(card)
	return store
}

func testCard() entities.StagedCard {
	return entities.StagedCard{
		Key:             "1:1",
		Word:            "hello",
		TranslationText: "Перевод: привет\nПримеры:\n1. Hello! - Привет!",
		OwnerID:         42,
		OwnerName:       "Alice",
		CreatedAt:       time.Now(),
	}
}

func TestExportCreatesCard(t *testing.T) {
	backend := &fakeBackend{connected: true}
	store := newStagedStore(testCard())
	orch := NewOrchestrator(store, backend, nil)

	outcome := orch.Export(context.Background(), "1:1")

	assert.Equal(t, StatusCreated, outcome.Status)
	assert.Equal(t, SyncSynced, outcome.Sync)
	assert.True(t, outcome.Created())
	assert.Equal(t, "hello", outcome.Word)
	assert.Equal(t, "Vocabulary Bot - Alice", outcome.DeckName)
	assert.Equal(t, []string{"check", "resolve", "exists", "create", "sync"}, backend.calls)

	assert.Equal(t, "hello", backend.lastContent.Word)
	assert.Equal(t, "привет", backend.lastContent.Translation)
	assert.Equal(t, "1. Hello! - Привет!", backend.lastContent.Examples)

	// The staged card is consumed
	assert.Equal(t, 0, store.Len())
}

func TestExportMissingKey(t *testing.T) {
	backend := &fakeBackend{connected: true}
	orch := NewOrchestrator(staging.New(), backend, nil)

	outcome := orch.Export(context.Background(), "9:9")

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, ReasonNotFound, outcome.Reason)
	// No backend call happens for a missing card
	assert.Empty(t, backend.calls)
}

func TestExportConsumesCardExactlyOnce(t *testing.T) {
	backend := &fakeBackend{connected: true}
	store := newStagedStore(testCard())
	orch := NewOrchestrator(store, backend, nil)

	first := orch.Export(context.Background(), "1:1")
	second := orch.Export(context.Background(), "1:1")

	assert.Equal(t, StatusCreated, first.Status)
	assert.Equal(t, StatusFailed, second.Status)
	assert.Equal(t, ReasonNotFound, second.Reason)
}

func TestExportBackendUnavailable(t *testing.T) {
	backend := &fakeBackend{connected: false}
	store := newStagedStore(testCard())
	orch := NewOrchestrator(store, backend, nil)

	outcome := orch.Export(context.Background(), "1:1")

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, ReasonBackendUnavailable, outcome.Reason)
	// The check fails before any mutating call
	assert.Equal(t, []string{"check"}, backend.calls)
	// The card is still consumed: terminal outcomes always remove it
	assert.Equal(t, 0, store.Len())
}

func TestExportResolveDeckFailure(t *testing.T) {
	backend := &fakeBackend{connected: true, resolveErr: errors.New("boom")}
	orch := NewOrchestrator(newStagedStore(testCard()), backend, nil)

	outcome := orch.Export(context.Background(), "1:1")

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, ReasonBackendUnavailable, outcome.Reason)
	assert.ErrorContains(t, outcome.Err, "resolve deck")
}

func TestExportPreCheckDuplicate(t *testing.T) {
	backend := &fakeBackend{connected: true, exists: true}
	orch := NewOrchestrator(newStagedStore(testCard()), backend, nil)

	outcome := orch.Export(context.Background(), "1:1")

	assert.Equal(t, StatusDuplicate, outcome.Status)
	// No creation after a positive duplicate check
	assert.NotContains(t, backend.calls, "create")

	// The duplicate outcome consumed the card
	second := orch.Export(context.Background(), "1:1")
	assert.Equal(t, StatusFailed, second.Status)
	assert.Equal(t, ReasonNotFound, second.Reason)
}

func TestExportBackendReportedDuplicate(t *testing.T) {
	backend := &fakeBackend{
		connected: true,
		createErr: &flashcards.DuplicateError{Message: "cannot create note because it is a duplicate"},
	}
	orch := NewOrchestrator(newStagedStore(testCard()), backend, nil)

	outcome := orch.Export(context.Background(), "1:1")

	assert.Equal(t, StatusDuplicate, outcome.Status)
	assert.Nil(t, outcome.Err)
}

func TestExportCreateFailure(t *testing.T) {
	backend := &fakeBackend{connected: true, createErr: &flashcards.BackendError{Message: "model missing"}}
	orch := NewOrchestrator(newStagedStore(testCard()), backend, nil)

	outcome := orch.Export(context.Background(), "1:1")

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, ReasonBackendError, outcome.Reason)
	assert.ErrorContains(t, outcome.Err, "model missing")
}

func TestExportAttachWarnings(t *testing.T) {
	cardWithImage := testCard()
	cardWithImage.ImageURL = "https://images.example/cat.jpg"

	t.Run("image fetch failure keeps the card created", func(t *testing.T) {
		backend := &fakeBackend{connected: true}
		orch := NewOrchestrator(newStagedStore(cardWithImage), backend, &fakeFetcher{err: errors.New("dns")})

		outcome := orch.Export(context.Background(), "1:1")

		assert.Equal(t, StatusCreated, outcome.Status)
		assert.Contains(t, outcome.AttachmentWarning, "image fetch failed")
		assert.NotContains(t, backend.calls, "attach")
	})

	t.Run("attach failure keeps the card created", func(t *testing.T) {
		backend := &fakeBackend{connected: true, attachErr: errors.New("too large")}
		orch := NewOrchestrator(newStagedStore(cardWithImage), backend, &fakeFetcher{data: []byte{1, 2}})

		outcome := orch.Export(context.Background(), "1:1")

		assert.Equal(t, StatusCreated, outcome.Status)
		assert.Contains(t, outcome.AttachmentWarning, "image attach failed")
	})

	t.Run("successful attach leaves no warning", func(t *testing.T) {
		backend := &fakeBackend{connected: true}
		orch := NewOrchestrator(newStagedStore(cardWithImage), backend, &fakeFetcher{data: []byte{1, 2}})

		outcome := orch.Export(context.Background(), "1:1")

		assert.Equal(t, StatusCreated, outcome.Status)
		assert.Empty(t, outcome.AttachmentWarning)
		assert.Contains(t, backend.calls, "attach")
	})

	t.Run("card without image skips the attach step", func(t *testing.T) {
		backend := &fakeBackend{connected: true}
		orch := NewOrchestrator(newStagedStore(testCard()), backend, &fakeFetcher{data: []byte{1, 2}})

		outcome := orch.Export(context.Background(), "1:1")

		assert.Equal(t, StatusCreated, outcome.Status)
		assert.NotContains(t, backend.calls, "attach")
	})
}

func TestExportSyncStatuses(t *testing.T) {
	t.Run("sync failure never downgrades a created card", func(t *testing.T) {
		backend := &fakeBackend{connected: true, syncErr: errors.New("authentication required")}
		orch := NewOrchestrator(newStagedStore(testCard()), backend, nil)

		outcome := orch.Export(context.Background(), "1:1")

		assert.Equal(t, StatusCreated, outcome.Status)
		assert.Equal(t, SyncFailed, outcome.Sync)
	})

	t.Run("backends without sync are reported as skipped", func(t *testing.T) {
		backend := &fakeBackend{connected: true, syncErr: flashcards.ErrSyncNotSupported}
		orch := NewOrchestrator(newStagedStore(testCard()), backend, nil)

		outcome := orch.Export(context.Background(), "1:1")

		assert.Equal(t, StatusCreated, outcome.Status)
		assert.Equal(t, SyncSkipped, outcome.Sync)
	})
}

func TestBuildCardContent(t *testing.T) {
	t.Run("parses structured translator output", func(t *testing.T) {
		content := BuildCardContent(testCard())

		assert.Equal(t, "# hello", content.Front())
		assert.Equal(t, "## привет\n\n1. Hello! - Привет!", content.Back())
	})

	t.Run("unparsable output becomes the whole translation", func(t *testing.T) {
		card := testCard()
		card.TranslationText = "просто текст"

		content := BuildCardContent(card)

		assert.Equal(t, "просто текст", content.Translation)
		assert.Empty(t, content.Examples)
		assert.Equal(t, "## просто текст", content.Back())
	})
}

func TestAttachmentFilename(t *testing.T) {
	name := attachmentFilename()
	require.Len(t, name, 12)
	assert.True(t, len(name) == 12 && name[8:] == ".jpg")

	// Names are unique per call
	assert.NotEqual(t, name, attachmentFilename())
}
