package flashcards

import "context"

// DeckRef identifies a destination deck inside a backend. ID is
// backend-specific; Name is the human-readable deck name it was resolved
// from. Resolution is get-or-create: the same name always maps to the same
// ref within one backend.
type DeckRef struct {
	ID   string
	Name string
}

// CardContent is the material sent to a backend when creating a card.
// Backends with structured note schemas use the raw parts; backends with
// front/back templates use the rendered markdown.
type CardContent struct {
	Word        string
	Translation string
	Examples    string
}

// Front renders the card front: the word as a markdown heading.
func (c CardContent) Front() string {
	return "# " + c.Word
}

// Back renders the card back: the translation as a subheading followed by
// the usage examples, when present.
func (c CardContent) Back() string {
	back := "## " + c.Translation
	if c.Examples != "" {
		back += "\n\n" + c.Examples
	}
	return back
}

// CardHandle references a card created in a backend. TemplateID and
// FrontFieldID are only set by backends that map content onto template
// fields; they let a later attachment step rewrite the right field without
// re-discovering the template.
type CardHandle struct {
	ID           string
	TemplateID   string
	FrontFieldID string
}

// Backend is the capability contract every flashcard service satisfies.
//
// CardExists is an approximate duplicate check and is deliberately
// false-negative-biased: backends report "not a duplicate" on any failure
// during the scan rather than blocking creation. AttachImage is best-effort;
// its failure never invalidates the already-created card.
type Backend interface {
	Name() string

	// CheckConnection reports whether the backend is reachable and the
	// credentials are accepted. It never returns an error.
	CheckConnection(ctx context.Context) bool

	// ResolveDeck returns the deck with the given name, creating it if
	// absent. Safe to call repeatedly with the same name.
	ResolveDeck(ctx context.Context, name string) (DeckRef, error)

	// CardExists reports whether a card matching frontText already exists
	// in the deck. Fails open: transport errors report false.
	CardExists(ctx context.Context, deck DeckRef, frontText string) bool

	// CreateCard creates a card. A backend-confirmed duplicate is returned
	// as *DuplicateError; any other failure as *BackendError.
	CreateCard(ctx context.Context, deck DeckRef, content CardContent) (CardHandle, error)

	// AttachImage uploads image bytes and links them to the card's front.
	AttachImage(ctx context.Context, card CardHandle, image []byte, filename string) error

	// Sync pushes local state to the backend's remote counterpart.
	// Backends without remote sync return ErrSyncNotSupported.
	Sync(ctx context.Context) error
}
