// Package anki implements the flashcards backend on top of the AnkiConnect
// HTTP bridge (a local Anki plugin exposing a JSON action/params API).
package anki

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/cardbridge/internal/flashcards"
)

const (
	// DefaultURL is where AnkiConnect listens on a stock install.
	DefaultURL = "http://localhost:8765"

	apiVersion = 6
	modelName  = "VocabularyBot"
	noteTag    = "vocabulary-bot"

	defaultTimeout = 10 * time.Second

	// AnkiConnect reports duplicates only through this English error text;
	// there is no structured code. Brittle, but it is the only contract the
	// bridge offers.
	duplicateErrorText = "cannot create note because it is a duplicate"
)

var modelCSS = `
.card {
    font-family: arial;
    font-size: 20px;
    text-align: center;
    color: black;
    background-color: white;
}
.word {
    font-size: 32px;
    font-weight: bold;
    margin-bottom: 20px;
}
img {
    max-width: 400px;
    max-height: 300px;
    margin: 20px 0;
}
`

// Client talks to AnkiConnect. All calls are synchronous round trips with a
// bounded timeout.
type Client struct {
	url        string
	httpClient *http.Client

	mu           sync.Mutex
	modelEnsured bool
}

// NewClient creates an AnkiConnect client. An empty url selects DefaultURL.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: strings.TrimRight(url, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) Name() string { return "anki" }

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params"`
}

// invoke performs one AnkiConnect round trip and validates the strict
// two-field response contract: the body must contain exactly an "error" and
// a "result" field, nothing else.
func (c *Client) invoke(ctx context.Context, action string, params any, result any) error {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(request{Action: action, Version: apiVersion, Params: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call anki-connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &flashcards.BackendError{Message: fmt.Sprintf("anki-connect returned status %d", resp.StatusCode)}
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", action, err)
	}

	if len(envelope) != 2 {
		return &flashcards.BackendError{Message: "response has an unexpected number of fields"}
	}
	rawErr, ok := envelope["error"]
	if !ok {
		return &flashcards.BackendError{Message: "response is missing required error field"}
	}
	rawResult, ok := envelope["result"]
	if !ok {
		return &flashcards.BackendError{Message: "response is missing required result field"}
	}

	if string(rawErr) != "null" {
		var msg string
		if err := json.Unmarshal(rawErr, &msg); err != nil {
			msg = string(rawErr)
		}
		return &flashcards.BackendError{Message: msg}
	}

	if result != nil {
		if err := json.Unmarshal(rawResult, result); err != nil {
			return fmt.Errorf("decode %s result: %w", action, err)
		}
	}
	return nil
}

// CheckConnection probes the bridge with a version call.
func (c *Client) CheckConnection(ctx context.Context) bool {
	return c.invoke(ctx, "version", nil, nil) == nil
}

// ResolveDeck creates the deck if it does not exist. AnkiConnect's
// createDeck is idempotent by name, so repeated calls never duplicate decks.
func (c *Client) ResolveDeck(ctx context.Context, name string) (flashcards.DeckRef, error) {
	var deckID json.Number
	if err := c.invoke(ctx, "createDeck", map[string]string{"deck": name}, &deckID); err != nil {
		return flashcards.DeckRef{}, err
	}
	id := deckID.String()
	if id == "" {
		// Anki addresses decks by name everywhere else, so the name is an
		// acceptable identifier when the bridge returns no numeric id.
		id = name
	}
	return flashcards.DeckRef{ID: id, Name: name}, nil
}

// CardExists always reports false: duplicate detection is delegated to
// Anki's native uniqueness constraint, surfaced by CreateCard as a
// DuplicateError.
func (c *Client) CardExists(ctx context.Context, deck flashcards.DeckRef, frontText string) bool {
	return false
}

// CreateCard adds a note with allowDuplicate disabled. A duplicate rejection
// from the bridge is classified by error-text substring match, since the
// bridge exposes no structured code.
func (c *Client) CreateCard(ctx context.Context, deck flashcards.DeckRef, content flashcards.CardContent) (flashcards.CardHandle, error) {
	if err := c.ensureModel(ctx); err != nil {
		return flashcards.CardHandle{}, err
	}

	note := map[string]any{
		"deckName":  deck.Name,
		"modelName": modelName,
		"fields": map[string]string{
			"Word":        content.Word,
			"Translation": content.Translation,
			"Examples":    content.Examples,
		},
		"options": map[string]any{
			"allowDuplicate": false,
		},
		"tags": []string{noteTag},
	}

	var noteID json.Number
	if err := c.invoke(ctx, "addNote", map[string]any{"note": note}, &noteID); err != nil {
		var backendErr *flashcards.BackendError
		if errors.As(err, &backendErr) && strings.Contains(backendErr.Message, duplicateErrorText) {
			return flashcards.CardHandle{}, &flashcards.DuplicateError{Message: backendErr.Message}
		}
		return flashcards.CardHandle{}, err
	}

	return flashcards.CardHandle{ID: noteID.String()}, nil
}

// AttachImage stores the image in Anki's media collection and points the
// note's Image field at it.
func (c *Client) AttachImage(ctx context.Context, card flashcards.CardHandle, image []byte, filename string) error {
	noteID, err := strconv.ParseInt(card.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid note id %q: %w", card.ID, err)
	}

	params := map[string]string{
		"filename": filename,
		"data":     base64.StdEncoding.EncodeToString(image),
	}
	if err := c.invoke(ctx, "storeMediaFile", params, nil); err != nil {
		return fmt.Errorf("store media file: %w", err)
	}

	update := map[string]any{
		"note": map[string]any{
			"id": noteID,
			"fields": map[string]string{
				"Image": fmt.Sprintf(`<img src="%s">`, filename),
			},
		},
	}
	if err := c.invoke(ctx, "updateNoteFields", update, nil); err != nil {
		return fmt.Errorf("update note fields: %w", err)
	}
	return nil
}

// Sync triggers a sync with AnkiWeb.
func (c *Client) Sync(ctx context.Context) error {
	return c.invoke(ctx, "sync", nil, nil)
}

// ensureModel creates the note schema on first use. The check-then-create is
// not transactional: a concurrent creator's name collision error is
// swallowed because createModel is idempotent by name.
func (c *Client) ensureModel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modelEnsured {
		return nil
	}

	var models []string
	if err := c.invoke(ctx, "modelNames", nil, &models); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for _, m := range models {
		if m == modelName {
			c.modelEnsured = true
			return nil
		}
	}

	model := map[string]any{
		"modelName":     modelName,
		"inOrderFields": []string{"Word", "Translation", "Examples", "Image"},
		"css":           modelCSS,
		"cardTemplates": []map[string]string{
			{
				"Name":  "Card 1",
				"Front": `<div class="word">{{Word}}</div>{{Image}}`,
				"Back":  `{{FrontSide}}<hr id="answer"><div>{{Translation}}</div><div style="font-size: 16px; margin-top: 10px;">{{Examples}}</div>`,
			},
		},
	}
	if err := c.invoke(ctx, "createModel", model, nil); err != nil {
		// Someone else created it between the check and now. The create is
		// idempotent by name, so a bridge-reported error means the model
		// already exists; anything else (transport) is real.
		var backendErr *flashcards.BackendError
		if !errors.As(err, &backendErr) {
			return fmt.Errorf("create model: %w", err)
		}
	}
	c.modelEnsured = true
	return nil
}
