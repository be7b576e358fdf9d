// Package mochi implements the flashcards backend on top of the Mochi REST
// API (app.mochi.cards). A single API token authenticates every call.
package mochi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/cardbridge/internal/flashcards"
)

const (
	// DefaultBaseURL is the public Mochi API host.
	DefaultBaseURL = "https://app.mochi.cards"

	defaultTimeout = 10 * time.Second
	uploadTimeout  = 30 * time.Second

	// contentSeparator splits front from back on cards created without a
	// template.
	contentSeparator = "\n---\n"
)

// Client talks to the Mochi REST API.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	uploadClient *http.Client
}

// NewClient creates a Mochi API client. An empty baseURL selects the public
// host.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		uploadClient: &http.Client{Timeout: uploadTimeout},
	}
}

func (c *Client) Name() string { return "mochi" }

// API resource shapes.

type deck struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fieldValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type card struct {
	ID         string                `json:"id"`
	Content    string                `json:"content"`
	DeckID     string                `json:"deck-id"`
	TemplateID string                `json:"template-id,omitempty"`
	Fields     map[string]fieldValue `json:"fields,omitempty"`
}

type templateField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type template struct {
	ID     string                   `json:"id"`
	Name   string                   `json:"name"`
	Fields map[string]templateField `json:"fields"`
}

type docList[T any] struct {
	Docs []T `json:"docs"`
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call mochi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &flashcards.BackendError{
			Message: fmt.Sprintf("mochi returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.httpClient, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, c.httpClient, http.MethodPost, path, bytes.NewReader(body), "application/json", out)
}

// authHeader builds the Basic header Mochi expects: the API token as
// username with an empty password.
func (c *Client) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.token+":"))
}

// CheckConnection probes the API by listing decks.
func (c *Client) CheckConnection(ctx context.Context) bool {
	var decks docList[deck]
	return c.getJSON(ctx, "/api/decks/", &decks) == nil
}

// ResolveDeck lists all decks and matches the name exactly; only when no
// deck matches is a new one created.
func (c *Client) ResolveDeck(ctx context.Context, name string) (flashcards.DeckRef, error) {
	var decks docList[deck]
	if err := c.getJSON(ctx, "/api/decks/", &decks); err != nil {
		return flashcards.DeckRef{}, err
	}
	for _, d := range decks.Docs {
		if d.Name == name {
			return flashcards.DeckRef{ID: d.ID, Name: name}, nil
		}
	}

	var created deck
	if err := c.postJSON(ctx, "/api/decks/", map[string]string{"name": name}, &created); err != nil {
		return flashcards.DeckRef{}, err
	}
	return flashcards.DeckRef{ID: created.ID, Name: name}, nil
}

// CardExists scans every card in the deck for an approximate match against
// frontText. The comparison strips markdown heading markers, trims and
// lowercases both sides, then tests substring containment in both directions
// for field values (and candidate-in-content for free-text cards). Loose on
// purpose: it catches minor rewording at the cost of false positives on very
// short words. Any transport error fails open.
func (c *Client) CardExists(ctx context.Context, deckRef flashcards.DeckRef, frontText string) bool {
	var cards docList[card]
	if err := c.getJSON(ctx, "/api/cards/?deck-id="+url.QueryEscape(deckRef.ID), &cards); err != nil {
		log.Printf("mochi: duplicate scan failed, allowing creation: %v", err)
		return false
	}

	candidate := normalize(frontText)
	if candidate == "" {
		return false
	}

	for _, existing := range cards.Docs {
		for _, field := range existing.Fields {
			value := normalize(field.Value)
			if value == "" {
				continue
			}
			if strings.Contains(value, candidate) || strings.Contains(candidate, value) {
				return true
			}
		}
		if content := normalize(existing.Content); content != "" && strings.Contains(content, candidate) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "#", "")))
}

// CreateCard discovers the deck's card template and maps the rendered front
// and back onto its fields. Without a usable template, the card is created
// as a single free-text body with a fixed separator.
func (c *Client) CreateCard(ctx context.Context, deckRef flashcards.DeckRef, content flashcards.CardContent) (flashcards.CardHandle, error) {
	tmpl, err := c.findBasicTemplate(ctx)
	if err != nil {
		log.Printf("mochi: template discovery failed, using plain content: %v", err)
		tmpl = nil
	}

	if tmpl == nil {
		var created card
		payload := map[string]string{
			"content": content.Front() + contentSeparator + content.Back(),
			"deck-id": deckRef.ID,
		}
		if err := c.postJSON(ctx, "/api/cards/", payload, &created); err != nil {
			return flashcards.CardHandle{}, err
		}
		return flashcards.CardHandle{ID: created.ID}, nil
	}

	frontID, backID := frontBackFields(tmpl)
	fields := map[string]fieldValue{}
	if frontID != "" {
		fields[frontID] = fieldValue{ID: frontID, Value: content.Front()}
	}
	if backID != "" {
		fields[backID] = fieldValue{ID: backID, Value: content.Back()}
	}

	payload := map[string]any{
		"content":     "",
		"deck-id":     deckRef.ID,
		"template-id": tmpl.ID,
		"fields":      fields,
	}
	var created card
	if err := c.postJSON(ctx, "/api/cards/", payload, &created); err != nil {
		return flashcards.CardHandle{}, err
	}
	return flashcards.CardHandle{ID: created.ID, TemplateID: tmpl.ID, FrontFieldID: frontID}, nil
}

// findBasicTemplate prefers a template named like "Basic" and falls back to
// the first one available. Returns nil when the account has no templates.
func (c *Client) findBasicTemplate(ctx context.Context) (*template, error) {
	var templates docList[template]
	if err := c.getJSON(ctx, "/api/templates/", &templates); err != nil {
		return nil, err
	}
	if len(templates.Docs) == 0 {
		return nil, nil
	}

	chosen := templates.Docs[0]
	for _, t := range templates.Docs {
		if strings.Contains(strings.ToLower(t.Name), "basic") {
			chosen = t
			break
		}
	}

	var full template
	if err := c.getJSON(ctx, "/api/templates/"+url.PathEscape(chosen.ID), &full); err != nil {
		return nil, err
	}
	return &full, nil
}

// frontBackFields picks the front-like field (name containing "front", or
// literally "name") and the back-like field (name containing "back") from a
// template's schema.
func frontBackFields(tmpl *template) (frontID, backID string) {
	for id, field := range tmpl.Fields {
		name := strings.ToLower(field.Name)
		switch {
		case strings.Contains(name, "front") || name == "name":
			frontID = id
		case strings.Contains(name, "back"):
			backID = id
		}
	}
	return frontID, backID
}

// AttachImage is a two-step, non-atomic protocol: upload the bytes to the
// per-card attachment endpoint, then rewrite the card's front (or content)
// to embed the attachment. If the second step fails the card stays usable
// without its image; the caller treats that as a warning, not a failure.
func (c *Client) AttachImage(ctx context.Context, handle flashcards.CardHandle, image []byte, filename string) error {
	if err := c.uploadAttachment(ctx, handle.ID, filename, image); err != nil {
		return fmt.Errorf("upload attachment: %w", err)
	}

	embed := fmt.Sprintf("![](@media/%s)\n\n", filename)

	var current card
	if err := c.getJSON(ctx, "/api/cards/"+url.PathEscape(handle.ID), &current); err != nil {
		return fmt.Errorf("fetch card for image embed: %w", err)
	}

	if handle.FrontFieldID != "" {
		fields := current.Fields
		if fields == nil {
			fields = map[string]fieldValue{}
		}
		front := fields[handle.FrontFieldID]
		fields[handle.FrontFieldID] = fieldValue{ID: handle.FrontFieldID, Value: embed + front.Value}
		return c.postJSON(ctx, "/api/cards/"+url.PathEscape(handle.ID), map[string]any{"fields": fields}, nil)
	}

	return c.postJSON(ctx, "/api/cards/"+url.PathEscape(handle.ID), map[string]string{
		"content": embed + current.Content,
	}, nil)
}

func (c *Client) uploadAttachment(ctx context.Context, cardID, filename string, data []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	path := "/api/cards/" + url.PathEscape(cardID) + "/attachments/" + url.PathEscape(filename)
	return c.do(ctx, c.uploadClient, http.MethodPost, path, &buf, writer.FormDataContentType(), nil)
}

// Sync is not supported: Mochi is already the remote store.
func (c *Client) Sync(ctx context.Context) error {
	return flashcards.ErrSyncNotSupported
}
