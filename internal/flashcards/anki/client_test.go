package anki

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cardbridge/internal/flashcards"
)

type recordedCall struct {
	Action string
	Params json.RawMessage
}

// newBridge starts a fake AnkiConnect endpoint. respond maps an action to
// the raw JSON body to return; actions without an entry get a null result.
func newBridge(t *testing.T, respond map[string]string) (*Client, *[]recordedCall) {
	t.Helper()

	var calls []recordedCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Action  string          `json:"action"`
			Version int             `json:"version"`
			Params  json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 6, req.Version)

		calls = append(calls, recordedCall{Action: req.Action, Params: req.Params})

		body, ok := respond[req.Action]
		if !ok {
			body = `{"result": null, "error": null}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewClient(server.URL), &calls
}

func actions(calls []recordedCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Action
	}
	return out
}

func TestCheckConnection(t *testing.T) {
	t.Run("reachable bridge", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"version": `{"result": 6, "error": null}`,
		})
		assert.True(t, client.CheckConnection(context.Background()))
	})

	t.Run("unreachable bridge", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		assert.False(t, client.CheckConnection(context.Background()))
	})

	t.Run("bridge-reported error", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"version": `{"result": null, "error": "collection is not available"}`,
		})
		assert.False(t, client.CheckConnection(context.Background()))
	})
}

func TestResponseEnvelopeValidation(t *testing.T) {
	t.Run("extra field is rejected", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"createDeck": `{"result": 1, "error": null, "extra": true}`,
		})

		_, err := client.ResolveDeck(context.Background(), "Deck")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected number of fields")
	})

	t.Run("missing error field is rejected", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"createDeck": `{"result": 1, "extra": true}`,
		})

		_, err := client.ResolveDeck(context.Background(), "Deck")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required error field")
	})

	t.Run("missing result field is rejected", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"createDeck": `{"error": null, "extra": true}`,
		})

		_, err := client.ResolveDeck(context.Background(), "Deck")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required result field")
	})

	t.Run("non-null error becomes a backend error", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"createDeck": `{"result": null, "error": "deck name invalid"}`,
		})

		_, err := client.ResolveDeck(context.Background(), "Deck")
		require.Error(t, err)

		var backendErr *flashcards.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, "deck name invalid", backendErr.Message)
	})
}

func TestResolveDeck(t *testing.T) {
	t.Run("returns the bridge deck id", func(t *testing.T) {
		client, calls := newBridge(t, map[string]string{
			"createDeck": `{"result": 1519323742721, "error": null}`,
		})

		deck, err := client.ResolveDeck(context.Background(), "Vocabulary Bot - Alice")
		require.NoError(t, err)
		assert.Equal(t, "1519323742721", deck.ID)
		assert.Equal(t, "Vocabulary Bot - Alice", deck.Name)

		require.Len(t, *calls, 1)
		assert.JSONEq(t, `{"deck": "Vocabulary Bot - Alice"}`, string((*calls)[0].Params))
	})

	t.Run("falls back to the name when the bridge returns no id", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"createDeck": `{"result": null, "error": null}`,
		})

		deck, err := client.ResolveDeck(context.Background(), "Vocabulary Bot - Bob")
		require.NoError(t, err)
		assert.Equal(t, "Vocabulary Bot - Bob", deck.ID)
	})
}

func TestCardExistsAlwaysFalse(t *testing.T) {
	client, calls := newBridge(t, nil)

	exists := client.CardExists(context.Background(), flashcards.DeckRef{ID: "1", Name: "Deck"}, "# hello")

	assert.False(t, exists)
	// Duplicate detection is the bridge's job at creation time
	assert.Empty(t, *calls)
}

func TestCreateCard(t *testing.T) {
	content := flashcards.CardContent{
		Word:        "hello",
		Translation: "привет",
		Examples:    "1. Hello! - Привет!",
	}
	deck := flashcards.DeckRef{ID: "1", Name: "Vocabulary Bot - Alice"}

	t.Run("adds a note with the vocabulary model", func(t *testing.T) {
		client, calls := newBridge(t, map[string]string{
			"modelNames": `{"result": ["Basic", "VocabularyBot"], "error": null}`,
			"addNote":    `{"result": 1496198395707, "error": null}`,
		})

		handle, err := client.CreateCard(context.Background(), deck, content)
		require.NoError(t, err)
		assert.Equal(t, "1496198395707", handle.ID)

		require.Equal(t, []string{"modelNames", "addNote"}, actions(*calls))

		var params struct {
			Note struct {
				DeckName  string            `json:"deckName"`
				ModelName string            `json:"modelName"`
				Fields    map[string]string `json:"fields"`
				Options   struct {
					AllowDuplicate bool `json:"allowDuplicate"`
				} `json:"options"`
				Tags []string `json:"tags"`
			} `json:"note"`
		}
		require.NoError(t, json.Unmarshal((*calls)[1].Params, &params))
		assert.Equal(t, "Vocabulary Bot - Alice", params.Note.DeckName)
		assert.Equal(t, "VocabularyBot", params.Note.ModelName)
		assert.Equal(t, "hello", params.Note.Fields["Word"])
		assert.Equal(t, "привет", params.Note.Fields["Translation"])
		assert.Equal(t, "1. Hello! - Привет!", params.Note.Fields["Examples"])
		assert.False(t, params.Note.Options.AllowDuplicate)
		assert.Equal(t, []string{"vocabulary-bot"}, params.Note.Tags)
	})

	t.Run("creates the model when it does not exist", func(t *testing.T) {
		client, calls := newBridge(t, map[string]string{
			"modelNames": `{"result": ["Basic"], "error": null}`,
			"addNote":    `{"result": 1, "error": null}`,
		})

		_, err := client.CreateCard(context.Background(), deck, content)
		require.NoError(t, err)
		assert.Equal(t, []string{"modelNames", "createModel", "addNote"}, actions(*calls))
	})

	t.Run("model check runs once per client", func(t *testing.T) {
		client, calls := newBridge(t, map[string]string{
			"modelNames": `{"result": ["VocabularyBot"], "error": null}`,
			"addNote":    `{"result": 1, "error": null}`,
		})

		_, err := client.CreateCard(context.Background(), deck, content)
		require.NoError(t, err)
		_, err = client.CreateCard(context.Background(), deck, content)
		require.NoError(t, err)

		assert.Equal(t, []string{"modelNames", "addNote", "addNote"}, actions(*calls))
	})

	t.Run("duplicate rejection is classified", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"modelNames": `{"result": ["VocabularyBot"], "error": null}`,
			"addNote":    `{"result": null, "error": "cannot create note because it is a duplicate"}`,
		})

		_, err := client.CreateCard(context.Background(), deck, content)
		require.Error(t, err)
		assert.True(t, flashcards.IsDuplicate(err))
	})

	t.Run("other rejections stay backend errors", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"modelNames": `{"result": ["VocabularyBot"], "error": null}`,
			"addNote":    `{"result": null, "error": "deck was not found"}`,
		})

		_, err := client.CreateCard(context.Background(), deck, content)
		require.Error(t, err)
		assert.False(t, flashcards.IsDuplicate(err))

		var backendErr *flashcards.BackendError
		assert.ErrorAs(t, err, &backendErr)
	})
}

func TestAttachImage(t *testing.T) {
	client, calls := newBridge(t, nil)

	image := []byte{0xFF, 0xD8, 0xFF}
	err := client.AttachImage(context.Background(), flashcards.CardHandle{ID: "1496198395707"}, image, "abc12345.jpg")
	require.NoError(t, err)

	require.Equal(t, []string{"storeMediaFile", "updateNoteFields"}, actions(*calls))

	var store struct {
		Filename string `json:"filename"`
		Data     string `json:"data"`
	}
	require.NoError(t, json.Unmarshal((*calls)[0].Params, &store))
	assert.Equal(t, "abc12345.jpg", store.Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), store.Data)

	var update struct {
		Note struct {
			ID     int64             `json:"id"`
			Fields map[string]string `json:"fields"`
		} `json:"note"`
	}
	require.NoError(t, json.Unmarshal((*calls)[1].Params, &update))
	assert.Equal(t, int64(1496198395707), update.Note.ID)
	assert.Equal(t, `<img src="abc12345.jpg">`, update.Note.Fields["Image"])
}

func TestAttachImageRejectsNonNumericID(t *testing.T) {
	client, calls := newBridge(t, nil)

	err := client.AttachImage(context.Background(), flashcards.CardHandle{ID: "not-a-number"}, []byte{1}, "a.jpg")
	require.Error(t, err)
	assert.Empty(t, *calls)
}

func TestSync(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client, _ := newBridge(t, nil)
		assert.NoError(t, client.Sync(context.Background()))
	})

	t.Run("failure", func(t *testing.T) {
		client, _ := newBridge(t, map[string]string{
			"sync": `{"result": null, "error": "auth required"}`,
		})
		assert.Error(t, client.Sync(context.Background()))
	})
}
