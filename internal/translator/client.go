// Package translator produces bilingual translations with usage examples
// through an OpenAI-compatible chat completions API, and parses the fixed
// textual layout the prompt enforces.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the OpenAI API host.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"

	defaultTimeout = 60 * time.Second
)

// The prompts pin the response layout the parser depends on: a "Перевод:"
// line followed by a "Примеры:" block with three numbered example pairs.
const (
	translationSystemPrompt = "Ты профессиональный переводчик."

	translationUserPrompt = `Определи язык текста "{text}".
Если текст на русском - переведи на английский.
Если текст на английском - переведи на русский.
Если текст на другом языке - переведи на английский.

Предоставь:
1. Перевод слова/фразы
2. 3 примера использования этого слова в предложениях с переводом

ВАЖНО! Порядок в примерах:
- Если исходный текст на АНГЛИЙСКОМ - пиши примеры: [английский пример] - [русский перевод]
- Если исходный текст на РУССКОМ - пиши примеры: [русский пример] - [английский перевод]

Требования:
1. Не используй кавычки и скобки.
2. В примерах ВСЕГДА первым идет пример на языке исходного текста "{text}", вторым - его перевод.

Ответь в следующем формате:
Перевод: [перевод]
Примеры:
1. [пример на исходном языке] - [перевод]
2. [пример на исходном языке] - [перевод]
3. [пример на исходном языке] - [перевод]`

	keywordSystemPrompt = "Ты помощник, который извлекает ключевые слова из текста."

	keywordUserPrompt = `Из текста "{text}" извлеки ОДНО главное существительное, которое лучше всего подходит для поиска изображения.
Если это одно слово - верни его.
Если это предложение - верни самое важное существительное.
Верни ТОЛЬКО слово на английском языке, без объяснений.`
)

// Translator is the text-to-text contract the rest of the service consumes.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	ExtractKeyword(ctx context.Context, text string) (string, error)
}

// OpenAIClient implements Translator against an OpenAI-compatible chat
// completions endpoint.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a translator client. Empty baseURL and model
// select the OpenAI defaults.
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate returns the raw model response in the fixed
// "Перевод:/Примеры:" layout.
func (c *OpenAIClient) Translate(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, translationSystemPrompt, fillText(translationUserPrompt, text))
}

// ExtractKeyword asks the model for the single English noun that best
// represents the text, for image search.
func (c *OpenAIClient) ExtractKeyword(ctx context.Context, text string) (string, error) {
	keyword, err := c.complete(ctx, keywordSystemPrompt, fillText(keywordUserPrompt, text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(keyword), nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completions returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func fillText(prompt, text string) string {
	return strings.ReplaceAll(prompt, "{text}", text)
}
