package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Preset names. V1 is the long-form conversational preset, V1c the
// lightweight one with shorter answers.
const (
	ModelV1  = "V1"
	ModelV1c = "V1c"
)

type preset struct {
	MaxNewTokens      int      `json:"max_new_tokens"`
	Temperature       float64  `json:"temperature"`
	TopP              float64  `json:"top_p"`
	RepetitionPenalty *float64 `json:"repetition_penalty,omitempty"`
	fallback          string
}

var presets = map[string]preset{
	ModelV1: {
		MaxNewTokens:      100,
		Temperature:       0.8,
		TopP:              0.9,
		RepetitionPenalty: floatPtr(1.2),
		fallback:          "すみません、応答の生成中にエラーが発生しました。(V1)",
	},
	ModelV1c: {
		MaxNewTokens: 50,
		Temperature:  0.7,
		TopP:         0.85,
		fallback:     "すみません、応答の生成中にエラーが発生しました。(V1c)",
	},
}

func floatPtr(v float64) *float64 { return &v }

// Client talks to the hosted text-generation endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewClient constructs a Client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api-inference.huggingface.co",
		model:   "gpt2",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL overrides the inference endpoint, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// ResolveModel maps the requested model to a known preset name. An
// unrecognized or empty value silently falls back to V1.
func ResolveModel(model string) string {
	if _, ok := presets[model]; ok {
		return model
	}
	return ModelV1
}

// Generate produces a completion for the message under the given preset.
// Backend failures are substituted with the preset's fixed apology string
// rather than propagated.
func (c *Client) Generate(ctx context.Context, model, message string) string {
	p := presets[ResolveModel(model)]

	text, err := c.textGeneration(ctx, message, p)
	if err != nil {
		log.Printf("inference: %s generation error: %v", ResolveModel(model), err)
		return p.fallback
	}
	return strings.TrimSpace(text)
}

func (c *Client) textGeneration(ctx context.Context, inputs string, p preset) (string, error) {
	body, err := json.Marshal(map[string]any{
		"inputs":     inputs,
		"parameters": p,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference backend status %d", resp.StatusCode)
	}

	var results []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("empty inference response")
	}
	return results[0].GeneratedText, nil
}
