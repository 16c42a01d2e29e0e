// Package reasoning drives the free-text reasoning service and reduces its
// answers to the booleans that gate notification and trading.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUnavailable marks a reasoning-call failure. It aborts processing for the
// current ticker only.
var ErrUnavailable = errors.New("reasoning: service unavailable")

// Reasoner is the opaque text-in/text-out reasoning service.
type Reasoner interface {
	Query(ctx context.Context, text string) (string, error)
}

// GeminiClient implements Reasoner against the Gemini generateContent REST API.
type GeminiClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

// NewGeminiClient creates a client with optional proxy support.
func NewGeminiClient(baseURL, apiKey, model, proxyURL string) *GeminiClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &GeminiClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Query sends one text prompt and returns the concatenated response text.
func (c *GeminiClient) Query(ctx context.Context, text string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, c.Model)

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reasoning request: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reasoning read body: %v: %w", err, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reasoning: status %d, body: %s: %w", resp.StatusCode, string(body), ErrUnavailable)
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("reasoning decode: %v: %w", err, ErrUnavailable)
	}
	if gr.Error != nil {
		return "", fmt.Errorf("reasoning api error %d: %s: %w", gr.Error.Code, gr.Error.Message, ErrUnavailable)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("reasoning: empty response: %w", ErrUnavailable)
	}

	var out bytes.Buffer
	for _, p := range gr.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return out.String(), nil
}
