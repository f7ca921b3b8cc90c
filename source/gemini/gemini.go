// Package gemini adapts the Gemini REST API as a quizpilot question
// source.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quizpilot/quizpilot"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Source is the Gemini API adapter.
type Source struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ quizpilot.Source = (*Source)(nil)

// Option configures the source.
type Option func(*Source)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(s *Source) { s.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.httpClient = c }
}

// New creates a new Gemini source.
func New(apiKey string, opts ...Option) *Source {
	s := &Source{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Gemini API types.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type listModelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// ListCandidates returns the models that support content generation, in
// the order the API declares them.
func (s *Source) ListCandidates(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/models?key=%s", s.baseURL, s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", quizpilot.ErrSourceUnavailable, err)
	}
	defer httpResp.Body.Close()

	if err := mapHTTPError(httpResp); err != nil {
		return nil, err
	}

	var resp listModelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("quizpilot: decode model list: %w", err)
	}

	var models []string
	for _, m := range resp.Models {
		if !supportsGenerate(m.SupportedGenerationMethods) {
			continue
		}
		models = append(models, strings.TrimPrefix(m.Name, "models/"))
	}
	return models, nil
}

func supportsGenerate(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

// Generate asks one model for a question about the topic.
func (s *Source) Generate(ctx context.Context, model string, topic quizpilot.Topic) (quizpilot.Question, error) {
	body := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: quizpilot.BuildPrompt(topic)}}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return quizpilot.Question{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return quizpilot.Question{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return quizpilot.Question{}, fmt.Errorf("%w: %v", quizpilot.ErrSourceUnavailable, err)
	}
	defer httpResp.Body.Close()

	if err := mapHTTPError(httpResp); err != nil {
		return quizpilot.Question{}, err
	}

	var resp generateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return quizpilot.Question{}, fmt.Errorf("%w: %v", quizpilot.ErrMalformedQuestion, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return quizpilot.Question{}, fmt.Errorf("%w: empty candidates", quizpilot.ErrMalformedQuestion)
	}

	return quizpilot.ParseQuestionJSON(resp.Candidates[0].Content.Parts[0].Text)
}

// mapHTTPError maps non-2xx responses onto the sentinel errors. 429 and
// RESOURCE_EXHAUSTED are the vendor's quota signals.
func mapHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %s", quizpilot.ErrRateLimited, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("%w: status %d: %s", quizpilot.ErrSourceUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
}
