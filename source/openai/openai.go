// Package openai adapts the OpenAI chat completion API as a quizpilot
// question source. The question is requested through a forced tool call so
// the reply comes back as structured JSON.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/quizpilot/quizpilot"
)

// Source is the OpenAI API adapter.
type Source struct {
	client *goopenai.Client
}

var _ quizpilot.Source = (*Source)(nil)

// New creates a new OpenAI source.
func New(apiKey string) *Source {
	return &Source{client: goopenai.NewClient(apiKey)}
}

// NewWithClient creates a source around an existing client. Tests use this
// with a client pointed at a stub server.
func NewWithClient(client *goopenai.Client) *Source {
	return &Source{client: client}
}

// ListCandidates returns the chat-capable GPT models the account can use,
// in the order the API declares them.
func (s *Source) ListCandidates(ctx context.Context) ([]string, error) {
	resp, err := s.client.ListModels(ctx)
	if err != nil {
		return nil, mapAPIError(err)
	}

	var models []string
	for _, m := range resp.Models {
		if strings.HasPrefix(m.ID, "gpt") {
			models = append(models, m.ID)
		}
	}
	return models, nil
}

// Generate asks one model for a question about the topic.
func (s *Source) Generate(ctx context.Context, model string, topic quizpilot.Topic) (quizpilot.Question, error) {
	resp, err := s.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: "You are an expert quiz question generator. Generate one high-quality multiple choice question with exactly 4 options.",
			},
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: quizpilot.BuildPrompt(topic),
			},
		},
		Tools: []goopenai.Tool{
			{
				Type: goopenai.ToolTypeFunction,
				Function: &goopenai.FunctionDefinition{
					Name:        "submit_question",
					Description: "Submit the generated quiz question",
					Parameters: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"text": map[string]interface{}{
								"type":        "string",
								"description": "The question text",
							},
							"options": map[string]interface{}{
								"type": "array",
								"items": map[string]interface{}{
									"type": "string",
								},
								"description": "Array of 4 multiple choice options",
							},
							"correct_answer": map[string]interface{}{
								"type":        "integer",
								"description": "0-based index of the correct answer",
							},
							"explanation": map[string]interface{}{
								"type":        "string",
								"description": "Brief explanation of why the answer is correct",
							},
						},
						"required": []string{"text", "options", "correct_answer", "explanation"},
					},
				},
			},
		},
		ToolChoice: goopenai.ToolChoice{
			Type:     goopenai.ToolTypeFunction,
			Function: goopenai.ToolFunction{Name: "submit_question"},
		},
	})
	if err != nil {
		return quizpilot.Question{}, mapAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return quizpilot.Question{}, fmt.Errorf("%w: no choices in response", quizpilot.ErrMalformedQuestion)
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return quizpilot.Question{}, fmt.Errorf("%w: no tool calls in response", quizpilot.ErrMalformedQuestion)
	}

	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != "submit_question" {
		return quizpilot.Question{}, fmt.Errorf("%w: unexpected tool call %q", quizpilot.ErrMalformedQuestion, toolCall.Function.Name)
	}

	var q quizpilot.Question
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &q); err != nil {
		return quizpilot.Question{}, fmt.Errorf("%w: %v", quizpilot.ErrMalformedQuestion, err)
	}
	return q, nil
}

// mapAPIError maps go-openai errors onto the sentinel errors. HTTP 429 is
// the vendor's quota signal.
func mapAPIError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s", quizpilot.ErrRateLimited, apiErr.Message)
		}
		return fmt.Errorf("%w: %s", quizpilot.ErrSourceUnavailable, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", quizpilot.ErrSourceUnavailable, err)
}
