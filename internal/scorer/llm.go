package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Dhanushraagav/ai-interview-platform/internal/model"
)

// LLM scores answers with an OpenAI-compatible model behind the same Scorer
// contract as the keyword scorer. Unlike the default scorer it is neither
// deterministic nor total: API failures surface as errors.
type LLM struct {
	api   *openai.Client
	model string
}

// NewLLM creates an LLM-backed scorer against an OpenAI-compatible endpoint.
func NewLLM(baseURL, apiKey, modelName string) *LLM {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &LLM{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable.
func (l *LLM) Ping(ctx context.Context) error {
	if _, err := l.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint: %w", err)
	}
	return nil
}

type llmVerdict struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Evaluate asks the model for a 0-10 score and feedback for one answer.
func (l *LLM) Evaluate(ctx context.Context, q model.Question, answer string) (Result, error) {
	resp, err := l.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildGradingPrompt(q)},
			{Role: openai.ChatMessageRoleUser, Content: answer},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return Result{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM grading response", "raw", raw)

	var verdict llmVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return Result{}, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	return Result{
		Score:    round1(clamp(verdict.Score, 0, 10)),
		Feedback: verdict.Feedback,
	}, nil
}

func buildGradingPrompt(q model.Question) string {
	var sb strings.Builder
	sb.WriteString("You are a technical interviewer grading one answer.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	if len(q.Keywords) > 0 {
		sb.WriteString("A strong answer mentions these concepts: ")
		sb.WriteString(strings.Join(q.Keywords, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Grade the user's answer on a 0-10 scale and give brief feedback.\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"score": <number 0 to 10>, "feedback": "<brief feedback>"}`)
	sb.WriteString("\n")
	return sb.String()
}
