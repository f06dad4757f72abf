package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-paper-service/internal/models"
	"github.com/SAP-F-2025/exam-paper-service/internal/services"

	openai "github.com/sashabaranov/go-openai"
)

// markResult is the JSON object the model is asked to return.
type markResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// generatedQuestion is one entry of the generation response.
type generatedQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

type generationResult struct {
	Questions []generatedQuestion `json:"questions"`
}

// Client wraps an OpenAI-compatible API client. It serves both answer review and
// question generation.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// SuggestMarks asks the model to mark one subjective answer against the model answer.
func (c *Client) SuggestMarks(ctx context.Context, question *models.Question, answer string, maxMarks float64) (*services.MarkSuggestion, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(question, maxMarks)},
			{Role: openai.ChatMessageRoleUser, Content: answer},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var result markResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	return &services.MarkSuggestion{
		QuestionID: question.ID,
		Marks:      result.Score,
		MaxMarks:   maxMarks,
		Feedback:   result.Feedback,
	}, nil
}

// GenerateQuestions asks the model for mcq drafts on req.Topic. The drafts carry
// only text, options and answer; the caller applies subject and difficulty.
func (c *Client) GenerateQuestions(ctx context.Context, req *services.GenerateQuestionsRequest) ([]*services.CreateQuestionRequest, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildGenerationPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Topic},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	items, err := parseGenerated(raw)
	if err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	drafts := make([]*services.CreateQuestionRequest, 0, len(items))
	for _, item := range items {
		drafts = append(drafts, &services.CreateQuestionRequest{
			Text:          item.Text,
			Options:       item.Options,
			CorrectAnswer: item.CorrectAnswer,
		})
	}
	return drafts, nil
}

// parseGenerated accepts {"questions": [...]} or a bare array, optionally
// wrapped in a markdown code fence.
func parseGenerated(raw string) ([]generatedQuestion, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "[") {
		var items []generatedQuestion
		if err := json.Unmarshal([]byte(text), &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var result generationResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, err
	}
	return result.Questions, nil
}

func buildGenerationPrompt(req *services.GenerateQuestionsRequest) string {
	var sb strings.Builder
	sb.WriteString("You write multiple-choice exam questions. The topic is in the next message.\n\n")
	sb.WriteString("SUBJECT: " + req.Subject + "\n")
	sb.WriteString("DIFFICULTY: " + req.Difficulty + "\n")
	sb.WriteString(fmt.Sprintf("COUNT: %d\n\n", req.Count.Int()))
	sb.WriteString("Each question has exactly four distinct options and one correct option. ")
	sb.WriteString("correct_answer must repeat the text of the correct option. Respond with a JSON object: ")
	sb.WriteString(`{"questions": [{"text": "...", "options": ["...", "...", "...", "..."], "correct_answer": "..."}]}`)
	return sb.String()
}

func buildSystemPrompt(q *models.Question, maxMarks float64) string {
	var sb strings.Builder
	sb.WriteString("You are an exam marker. The student's answer to the following question is in the next message.\n\n")
	sb.WriteString("QUESTION: " + q.Text + "\n\n")
	sb.WriteString(fmt.Sprintf("MAX MARKS: %g\n\n", maxMarks))
	if strings.TrimSpace(q.CorrectAnswer) != "" {
		sb.WriteString("MODEL ANSWER:\n" + q.CorrectAnswer + "\n\n")
	}
	sb.WriteString("Mark only what the answer states. Respond with a JSON object: ")
	sb.WriteString(`{"score": <number between 0 and MAX MARKS>, "feedback": "<one or two sentences>"}`)
	return sb.String()
}
