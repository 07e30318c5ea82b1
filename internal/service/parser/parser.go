// Package parser extracts contractor requisites from free-form messages with
// an LLM. Contractors paste their data however they like; the model maps it
// onto the sheet's field names.
package parser

import (
	"IzdatBot/internal/config"
	"IzdatBot/internal/lib/sl"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You extract payment requisites from a message written in Russian or English. " +
	"Return ONLY a JSON object whose keys are exactly the requested field names. " +
	"Omit fields that are not present in the message. Never invent values."

type Service struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

func NewParserService(conf *config.Config, logger *slog.Logger) *Service {
	return &Service{
		client: openai.NewClient(conf.OpenAI.ApiKey),
		model:  conf.OpenAI.Model,
		log:    logger.With(sl.Module("parser service")),
	}
}

// ParseFields asks the model for the requested fields and returns whatever
// subset it could find. Unknown keys in the answer are dropped.
func (s *Service) ParseFields(ctx context.Context, text string, fields []string) (map[string]string, error) {
	userPrompt := fmt.Sprintf("Requested fields: %s\n\nMessage:\n%s",
		strings.Join(fields, ", "), text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	var raw map[string]any
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("model returned non-JSON answer: %w", err)
	}

	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}

	out := make(map[string]string)
	for k, v := range raw {
		if !allowed[k] {
			continue
		}
		if str, ok := v.(string); ok && strings.TrimSpace(str) != "" {
			out[k] = strings.TrimSpace(str)
		}
	}

	s.log.Debug("requisites parsed",
		slog.Int("requested", len(fields)),
		slog.Int("extracted", len(out)),
	)
	return out, nil
}
