package chat

import (
	"context"
	"errors"
	"io"
	"strings"

	"log/slog"

	"github.com/openrx/admatch/internal/infra/llm/chatgpt"
	apperrors "github.com/openrx/admatch/pkg/errors"
	"github.com/openrx/admatch/pkg/metrics"
)

// Service answers physician questions. Ad delivery is layered on top of this
// flow and must never block it.
type Service interface {
	Answer(ctx context.Context, req Request) (Response, error)
	StreamAnswer(ctx context.Context, req Request) (<-chan StreamChunk, error)
}

// ChatClient is the slice of the LLM client the Q&A flow needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.Stream, error)
	CountTokens(model, text string) int
}

type service struct {
	cfg    Config
	client ChatClient
	logger *slog.Logger
}

// NewService wires up the Q&A domain.
func NewService(cfg Config, client ChatClient, logger *slog.Logger) Service {
	return &service{cfg: cfg, client: client, logger: logger.With("component", "chat.service")}
}

func (s *service) Answer(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, apperrors.Wrap("invalid_input", "question cannot be empty", nil)
	}

	messages := s.buildMessages(question)
	resp, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Response{}, apperrors.Wrap("llm_error", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, apperrors.Wrap("llm_error", "chat completion returned no choices", nil)
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return Response{}, apperrors.Wrap("llm_error", "chat completion empty", nil)
	}

	return Response{
		Question:   question,
		Answer:     answer,
		TokenUsage: s.estimateUsage(messages, answer),
	}, nil
}

func (s *service) StreamAnswer(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, apperrors.Wrap("invalid_input", "question cannot be empty", nil)
	}

	stream, err := s.client.CreateChatCompletionStream(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    s.buildMessages(question),
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, apperrors.Wrap("llm_error", "chat stream request failed", err)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()

		var builder strings.Builder
		for {
			chunk, recvErr := stream.Recv()
			if recvErr != nil {
				if !errors.Is(recvErr, io.EOF) {
					s.logger.Error("chat stream recv failed", "error", recvErr)
				}
				break
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				builder.WriteString(choice.Delta.Content)
				out <- StreamChunk{Delta: choice.Delta.Content}
			}
		}

		answer := strings.TrimSpace(builder.String())
		if answer == "" {
			return
		}
		out <- StreamChunk{Completed: true, Answer: answer}
	}()

	return out, nil
}

func (s *service) buildMessages(question string) []chatgpt.Message {
	prompt := strings.TrimSpace(s.cfg.Prompt)
	if prompt == "" {
		prompt = "You are a clinical knowledge assistant for licensed physicians. Answer with current evidence-based guidance and note when specialist referral is warranted."
	}
	return []chatgpt.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: question},
	}
}

func (s *service) estimateUsage(messages []chatgpt.Message, answer string) *metrics.TokenUsage {
	var promptText strings.Builder
	for _, m := range messages {
		promptText.WriteString(m.Content)
		promptText.WriteString("\n")
	}
	usage := metrics.TokenUsage{
		PromptTokens:     s.client.CountTokens(s.cfg.Model, promptText.String()),
		CompletionTokens: s.client.CountTokens(s.cfg.Model, answer),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	if usage.IsZero() {
		return nil
	}
	return &usage
}
