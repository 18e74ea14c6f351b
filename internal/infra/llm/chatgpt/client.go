package chatgpt

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Message mirrors the OpenAI chat message structure.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the payload sent to the completions API.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// ChatCompletionResponse captures the response for non streaming calls.
type ChatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ChatCompletionStreamChunk captures a streaming frame.
type ChatCompletionStreamChunk struct {
	Choices []struct {
		Delta        Message `json:"delta"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// EmbeddingRequest is the payload sent to the embeddings API. Input accepts a
// single string or a batch.
type EmbeddingRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// EmbeddingResponse carries the returned vectors in request order.
type EmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Client performs HTTP requests against an OpenAI-compatible API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// CreateChatCompletion triggers a sync completion call.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	var out ChatCompletionResponse
	body, err := c.post(ctx, "/chat/completions", req, false)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode chat completion: %w", err)
	}
	return out, nil
}

// CreateChatCompletionStream starts a streaming completion call.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req ChatCompletionRequest) (Stream, error) {
	req.Stream = true

	httpReq, err := c.newHTTPRequest(ctx, "/chat/completions", req, true)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request chat completion stream: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("chat stream failed: status=%d body=%s", resp.StatusCode, string(payload))
	}

	reader := bufio.NewScanner(resp.Body)
	reader.Buffer(make([]byte, 0, 1024), 1<<20)

	return &ChatCompletionStream{
		scanner: reader,
		closer:  resp.Body,
	}, nil
}

// CreateEmbedding requests embedding vectors for the input text(s).
func (c *Client) CreateEmbedding(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	var out EmbeddingResponse
	body, err := c.post(ctx, "/embeddings", req, false)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode embedding response: %w", err)
	}
	return out, nil
}

// CountTokens measures text length with the model's tokenizer, falling back to
// cl100k_base when the model is unknown to tiktoken.
func (c *Client) CountTokens(model, text string) int {
	if text == "" {
		return 0
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// Rough upper bound when no tokenizer data is available.
			return (len(text) + 3) / 4
		}
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *Client) post(ctx context.Context, path string, payload any, stream bool) ([]byte, error) {
	httpReq, err := c.newHTTPRequest(ctx, path, payload, stream)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("llm request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) newHTTPRequest(ctx context.Context, path string, payload any, stream bool) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	return httpReq, nil
}

// Stream defines the interface for streaming chat completions.
type Stream interface {
	Recv() (ChatCompletionStreamChunk, error)
	Close() error
}

// ChatCompletionStream wraps a streaming HTTP response.
type ChatCompletionStream struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// Recv reads the next streaming chunk.
func (s *ChatCompletionStream) Recv() (ChatCompletionStreamChunk, error) {
	for {
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				s.Close()
				return ChatCompletionStreamChunk{}, err
			}
			s.Close()
			return ChatCompletionStreamChunk{}, io.EOF
		}
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			s.Close()
			return ChatCompletionStreamChunk{}, io.EOF
		}
		var chunk ChatCompletionStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			s.Close()
			return ChatCompletionStreamChunk{}, fmt.Errorf("decode stream chunk: %w", err)
		}
		return chunk, nil
	}
}

// Close closes the underlying stream.
func (s *ChatCompletionStream) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
