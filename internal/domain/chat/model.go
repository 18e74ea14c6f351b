package chat

import "github.com/openrx/admatch/pkg/metrics"

// Request carries the physician question.
type Request struct {
	Question string `json:"question"`
}

// Response is the completed answer.
type Response struct {
	Question   string              `json:"question"`
	Answer     string              `json:"answer"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// StreamChunk is one SSE frame of a streamed answer.
type StreamChunk struct {
	Delta     string `json:"delta,omitempty"`
	Completed bool   `json:"completed,omitempty"`
	Answer    string `json:"answer,omitempty"`
}

// Config tunes the Q&A domain.
type Config struct {
	Model       string
	Temperature float32
	Prompt      string
}
