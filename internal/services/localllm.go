package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"emberfall/pkg/chat"
)

const (
	DefaultTemperature = 0.8
	DefaultMaxTokens   = 150
)

// LocalLLMService implements LLMService against an OpenAI-style
// chat-completions endpoint, typically a locally hosted inference
// server. The endpoint being down is a per-request failure; callers
// fall back to local dialogue.
type LocalLLMService struct {
	baseURL     string
	modelName   string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *slog.Logger
}

var _ LLMService = (*LocalLLMService)(nil)

// NewLocalLLMService creates a client for the configured endpoint.
func NewLocalLLMService(baseURL string, modelName string, logger *slog.Logger) *LocalLLMService {
	return &LocalLLMService{
		baseURL:     baseURL,
		modelName:   modelName,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type completionRequest struct {
	Model       string             `json:"model"`
	Messages    []chat.ChatMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
	Stream      bool               `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends a non-streaming completion request.
func (s *LocalLLMService) Chat(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	reqBody := completionRequest{
		Model:       s.modelName,
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := s.baseURL + "/v1/chat/completions"
	s.logger.Debug("Making completion request",
		"url", url,
		"model", s.modelName,
		"message_count", len(messages))

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("Completion endpoint returned error",
			"status_code", resp.StatusCode,
			"status", resp.Status)
		return "", fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		s.logger.Error("Failed to decode completion response", "error", err)
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
