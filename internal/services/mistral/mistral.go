// Package mistral provides a client for the Mistral chat-completions API
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.mistral.ai/v1/chat/completions"

// MistralService provides a centralized way to interact with the Mistral API
type MistralService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// ChatMessage represents a message in the chat conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a Mistral API request
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse represents a Mistral API response
type ChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatError represents an error payload from the Mistral API
type ChatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// CompletionOptions contains the parameters for a completion request
type CompletionOptions struct {
	Model            string
	Temperature      float64
	MaxTokens        int
	RequestTimeoutMS int
}

// NewMistralService creates a new Mistral service instance using the
// MISTRAL_API environment variable
func NewMistralService() (*MistralService, error) {
	apiKey := os.Getenv("MISTRAL_API")
	if apiKey == "" {
		return nil, errors.New("MISTRAL_API environment variable is not set")
	}

	return newService(apiKey, defaultBaseURL), nil
}

// newService builds a service with the shared client defaults
func newService(apiKey, baseURL string) *MistralService {
	return &MistralService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		// Client-side throttle: 1 request per second, burst of 2
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		maxRetries: 4,
	}
}

// Complete sends a completion request to the Mistral API, retrying
// transient failures with exponential backoff
func (s *MistralService) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (*ChatResponse, error) {
	if opts.RequestTimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.RequestTimeoutMS)*time.Millisecond)
		defer cancel()
	}

	reqBody := ChatRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	reqData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.backoffDelay(attempt, lastErr)
			utils.LogVerbose("Retrying Mistral request in %s (attempt %d/%d)", delay, attempt+1, s.maxRetries)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, retryable, err := s.doRequest(ctx, reqData)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", s.maxRetries, lastErr)
}

// doRequest performs a single HTTP round trip. The bool result reports
// whether the failure is worth retrying (429, 5xx, network).
func (s *MistralService) doRequest(ctx context.Context, reqData []byte) (*ChatResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL, bytes.NewBuffer(reqData))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.LogWarning("Failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500

		var chatError ChatError
		if err := json.Unmarshal(respBody, &chatError); err == nil && chatError.Error.Message != "" {
			return nil, retryable, &apiError{
				status:     resp.StatusCode,
				message:    chatError.Error.Message,
				retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}
		return nil, retryable, &apiError{
			status:     resp.StatusCode,
			message:    string(respBody),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, false, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, false, errors.New("no response choices from Mistral")
	}

	return &chatResp, false, nil
}

// GetContent is a helper function that returns just the content from the first choice
func (s *MistralService) GetContent(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error) {
	resp, err := s.Complete(ctx, messages, opts)
	if err != nil {
		return "", err
	}

	return resp.Choices[0].Message.Content, nil
}

// backoffDelay computes the wait before the given retry attempt,
// honoring a server-provided Retry-After when present
func (s *MistralService) backoffDelay(attempt int, lastErr error) time.Duration {
	var apiErr *apiError
	if errors.As(lastErr, &apiErr) && apiErr.retryAfter > 0 {
		return apiErr.retryAfter
	}

	delay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	if delay > 10*time.Second {
		delay = 10 * time.Second
	}
	return delay
}

// apiError carries the status and Retry-After hint of a failed API call
type apiError struct {
	status     int
	message    string
	retryAfter time.Duration
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.status, e.message)
}

// parseRetryAfter handles the delay-seconds form of the Retry-After header
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// IsAPIKeySet checks if the Mistral API key is set in the environment
func IsAPIKeySet() bool {
	return os.Getenv("MISTRAL_API") != ""
}

// ValidateAPIKey checks if the API key is set and returns an error if it's not
func ValidateAPIKey() error {
	if !IsAPIKeySet() {
		return errors.New("MISTRAL_API environment variable is not set")
	}
	return nil
}
