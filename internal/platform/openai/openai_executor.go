package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/generation"
)

// DefaultBaseURL is used when no endpoint is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// chatClient is the subset of the go-openai client used by the executor.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// Executor implements generation.Executor against a chat completions endpoint.
type Executor struct {
	logger  *slog.Logger
	client  chatClient
	baseURL string
	model   string
}

var _ generation.Executor = (*Executor)(nil)

// NewExecutor creates an Executor from the LLM configuration.
// The per-call deadline comes from the caller's context, so the HTTP client
// carries no overall timeout of its own.
func NewExecutor(logger *slog.Logger, cfg config.LLMConfig) (*Executor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	return newExecutorWithClient(logger, goopenai.NewClientWithConfig(clientConfig), baseURL, cfg.Model), nil
}

func newExecutorWithClient(logger *slog.Logger, client chatClient, baseURL, model string) *Executor {
	return &Executor{
		logger:  logger,
		client:  client,
		baseURL: baseURL,
		model:   model,
	}
}

// Model implements generation.Executor.
func (e *Executor) Model() string {
	return e.model
}

// Execute implements generation.Executor. It makes a single chat completions
// call and returns the message content as the service sent it.
func (e *Executor) Execute(ctx context.Context, req generation.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", generation.NewPermanentError("invalid request", err)
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.User,
	})

	e.logger.DebugContext(ctx, "Making chat completions call",
		"model", e.model,
		"prompt_length", len(req.User))

	resp, err := e.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    e.model,
		Messages: messages,
	})
	if err != nil {
		if ctxErr := generation.ClassifyContextError(ctx.Err()); ctxErr != nil {
			return "", ctxErr
		}
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", generation.NewPermanentError("response missing choices", generation.ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		return "", generation.NewPermanentError("response filtered", generation.ErrContentBlocked)
	}

	content := choice.Message.Content
	if strings.TrimSpace(content) == "" {
		return "", generation.NewPermanentError("response empty", generation.ErrInvalidResponse)
	}

	e.logger.DebugContext(ctx, "Chat completions call successful",
		"result_length", len(content),
		"finish_reason", choice.FinishReason)

	return content, nil
}

// classifyError maps a client error to an execution error.
func classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return generation.NewPermanentError("decode response",
			fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err))
	}

	return generation.NewTransientError("request failed",
		fmt.Errorf("%w: %v", generation.ErrTransientFailure, err))
}

// classifyStatus maps a non-2xx status code to an execution error.
func classifyStatus(code int, cause error) error {
	if generation.IsTransientStatus(code) {
		return generation.NewTransientError("service unavailable",
			fmt.Errorf("%w: %w", generation.ErrTransientFailure, cause))
	}
	return generation.NewPermanentError("request rejected",
		fmt.Errorf("%w: %w", generation.ErrGenerationFailed, cause))
}
