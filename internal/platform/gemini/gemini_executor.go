package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/generation"
	"google.golang.org/genai"
)

// contentGenerator is the subset of the genai Models service used by the executor.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiExecutor implements the generation.Executor interface using
// Google's Gemini API.
type GeminiExecutor struct {
	// logger is used for structured logging
	logger *slog.Logger

	// models is the Gemini content generation service
	models contentGenerator

	// model is the name of the Gemini model to use
	model string
}

var _ generation.Executor = (*GeminiExecutor)(nil)

// NewGeminiExecutor creates a new instance of GeminiExecutor with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name and optional endpoint
//
// Returns:
//   - A properly initialized GeminiExecutor or an error if initialization fails
func NewGeminiExecutor(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiExecutor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return newExecutor(logger, client.Models, cfg.Model), nil
}

func newExecutor(logger *slog.Logger, models contentGenerator, model string) *GeminiExecutor {
	return &GeminiExecutor{
		logger: logger,
		models: models,
		model:  model,
	}
}

// Model implements generation.Executor.
func (g *GeminiExecutor) Model() string {
	return g.model
}

// Execute implements generation.Executor. It makes a single GenerateContent call.
func (g *GeminiExecutor) Execute(ctx context.Context, req generation.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", generation.NewPermanentError("invalid request", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.User}},
		},
	}

	var genConfig *genai.GenerateContentConfig
	if req.System != "" {
		genConfig = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: req.System}},
			},
		}
	}

	g.logger.DebugContext(ctx, "Making Gemini API call",
		"model", g.model,
		"prompt_length", len(req.User))

	resp, err := g.models.GenerateContent(ctx, g.model, contents, genConfig)
	if err != nil {
		if ctxErr := generation.ClassifyContextError(ctx.Err()); ctxErr != nil {
			return "", ctxErr
		}
		g.logger.WarnContext(ctx, "Gemini API call error", "error", err)
		return "", classifyAPIError(err)
	}

	text, err := extractText(resp)
	if err != nil {
		g.logger.WarnContext(ctx, "Gemini API returned unusable response", "error", err)
		return "", generation.NewPermanentError("unusable gemini response", err)
	}

	g.logger.DebugContext(ctx, "Gemini API call successful",
		"result_length", len(text))

	return text, nil
}

// extractText returns the concatenated text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s",
			generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: response has no text", generation.ErrInvalidResponse)
	}

	return text, nil
}

// classifyAPIError maps a failed GenerateContent call to an execution error.
// Errors without a status code are network failures and count as transient.
func classifyAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 && !generation.IsTransientStatus(apiErr.Code) {
		return generation.NewPermanentError("gemini API rejected request",
			fmt.Errorf("%w: %w", generation.ErrGenerationFailed, err))
	}
	return generation.NewTransientError("gemini API call failed",
		fmt.Errorf("%w: %v", generation.ErrTransientFailure, err))
}
