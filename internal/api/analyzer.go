package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apierrors "github.com/diogo/qsemantic/internal/errors"
	"github.com/diogo/qsemantic/internal/logging"
	"github.com/diogo/qsemantic/internal/models"
)

// Analyzer turns a free-text prompt into a QuantumResponse.
// Every failure is absorbed here: callers always receive a displayable result.
type Analyzer struct {
	gen               Generator
	model             string
	systemInstruction string
	timeout           time.Duration
	logger            *slog.Logger
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithModel sets the model name sent with each request
func WithModel(model string) AnalyzerOption {
	return func(a *Analyzer) {
		a.model = model
	}
}

// WithTimeout bounds each request
func WithTimeout(timeout time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeout = timeout
	}
}

// WithLogger sets the logger used to record absorbed failures
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer creates an Analyzer on top of gen
func NewAnalyzer(gen Generator, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		gen:               gen,
		model:             models.DefaultModel,
		systemInstruction: models.SystemInstruction,
		timeout:           60 * time.Second,
		logger:            logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the configured model name
func (a *Analyzer) Model() string {
	return a.model
}

// Analyze sends prompt and returns the parsed result, or the fixed fallback
// on any error. There is no retry.
func (a *Analyzer) Analyze(ctx context.Context, prompt string) models.QuantumResponse {
	start := time.Now()
	resp, err := a.analyze(ctx, prompt)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "analysis failed, using fallback",
			slog.String("model", a.model),
			slog.String("kind", apierrors.Kind(err)),
			slog.Int("http_status", apierrors.GetHTTPStatus(err)),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return models.FallbackResponse()
	}

	a.logger.LogAttrs(ctx, slog.LevelDebug, "analysis complete",
		slog.String("model", a.model),
		slog.Int("response_chars", len(resp.Response)),
		slog.Float64("entropy", resp.Stats.Entropy),
		slog.Duration("elapsed", time.Since(start)))
	return resp
}

func (a *Analyzer) analyze(ctx context.Context, prompt string) (models.QuantumResponse, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.QuantumResponse{}, apierrors.ErrEmptyPrompt
	}
	if a.gen == nil {
		return models.QuantumResponse{}, apierrors.NewNetworkError("generate content", apierrors.ErrNoAPIKey)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.gen.Generate(ctx, GenerateRequest{
		Model:             a.model,
		Prompt:            prompt,
		SystemInstruction: a.systemInstruction,
	})
	if err != nil {
		return models.QuantumResponse{}, err
	}

	return ParseQuantumResponse(text)
}
