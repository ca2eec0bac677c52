// Package api implements the Q-Semantic analysis client on top of the Gemini API.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/diogo/qsemantic/internal/config"
)

// GenerateRequest is a single structured-output request
type GenerateRequest struct {
	Model             string
	Prompt            string
	SystemInstruction string
}

// Generator sends one request to the model and returns the raw JSON text of
// the first candidate.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// NewGenerator builds the Generator selected by cfg.Backend
func NewGenerator(ctx context.Context, cfg config.Config, apiKey string) (Generator, error) {
	switch cfg.Backend {
	case config.BackendSDK, "":
		return NewSDKGenerator(ctx, apiKey)
	case config.BackendREST:
		return NewRESTGenerator(apiKey, WithRESTTimeout(cfg.Timeout()+5*time.Second))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
