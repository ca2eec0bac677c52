package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	apierrors "github.com/diogo/qsemantic/internal/errors"
	"github.com/diogo/qsemantic/internal/models"
)

// contentGenerator is the subset of *genai.Models used by SDKGenerator
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// SDKGenerator calls the Gemini API through the official genai client
type SDKGenerator struct {
	models contentGenerator
}

// NewSDKGenerator creates a genai client for the Gemini API backend
func NewSDKGenerator(ctx context.Context, apiKey string) (*SDKGenerator, error) {
	if apiKey == "" {
		return nil, apierrors.ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &SDKGenerator{models: client.Models}, nil
}

// Generate implements Generator
func (g *SDKGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: models.ResponseMIMEType,
		ResponseSchema:   responseSchema.toGenai(),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apierrors.NewTimeoutError(err.Error())
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	return candidateText(resp)
}

// candidateText joins the non-thought text parts of the first candidate
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", apierrors.ErrNoContent
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", apierrors.NewBlockedError(string(resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", apierrors.ErrNoContent
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}

	if sb.Len() == 0 {
		if cand.FinishReason == genai.FinishReasonSafety {
			return "", apierrors.NewBlockedError(string(cand.FinishReason))
		}
		return "", apierrors.ErrNoContent
	}
	return sb.String(), nil
}
