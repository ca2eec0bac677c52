package api

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	apierrors "github.com/diogo/qsemantic/internal/errors"
)

type fakeModels struct {
	resp      *genai.GenerateContentResponse
	err       error
	gotModel  string
	gotConfig *genai.GenerateContentConfig
	gotPrompt string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotPrompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}},
		},
	}
}

func TestSDKGenerator_Success(t *testing.T) {
	fake := &fakeModels{resp: textResponse(
		&genai.Part{Text: "pondering", Thought: true},
		&genai.Part{Text: validPayload},
	)}
	g := &SDKGenerator{models: fake}

	text, err := g.Generate(context.Background(), GenerateRequest{
		Model:             "gemini-test",
		Prompt:            "define entropy",
		SystemInstruction: "be terse",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != validPayload {
		t.Errorf("text = %q", text)
	}

	if fake.gotModel != "gemini-test" {
		t.Errorf("model = %q", fake.gotModel)
	}
	if fake.gotPrompt != "define entropy" {
		t.Errorf("prompt = %q", fake.gotPrompt)
	}
	if fake.gotConfig.ResponseMIMEType != "application/json" {
		t.Errorf("ResponseMIMEType = %q", fake.gotConfig.ResponseMIMEType)
	}
	if fake.gotConfig.SystemInstruction == nil || fake.gotConfig.SystemInstruction.Parts[0].Text != "be terse" {
		t.Error("system instruction not set")
	}
	schema := fake.gotConfig.ResponseSchema
	if schema == nil || schema.Type != genai.TypeObject {
		t.Fatalf("ResponseSchema = %+v", schema)
	}
	if schema.Properties["stats"].Properties["semanticVector"].Properties["z"].Type != genai.TypeNumber {
		t.Error("semanticVector.z should be a number")
	}
	if schema.Properties["stats"].Properties["qubitStates"].Items.Type != genai.TypeNumber {
		t.Error("qubitStates items should be numbers")
	}
}

func TestSDKGenerator_Errors(t *testing.T) {
	tests := []struct {
		name  string
		fake  *fakeModels
		check func(error) bool
	}{
		{
			name:  "sdk error",
			fake:  &fakeModels{err: errors.New("Error 400, Message: bad request")},
			check: func(err error) bool { return err != nil },
		},
		{
			name:  "deadline",
			fake:  &fakeModels{err: context.DeadlineExceeded},
			check: apierrors.IsTimeoutError,
		},
		{
			name:  "nil response",
			fake:  &fakeModels{},
			check: func(err error) bool { return errors.Is(err, apierrors.ErrNoContent) },
		},
		{
			name: "blocked prompt",
			fake: &fakeModels{resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReason("SAFETY")},
			}},
			check: apierrors.IsBlockedError,
		},
		{
			name: "safety finish",
			fake: &fakeModels{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}},
			check: apierrors.IsBlockedError,
		},
		{
			name:  "only thoughts",
			fake:  &fakeModels{resp: textResponse(&genai.Part{Text: "hmm", Thought: true})},
			check: func(err error) bool { return errors.Is(err, apierrors.ErrNoContent) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &SDKGenerator{models: tt.fake}
			_, err := g.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "p"})
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error %T: %v", err, err)
			}
		})
	}
}

func TestNewSDKGenerator_RequiresKey(t *testing.T) {
	if _, err := NewSDKGenerator(context.Background(), ""); !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}
