package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/qsemantic/internal/errors"
	"github.com/diogo/qsemantic/internal/models"
)

// Response bodies larger than this are truncated before parsing
const maxResponseBytes = 4 << 20

// httpDoer is the subset of tls_client.HttpClient used by RESTGenerator
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTGenerator calls the generateContent endpoint directly
type RESTGenerator struct {
	httpClient httpDoer
	apiKey     string
	endpoint   string // format string taking the model name
	timeout    time.Duration
}

// RESTOption configures a RESTGenerator
type RESTOption func(*RESTGenerator)

// WithRESTTimeout sets the transport timeout
func WithRESTTimeout(timeout time.Duration) RESTOption {
	return func(g *RESTGenerator) {
		g.timeout = timeout
	}
}

// WithEndpoint overrides the endpoint format string
func WithEndpoint(endpoint string) RESTOption {
	return func(g *RESTGenerator) {
		g.endpoint = endpoint
	}
}

// withHTTPClient injects the transport (used by tests)
func withHTTPClient(c httpDoer) RESTOption {
	return func(g *RESTGenerator) {
		g.httpClient = c
	}
}

// NewRESTGenerator creates a REST backend
func NewRESTGenerator(apiKey string, opts ...RESTOption) (*RESTGenerator, error) {
	if apiKey == "" {
		return nil, apierrors.ErrNoAPIKey
	}

	g := &RESTGenerator{
		apiKey:   apiKey,
		endpoint: models.EndpointGenerate,
		timeout:  65 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(g.timeout.Seconds())),
			tls_client.WithClientProfile(profiles.Chrome_120),
		}
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		g.httpClient = httpClient
	}

	return g, nil
}

// Generate implements Generator
func (g *RESTGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	payload, err := buildRESTPayload(req)
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	endpoint := fmt.Sprintf(g.endpoint, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", apierrors.NewTimeoutError(endpoint)
		}
		return "", apierrors.NewNetworkErrorWithEndpoint("generate content", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("read response", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = "generate content failed"
		}
		errBody := string(body)
		if len(errBody) > 4096 {
			errBody = errBody[:4096]
		}
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, msg, errBody)
	}

	return parseRESTResponse(body)
}

// buildRESTPayload creates the generateContent request body
func buildRESTPayload(req GenerateRequest) ([]byte, error) {
	payload := map[string]any{
		"contents": []any{
			map[string]any{
				"role":  "user",
				"parts": []any{map[string]any{"text": req.Prompt}},
			},
		},
		"generationConfig": map[string]any{
			"responseMimeType": models.ResponseMIMEType,
			"responseSchema":   responseSchema.toMap(),
		},
	}
	if req.SystemInstruction != "" {
		payload["systemInstruction"] = map[string]any{
			"parts": []any{map[string]any{"text": req.SystemInstruction}},
		}
	}
	return json.Marshal(payload)
}

// parseRESTResponse extracts the first candidate's text from a
// generateContent response body
func parseRESTResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response body is not valid JSON", "")
	}
	parsed := gjson.ParseBytes(body)

	if reason := parsed.Get("promptFeedback.blockReason"); reason.Exists() {
		return "", apierrors.NewBlockedError(reason.String())
	}

	cand := parsed.Get("candidates.0")
	if !cand.Exists() {
		return "", apierrors.ErrNoContent
	}

	var sb strings.Builder
	cand.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		sb.WriteString(part.Get("text").String())
		return true
	})

	if sb.Len() == 0 {
		if reason := cand.Get("finishReason").String(); reason == "SAFETY" {
			return "", apierrors.NewBlockedError(reason)
		}
		return "", apierrors.ErrNoContent
	}
	return sb.String(), nil
}
