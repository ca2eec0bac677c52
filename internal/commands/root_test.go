package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/qsemantic/internal/api"
	"github.com/diogo/qsemantic/internal/config"
	apierrors "github.com/diogo/qsemantic/internal/errors"
	"github.com/diogo/qsemantic/internal/logging"
	"github.com/diogo/qsemantic/internal/models"
	"github.com/diogo/qsemantic/internal/tui"
)

const entropyPayload = `{
  "response": "Entropy is the measure of missing information.",
  "stats": {
    "entanglement": 0.72,
    "entropy": 0.41,
    "superposition": 0.63,
    "qubitStates": [0.1, 0.05, 0.2, 0.15, 0.1, 0.2, 0.1, 0.1],
    "semanticVector": {"x": 0.5, "y": 0.1, "z": -0.3}
  }
}`

// testEnv isolates the config directory and returns it
func testEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("QSEMANTIC_HOME", home)
	t.Setenv("GLAMOUR_STYLE", "")
	return home
}

// mockDeps returns dependencies backed by a MockGenerator. The config the
// analyzer was built with is stored in *seen.
func mockDeps(gen *api.MockGenerator, seen *config.Config) *Dependencies {
	return &Dependencies{
		NewAnalyzer: func(_ context.Context, cfg config.Config, logger *slog.Logger) (tui.Analyzer, error) {
			if seen != nil {
				*seen = cfg
			}
			return api.NewAnalyzer(gen, api.WithModel(cfg.DefaultModel), api.WithLogger(logger)), nil
		},
		TUI:       &mockTUI{},
		Clipboard: func(string) error { return nil },
		Logger:    logging.Discard(),
	}
}

// execute runs the root command with args and returns stdout and stderr
func execute(t *testing.T, deps *Dependencies, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd(deps)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestReadPrompt(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prompt.md")
	if err := os.WriteFile(file, []byte("from file"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		stdin string
		file  string
		args  []string
		want  string
	}{
		{"file wins", "piped", file, []string{"arg"}, "from file"},
		{"argument over stdin", "piped", "", []string{"arg"}, "arg"},
		{"piped stdin", "piped", "", nil, "piped"},
		{"nothing", "", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPrompt(strings.NewReader(tt.stdin), tt.file, tt.args)
			if err != nil {
				t.Fatalf("readPrompt error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readPrompt = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := readPrompt(nil, filepath.Join(dir, "missing"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRoot_Version(t *testing.T) {
	testEnv(t)
	out, _, err := execute(t, mockDeps(&api.MockGenerator{}, nil), "", "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "qsemantic "+Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestRoot_NoInputShowsHelp(t *testing.T) {
	testEnv(t)
	gen := &api.MockGenerator{}
	out, _, err := execute(t, mockDeps(gen, nil), "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected help output, got %q", out)
	}
	if gen.Calls() != 0 {
		t.Error("no request expected without a prompt")
	}
}

func TestRoot_OneShot(t *testing.T) {
	testEnv(t)
	gen := &api.MockGenerator{Text: entropyPayload}

	out, errOut, err := execute(t, mockDeps(gen, nil), "", "define entropy")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}

	for _, want := range []string{
		"LOGIC ENGINE",
		"Entropy is the measure of missing information.",
		"SEMANTIC METRICS",
		"ENTANGLEMENT",
		"72.0%",
		"63.0%",
		"Entropy 0.41",
		"(0.50, 0.10, -0.30)",
		"QUBIT PROBABILITY DISTRIBUTION",
		"Q0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q\n%s", want, out)
		}
	}
	if !strings.Contains(errOut, "Manifold resolved") {
		t.Errorf("stderr = %q", errOut)
	}

	req, ok := gen.LastRequest()
	if !ok || req.Prompt != "define entropy" {
		t.Errorf("request = %+v", req)
	}
}

func TestRoot_Stdin(t *testing.T) {
	testEnv(t)
	gen := &api.MockGenerator{Text: entropyPayload}

	if _, _, err := execute(t, mockDeps(gen, nil), "explain superposition\n"); err != nil {
		t.Fatal(err)
	}
	req, _ := gen.LastRequest()
	if req.Prompt != "explain superposition\n" {
		t.Errorf("prompt = %q, want raw stdin", req.Prompt)
	}
}

func TestRoot_Raw(t *testing.T) {
	testEnv(t)
	gen := &api.MockGenerator{Text: entropyPayload}

	out, errOut, err := execute(t, mockDeps(gen, nil), "", "define entropy", "--raw")
	if err != nil {
		t.Fatal(err)
	}
	if errOut != "" {
		t.Errorf("raw mode should not decorate stderr: %q", errOut)
	}

	var resp models.QuantumResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if resp.Stats.Superposition != 0.63 || len(resp.Stats.QubitStates) != models.QubitCount {
		t.Errorf("stats = %+v", resp.Stats)
	}
}

func TestRoot_FallbackOnFailure(t *testing.T) {
	testEnv(t)
	gen := &api.MockGenerator{Err: apierrors.NewAPIError(503, "generateContent", "unavailable")}

	out, _, err := execute(t, mockDeps(gen, nil), "", "define entropy", "--raw")
	if err != nil {
		t.Fatalf("analysis failures must not surface, got %v", err)
	}

	var resp models.QuantumResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != models.FallbackText || resp.Stats.Entropy != 1 {
		t.Errorf("expected fallback, got %+v", resp)
	}
}

func TestRoot_OutputFile(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "reply.md")
	gen := &api.MockGenerator{Text: entropyPayload}

	out, errOut, err := execute(t, mockDeps(gen, nil), "", "define entropy", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Entropy is the measure of missing information." {
		t.Errorf("file content = %q", data)
	}
	if out != "" {
		t.Errorf("stdout should be empty, got %q", out)
	}
	if !strings.Contains(errOut, "Response saved to") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRoot_CopyToClipboard(t *testing.T) {
	testEnv(t)
	cfg := config.DefaultConfig()
	cfg.CopyToClipboard = true
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}

	var copied string
	deps := mockDeps(&api.MockGenerator{Text: entropyPayload}, nil)
	deps.Clipboard = func(s string) error {
		copied = s
		return nil
	}

	_, errOut, err := execute(t, deps, "", "define entropy")
	if err != nil {
		t.Fatal(err)
	}
	if copied != "Entropy is the measure of missing information." {
		t.Errorf("copied = %q", copied)
	}
	if !strings.Contains(errOut, "Copied to clipboard") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRoot_FlagOverrides(t *testing.T) {
	testEnv(t)
	var seen config.Config
	deps := mockDeps(&api.MockGenerator{Text: entropyPayload}, &seen)

	_, errOut, err := execute(t, deps, "", "x", "-m", "gemini-2.5-pro", "--backend", "REST", "--verbose")
	if err != nil {
		t.Fatal(err)
	}
	if seen.DefaultModel != "gemini-2.5-pro" || seen.Backend != config.BackendREST || !seen.Verbose {
		t.Errorf("config = %+v", seen)
	}
	if !strings.Contains(errOut, "[verbose] Model: gemini-2.5-pro") {
		t.Errorf("expected verbose lines, got %q", errOut)
	}
}

func TestRoot_InvalidBackend(t *testing.T) {
	testEnv(t)
	_, _, err := execute(t, mockDeps(&api.MockGenerator{}, nil), "", "x", "--backend", "grpc")
	if err == nil || !strings.Contains(err.Error(), "invalid backend") {
		t.Errorf("expected invalid backend error, got %v", err)
	}
}

func TestRoot_MissingAPIKey(t *testing.T) {
	testEnv(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	deps := &Dependencies{Logger: logging.Discard()}
	_, _, err := execute(t, deps, "", "define entropy")
	if !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestFormatErrorMessage_Nil(t *testing.T) {
	if got := formatErrorMessage(nil, "ctx"); got != "" {
		t.Fatalf("expected empty for nil error, got %s", got)
	}
}
