package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/qsemantic/internal/api"
	"github.com/diogo/qsemantic/internal/history"
)

func runHistory(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return execute(t, mockDeps(&api.MockGenerator{}, nil), "", append([]string{"history"}, args...)...)
}

func TestHistory_ListEmpty(t *testing.T) {
	testEnv(t)
	out, _, err := runHistory(t, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No sessions found.") {
		t.Errorf("output = %q", out)
	}
}

func TestHistory_List(t *testing.T) {
	testEnv(t)
	sess := seedSession(t, "define entropy")

	out, _, err := runHistory(t, "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"TITLE", "MESSAGES", sess.ShortID(), "define entropy", "gemini-3-flash-preview", "just now"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing %q\n%s", want, out)
		}
	}
}

func TestHistory_Show(t *testing.T) {
	testEnv(t)
	sess := seedSession(t, "define entropy")

	out, _, err := runHistory(t, "show", "@last")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# define entropy", sess.ID, "## Linguistic Source", "## Logic Engine", "| Entanglement | 50.0% |"} {
		if !strings.Contains(out, want) {
			t.Errorf("show missing %q\n%s", want, out)
		}
	}
}

func TestHistory_ExportJSON(t *testing.T) {
	testEnv(t)
	sess := seedSession(t, "define entropy")
	path := filepath.Join(t.TempDir(), "session.json")

	_, errOut, err := runHistory(t, "export", "1", "--format", "json", "-o", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "Exported "+sess.ShortID()) {
		t.Errorf("stderr = %q", errOut)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded history.Session
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.ID != sess.ID || len(decoded.Messages) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestHistory_ExportMarkdownStdout(t *testing.T) {
	testEnv(t)
	seedSession(t, "define entropy")

	out, _, err := runHistory(t, "export", "@last")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "# define entropy") {
		t.Errorf("output = %q", out)
	}
}

func TestHistory_ExportBadFormat(t *testing.T) {
	testEnv(t)
	seedSession(t, "define entropy")

	if _, _, err := runHistory(t, "export", "@last", "--format", "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestHistory_DeleteAndClear(t *testing.T) {
	testEnv(t)
	first := seedSession(t, "define entropy")
	seedSession(t, "explain superposition")
	seedSession(t, "measure decoherence")

	out, _, err := runHistory(t, "delete", first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Deleted session: "+first.ShortID()) {
		t.Errorf("output = %q", out)
	}
	if _, _, err := runHistory(t, "show", first.ID); err == nil {
		t.Error("deleted session still resolvable")
	}

	out, _, err = runHistory(t, "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Deleted 2 sessions.") {
		t.Errorf("output = %q", out)
	}
}
