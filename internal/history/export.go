package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/diogo/qsemantic/internal/models"
)

// ExportFormat represents the format for exporting sessions
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ParseExportFormat accepts "markdown", "md" or "json"
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (use markdown or json)", s)
	}
}

// Export renders a session in the given format
func Export(sess *Session, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON:
		return json.MarshalIndent(sess, "", "  ")
	case ExportFormatMarkdown:
		return []byte(ToMarkdown(sess)), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// ToMarkdown renders a session as Markdown. Assistant messages are
// followed by their metrics snapshot.
func ToMarkdown(sess *Session) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", sess.Title)
	fmt.Fprintf(&sb, "**Session:** `%s`\n", sess.ID)
	fmt.Fprintf(&sb, "**Model:** %s\n", sess.Model)
	fmt.Fprintf(&sb, "**Created:** %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Messages:** %d\n\n---\n\n", len(sess.Messages))

	for i, msg := range sess.Messages {
		sb.WriteString("## ")
		sb.WriteString(msg.Label())
		if !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, " (%s)", msg.Timestamp.Format("15:04"))
		}
		sb.WriteString("\n\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n")

		if msg.Stats != nil {
			sb.WriteString("\n")
			sb.WriteString(StatsTable(msg.Stats))
		}

		if i < len(sess.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// StatsTable renders a metrics snapshot as a Markdown table
func StatsTable(s *models.Stats) string {
	var sb strings.Builder
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Entanglement | %.1f%% |\n", s.Entanglement*100)
	fmt.Fprintf(&sb, "| Entropy | %.2f |\n", s.Entropy)
	fmt.Fprintf(&sb, "| Superposition | %.1f%% |\n", s.Superposition*100)

	qubits := make([]string, len(s.QubitStates))
	for i, q := range s.QubitStates {
		qubits[i] = fmt.Sprintf("%.2f", q)
	}
	fmt.Fprintf(&sb, "| Qubit states | %s |\n", strings.Join(qubits, " "))
	v := s.SemanticVector
	fmt.Fprintf(&sb, "| Semantic vector | (%.2f, %.2f, %.2f) |\n", v.X, v.Y, v.Z)
	return sb.String()
}

// FormatRelativeTime formats t relative to now, e.g. "2h ago" or "yesterday"
func FormatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
