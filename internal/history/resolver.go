package history

import (
	"fmt"
	"strconv"
	"strings"
)

// minPrefix is the shortest ID prefix accepted as a reference
const minPrefix = 4

// Resolver resolves user-friendly references to session IDs
type Resolver struct {
	store *Store
}

// NewResolver creates a new reference resolver
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve converts a reference to a session ID.
//
// Supported references:
//   - "@last" - most recently updated session
//   - "@first" - oldest session
//   - "1", "2", "3" - by index (1-based, most recent first)
//   - a full session ID or a unique prefix of at least 4 characters
//   - "substring" - match on title (error if ambiguous)
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	sessions, err := r.store.ListSessions()
	if err != nil {
		return "", fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no sessions found")
	}

	switch strings.ToLower(ref) {
	case "@last":
		return sessions[0].ID, nil
	case "@first":
		return sessions[len(sessions)-1].ID, nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if index < 1 || index > len(sessions) {
			return "", fmt.Errorf("index %d out of range (1-%d)", index, len(sessions))
		}
		return sessions[index-1].ID, nil
	}

	var byID []*Session
	for _, sess := range sessions {
		if sess.ID == ref {
			return sess.ID, nil
		}
		if len(ref) >= minPrefix && strings.HasPrefix(sess.ID, strings.ToLower(ref)) {
			byID = append(byID, sess)
		}
	}
	if len(byID) == 1 {
		return byID[0].ID, nil
	}
	if len(byID) > 1 {
		return "", fmt.Errorf("ambiguous id prefix '%s' matches %d sessions", ref, len(byID))
	}

	refLower := strings.ToLower(ref)
	var matches []*Session
	for _, sess := range sessions {
		if strings.Contains(strings.ToLower(sess.Title), refLower) {
			matches = append(matches, sess)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: no session matching '%s'", ErrNotFound, ref)
	case 1:
		return matches[0].ID, nil
	default:
		titles := make([]string, len(matches))
		for i, m := range matches {
			titles[i] = fmt.Sprintf("'%s'", m.Title)
		}
		return "", fmt.Errorf("multiple sessions match '%s': %s. Use the ID or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// ResolveSession resolves a reference and loads the session
func (r *Resolver) ResolveSession(ref string) (*Session, error) {
	id, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return r.store.GetSession(id)
}

// ListAliases describes the supported references
func ListAliases() string {
	return `Supported references:
  @last          Most recently updated session
  @first         Oldest session
  1, 2, 3        By index (1-based, from most recent)
  0196c3a1       Session ID or unique ID prefix
  "text"         Search by title substring`
}
