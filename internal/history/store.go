// Package history persists chat sessions as JSON files, one per session.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/diogo/qsemantic/internal/config"
	"github.com/diogo/qsemantic/internal/models"
)

// ErrNotFound is returned when a session does not exist
var ErrNotFound = errors.New("session not found")

const titleMaxRunes = 50

// Session is a stored conversation
type Session struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Model     string               `json:"model"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Messages  []models.ChatMessage `json:"messages"`
}

// ShortID returns the first block of the session ID
func (s *Session) ShortID() string {
	if i := strings.IndexByte(s.ID, '-'); i > 0 {
		return s.ID[:i]
	}
	return s.ID
}

// Store manages session persistence
type Store struct {
	baseDir string
	mu      sync.RWMutex
	now     func() time.Time
}

// NewStore creates a store under baseDir/history
func NewStore(baseDir string) (*Store, error) {
	historyDir := filepath.Join(baseDir, "history")
	if err := os.MkdirAll(historyDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &Store{
		baseDir: historyDir,
		now:     time.Now,
	}, nil
}

// DefaultStore creates a store in the configuration directory
func DefaultStore() (*Store, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir)
}

// Dir returns the directory holding the session files
func (s *Store) Dir() string {
	return s.baseDir
}

// CreateSession creates and persists an empty session
func (s *Store) CreateSession(model string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := s.now()
	sess := &Session{
		ID:        id.String(),
		Title:     fmt.Sprintf("Session %s", now.Format("2006-01-02 15:04")),
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []models.ChatMessage{},
	}

	if err := s.save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession loads a session by ID
func (s *Store) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load(id)
}

// ListSessions returns all sessions, most recently updated first.
// Unreadable files are skipped.
func (s *Store) ListSessions() ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		sess, err := s.load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// AppendMessage adds msg to the session. The first user message becomes
// the session title.
func (s *Store) AppendMessage(id string, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id)
	if err != nil {
		return err
	}

	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = s.now()
	if msg.Role == models.RoleUser && len(sess.Messages) == 1 {
		sess.Title = makeTitle(msg.Text)
	}

	return s.save(sess)
}

// DeleteSession removes a session
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ClearAll deletes every session and returns how many were removed
func (s *Store) ClearAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read history directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *Store) load(id string) (*Session, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *Store) save(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path(sess.ID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func makeTitle(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(title) <= titleMaxRunes {
		return title
	}
	return string([]rune(title)[:titleMaxRunes]) + "..."
}
