// Package session persists the board user's API key and display
// preferences between runs.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileName is the session file inside the taskboard config directory.
const FileName = "session.yaml"

// Theme is the board color scheme.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("invalid theme %q: must be one of: light, dark", s)
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// state is the on-disk layout.
type state struct {
	APIKey string `yaml:"api_key,omitempty"`
	Theme  Theme  `yaml:"theme,omitempty"`
}

// Session is the process-wide session state. It is read once at startup
// by Open and written back on every change.
type Session struct {
	path string

	mu    sync.RWMutex
	state state
}

// DefaultPath returns the session file under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "taskboard", FileName), nil
}

// Open loads the session stored at path. A missing file yields an empty,
// logged-out session.
func Open(path string) (*Session, error) {
	s := &Session{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.state.Theme = ThemeLight
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	if _, err := ParseTheme(string(s.state.Theme)); err != nil {
		s.state.Theme = ThemeLight
	}
	return s, nil
}

// Path returns the session file location.
func (s *Session) Path() string {
	return s.path
}

// APIKey returns the stored key, or "" when logged out.
func (s *Session) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.APIKey
}

// LoggedIn reports whether an API key is stored.
func (s *Session) LoggedIn() bool {
	return s.APIKey() != ""
}

// Theme returns the preferred theme.
func (s *Session) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Theme
}

// Login stores key.
func (s *Session) Login(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key must not be empty")
	}
	return s.update(func(st *state) { st.APIKey = key })
}

// Logout clears the stored key and keeps the other preferences.
func (s *Session) Logout() error {
	return s.update(func(st *state) { st.APIKey = "" })
}

// SetTheme stores the preferred theme.
func (s *Session) SetTheme(t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	return s.update(func(st *state) { st.Theme = t })
}

func (s *Session) update(fn func(*state)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	fn(&next)
	if err := s.write(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

// write replaces the session file atomically. The file holds a secret, so
// it is readable by the owner only.
func (s *Session) write(st state) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
