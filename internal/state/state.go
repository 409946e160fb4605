// Package state persists the small amount of client state that must
// survive process restarts: the bearer token and the last-active
// workspace id. It is stored as a single JSON file under the XDG state
// directory and written atomically.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	stateFileName = "state.json"
	appDirName    = "flowhive"
)

type data struct {
	AccessToken string `json:"accessToken,omitempty"`
	WorkspaceID int    `json:"workspaceId,omitempty"`
}

// Store reads and writes the client state file.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a Store rooted at the given directory. Pass an empty
// string to use the default XDG state path. The directory is created on
// the first write.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = defaultStateDir()
	}
	return &Store{dir: dir}
}

// Path returns the full path to the state file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Token returns the persisted bearer token, or "" if none is stored.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.load()
	if err != nil {
		return ""
	}
	return d.AccessToken
}

// SetToken persists the bearer token.
func (s *Store) SetToken(token string) error {
	return s.update(func(d *data) { d.AccessToken = token })
}

// ClearToken removes the persisted bearer token.
func (s *Store) ClearToken() error {
	return s.update(func(d *data) { d.AccessToken = "" })
}

// WorkspaceID returns the persisted last-active workspace id. The second
// return is false when no id is stored.
func (s *Store) WorkspaceID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.load()
	if err != nil || d.WorkspaceID == 0 {
		return 0, false
	}
	return d.WorkspaceID, true
}

// SetWorkspaceID persists the last-active workspace id.
func (s *Store) SetWorkspaceID(id int) error {
	return s.update(func(d *data) { d.WorkspaceID = id })
}

// ClearWorkspaceID removes the persisted workspace id.
func (s *Store) ClearWorkspaceID() error {
	return s.update(func(d *data) { d.WorkspaceID = 0 })
}

func (s *Store) update(mutate func(*data)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.load()
	if err != nil {
		return err
	}
	mutate(d)
	return s.save(d)
}

// load reads the state file. A missing file yields zero-value state.
func (s *Store) load() (*data, error) {
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &data{}, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}
	var d data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return &d, nil
}

// save writes the state file using an atomic temp-file-then-rename.
func (s *Store) save(d *data) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(s.dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming state file: %w", err)
	}
	committed = true
	return nil
}

// defaultStateDir resolves $XDG_STATE_HOME/flowhive, falling back to
// ~/.local/state/flowhive.
func defaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
