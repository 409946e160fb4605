// Package workspace holds the active workspace context: which workspace
// the client is working in, its detail record, and the persisted
// last-active id restored across restarts.
package workspace

import (
	"context"
	"log"
	"sync"

	"github.com/eddiemuhoro/flowhive/internal/api"
	"github.com/eddiemuhoro/flowhive/internal/state"
)

// Store is the workspace context container. The active detail always
// matches the active id; both are set and cleared together.
type Store struct {
	api     *api.Client
	persist *state.Store

	mu         sync.Mutex
	workspaces []api.Workspace
	current    *api.WorkspaceDetail
	lastErr    string
}

// NewStore creates an empty store.
func NewStore(client *api.Client, persist *state.Store) *Store {
	return &Store{api: client, persist: persist}
}

// Current returns the active workspace detail, or nil.
func (s *Store) Current() *api.WorkspaceDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	w := *s.current
	return &w
}

// ActiveID returns the active workspace id. The second return is false
// when no workspace is active.
func (s *Store) ActiveID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0, false
	}
	return s.current.ID, true
}

// Workspaces returns the last fetched workspace list, in backend order.
func (s *Store) Workspaces() []api.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Workspace, len(s.workspaces))
	copy(out, s.workspaces)
	return out
}

// LastError returns the message of the most recent failed operation.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// FetchWorkspaces loads the workspace list.
func (s *Store) FetchWorkspaces(ctx context.Context) ([]api.Workspace, error) {
	list, err := s.api.Workspaces(ctx)
	if err != nil {
		s.setLastError(err)
		return nil, err
	}
	s.mu.Lock()
	s.workspaces = list
	s.mu.Unlock()
	return list, nil
}

// FetchWorkspace loads one workspace and makes it active. Every success
// persists the id as the last-active workspace, whether it was reached by
// restore, auto-select, or an explicit switch.
func (s *Store) FetchWorkspace(ctx context.Context, id int) error {
	detail, err := s.api.Workspace(ctx, id)
	if err != nil {
		s.setLastError(err)
		return err
	}
	s.mu.Lock()
	s.current = detail
	s.mu.Unlock()
	if err := s.persist.SetWorkspaceID(id); err != nil {
		log.Printf("workspace: failed to persist workspace id: %v", err)
	}
	return nil
}

// RestoreOrSelect resolves the active workspace at bootstrap. A persisted
// id is tried first; if the backend rejects it, the id is discarded and
// the first workspace of a fresh list fetch is selected instead. Returns
// whether a workspace ended up active.
//
// The method is not re-entrant safe. It is called exactly once per
// bootstrap pass, under the navigation guard's latch.
func (s *Store) RestoreOrSelect(ctx context.Context) bool {
	if id, ok := s.persist.WorkspaceID(); ok && s.Current() == nil {
		if err := s.FetchWorkspace(ctx, id); err == nil {
			return true
		}
		log.Printf("workspace: failed to restore workspace %d, discarding", id)
		if err := s.persist.ClearWorkspaceID(); err != nil {
			log.Printf("workspace: failed to clear persisted workspace id: %v", err)
		}
	}

	if s.Current() == nil {
		list, err := s.FetchWorkspaces(ctx)
		if err != nil {
			log.Printf("workspace: failed to auto-select workspace: %v", err)
			return false
		}
		if len(list) > 0 {
			if err := s.FetchWorkspace(ctx, list[0].ID); err != nil {
				log.Printf("workspace: failed to auto-select workspace: %v", err)
				return false
			}
			return true
		}
	}

	return s.Current() != nil
}

// ClearWorkspace drops the active workspace and its persisted id.
// Idempotent; called on logout via the session-cleared subscription.
func (s *Store) ClearWorkspace() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := s.persist.ClearWorkspaceID(); err != nil {
		log.Printf("workspace: failed to clear persisted workspace id: %v", err)
	}
}

func (s *Store) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = api.Message(err)
	s.mu.Unlock()
}
