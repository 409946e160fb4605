// Package session holds the authentication state of the client: the
// bearer token and the identity behind it. The store is constructed once
// at startup and injected into every consumer.
package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/eddiemuhoro/flowhive/internal/api"
	"github.com/eddiemuhoro/flowhive/internal/state"
)

// Store is the session state container. The session counts as
// authenticated only while both the token and the identity are present.
type Store struct {
	api     *api.Client
	persist *state.Store

	mu        sync.Mutex
	token     string
	user      *api.User
	lastErr   string
	onCleared []func()
}

// NewStore creates the store and seeds the token from persisted state, so
// a restarted process can resume its session via Initialize.
func NewStore(client *api.Client, persist *state.Store) *Store {
	s := &Store{api: client, persist: persist}
	s.token = persist.Token()
	client.SetToken(s.token)
	return s
}

// Authenticated reports whether both token and identity are present.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil
}

// User returns the current identity, or nil.
func (s *Store) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the current bearer token, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsExecutive reports whether the identity holds the executive role.
func (s *Store) IsExecutive() bool {
	u := s.User()
	return u != nil && u.Role == api.RoleExecutive
}

// IsManager reports whether the identity holds the manager role.
// Executives count as managers.
func (s *Store) IsManager() bool {
	u := s.User()
	return u != nil && (u.Role == api.RoleManager || u.Role == api.RoleExecutive)
}

// LastError returns the message of the most recent failed operation.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// OnSessionCleared subscribes to session teardown. Subscribers run after
// the local state is cleared; a panicking subscriber is logged and never
// fails the logout.
func (s *Store) OnSessionCleared(fn func()) {
	s.mu.Lock()
	s.onCleared = append(s.onCleared, fn)
	s.mu.Unlock()
}

// Login exchanges credentials for a token and resolves the identity
// behind it. A rejected login leaves both memory and persisted state
// untouched. If the identity fetch after a successful token exchange
// fails, Login fails but the token it stored is kept; the caller decides
// whether to retry or log out.
func (s *Store) Login(ctx context.Context, creds api.Credentials) error {
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		s.setLastError(err)
		return err
	}

	s.mu.Lock()
	s.token = resp.AccessToken
	s.mu.Unlock()
	s.api.SetToken(resp.AccessToken)
	if err := s.persist.SetToken(resp.AccessToken); err != nil {
		log.Printf("session: failed to persist token: %v", err)
	}

	if err := s.FetchCurrentUser(ctx); err != nil {
		return err
	}
	return nil
}

// Register creates an account and logs straight in with the same
// credentials.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) error {
	if _, err := s.api.Register(ctx, req); err != nil {
		s.setLastError(err)
		return err
	}
	return s.Login(ctx, api.Credentials{Username: req.Username, Password: req.Password})
}

// FetchCurrentUser resolves the identity for the current token.
func (s *Store) FetchCurrentUser(ctx context.Context) error {
	u, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.setLastError(err)
		return err
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return nil
}

// Initialize reconciles session state at startup. With no stored token it
// is a no-op. With a token, it attempts the identity fetch: success makes
// the session authenticated; a 401 means the token is dead and the
// session is logged out; any other failure keeps the token so a transient
// outage does not force re-login. The non-auth failure is returned for
// observability only.
func (s *Store) Initialize(ctx context.Context) error {
	if s.Token() == "" {
		return nil
	}

	err := s.FetchCurrentUser(ctx)
	if err == nil {
		return nil
	}

	var authErr *api.AuthError
	if errors.As(err, &authErr) {
		log.Printf("session: token expired or invalid, logging out")
		s.Logout()
		return nil
	}

	log.Printf("session: identity fetch failed, keeping token: %v", err)
	return err
}

// Logout clears identity and token atomically, then notifies the
// session-cleared subscribers. It always succeeds locally; subscriber and
// persistence failures are logged, never propagated.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	subs := make([]func(), len(s.onCleared))
	copy(subs, s.onCleared)
	s.mu.Unlock()

	s.api.SetToken("")
	if err := s.persist.ClearToken(); err != nil {
		log.Printf("session: failed to clear persisted token: %v", err)
	}

	for _, fn := range subs {
		runCleared(fn)
	}
}

func runCleared(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session: cleared subscriber panicked: %v", r)
		}
	}()
	fn()
}

func (s *Store) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = api.Message(err)
	s.mu.Unlock()
}
