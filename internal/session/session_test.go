package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiemuhoro/flowhive/internal/api"
	"github.com/eddiemuhoro/flowhive/internal/state"
)

// backend is a minimal fake auth backend.
type backend struct {
	srv *httptest.Server

	loginHits atomic.Int64
	meHits    atomic.Int64

	validToken string
	user       api.User
	// meStatus, when non-zero, overrides /auth/me with a fixed status.
	meStatus atomic.Int64
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		validToken: "tok-valid",
		user: api.User{
			ID:       1,
			Username: "amina",
			Email:    "amina@example.com",
			Role:     api.RoleManager,
			IsActive: true,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.loginHits.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostFormValue("username") != "amina" || r.PostFormValue("password") != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect username or password"})
			return
		}
		json.NewEncoder(w).Encode(api.AuthResponse{AccessToken: b.validToken, TokenType: "bearer"})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.meHits.Add(1)
		if status := b.meStatus.Load(); status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(int(status))
			json.NewEncoder(w).Encode(map[string]string{"detail": "forced failure"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+b.validToken {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
			return
		}
		json.NewEncoder(w).Encode(b.user)
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func newTestStore(t *testing.T, b *backend) (*Store, *state.Store) {
	t.Helper()
	persist := state.NewStore(t.TempDir())
	client := api.New(b.srv.URL, 2*time.Second)
	return NewStore(client, persist), persist
}

func TestLoginSuccess(t *testing.T) {
	b := newBackend(t)
	s, persist := newTestStore(t, b)

	err := s.Login(context.Background(), api.Credentials{Username: "amina", Password: "s3cret"})
	require.NoError(t, err)

	assert.True(t, s.Authenticated())
	assert.Equal(t, "tok-valid", persist.Token(), "token must be persisted")
	require.NotNil(t, s.User())
	assert.Equal(t, "amina", s.User().Username)
	assert.True(t, s.IsManager())
	assert.False(t, s.IsExecutive())
}

func TestLoginInvalidCredentialsLeavesStorageUntouched(t *testing.T) {
	b := newBackend(t)
	s, persist := newTestStore(t, b)

	err := s.Login(context.Background(), api.Credentials{Username: "amina", Password: "wrong"})
	require.Error(t, err)

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Incorrect username or password", authErr.Message)

	assert.False(t, s.Authenticated())
	assert.Empty(t, persist.Token(), "rejected login must not persist anything")
	assert.Equal(t, "Incorrect username or password", s.LastError())
}

func TestInitializeWithoutTokenIsNoop(t *testing.T) {
	b := newBackend(t)
	s, _ := newTestStore(t, b)

	require.NoError(t, s.Initialize(context.Background()))
	assert.False(t, s.Authenticated())
	assert.Equal(t, int64(0), b.meHits.Load(), "no token means no identity fetch")
}

func TestInitializeResumesPersistedSession(t *testing.T) {
	b := newBackend(t)
	persist := state.NewStore(t.TempDir())
	require.NoError(t, persist.SetToken("tok-valid"))

	client := api.New(b.srv.URL, 2*time.Second)
	s := NewStore(client, persist)

	require.NoError(t, s.Initialize(context.Background()))
	assert.True(t, s.Authenticated())
	assert.Equal(t, "amina", s.User().Username)
}

func TestInitializeDeadTokenLogsOutAndCascades(t *testing.T) {
	b := newBackend(t)
	persist := state.NewStore(t.TempDir())
	require.NoError(t, persist.SetToken("tok-stale"))
	require.NoError(t, persist.SetWorkspaceID(9))

	client := api.New(b.srv.URL, 2*time.Second)
	s := NewStore(client, persist)

	cascaded := false
	s.OnSessionCleared(func() {
		cascaded = true
		persist.ClearWorkspaceID()
	})

	require.NoError(t, s.Initialize(context.Background()))

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Empty(t, persist.Token())
	assert.True(t, cascaded)
	_, ok := persist.WorkspaceID()
	assert.False(t, ok, "cascade must clear the persisted workspace key")
}

func TestInitializeTransientFailureKeepsToken(t *testing.T) {
	b := newBackend(t)
	b.meStatus.Store(http.StatusInternalServerError)

	persist := state.NewStore(t.TempDir())
	require.NoError(t, persist.SetToken("tok-valid"))

	client := api.New(b.srv.URL, 2*time.Second)
	s := NewStore(client, persist)

	err := s.Initialize(context.Background())
	require.Error(t, err)

	var netErr *api.TransientNetworkError
	assert.ErrorAs(t, err, &netErr)

	assert.False(t, s.Authenticated(), "identity unresolved")
	assert.Equal(t, "tok-valid", s.Token(), "token survives a transient failure")
	assert.Equal(t, "tok-valid", persist.Token())

	// Backend recovers; the next initialize succeeds with the same token.
	b.meStatus.Store(0)
	require.NoError(t, s.Initialize(context.Background()))
	assert.True(t, s.Authenticated())
}

func TestLogoutClearsEverything(t *testing.T) {
	b := newBackend(t)
	s, persist := newTestStore(t, b)

	require.NoError(t, s.Login(context.Background(), api.Credentials{Username: "amina", Password: "s3cret"}))
	require.True(t, s.Authenticated())

	cleared := 0
	s.OnSessionCleared(func() { cleared++ })

	s.Logout()

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
	assert.Empty(t, persist.Token())
	assert.Equal(t, 1, cleared)

	// Idempotent.
	s.Logout()
	assert.False(t, s.Authenticated())
}

func TestLogoutSurvivesPanickingSubscriber(t *testing.T) {
	b := newBackend(t)
	s, persist := newTestStore(t, b)

	require.NoError(t, s.Login(context.Background(), api.Credentials{Username: "amina", Password: "s3cret"}))

	ran := false
	s.OnSessionCleared(func() { panic("workspace store unavailable") })
	s.OnSessionCleared(func() { ran = true })

	s.Logout()

	assert.False(t, s.Authenticated())
	assert.Empty(t, persist.Token())
	assert.True(t, ran, "subscribers after the panicking one must still run")
}

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role      api.Role
		manager   bool
		executive bool
	}{
		{api.RoleTeamMember, false, false},
		{api.RoleManager, true, false},
		{api.RoleExecutive, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			b := newBackend(t)
			b.user.Role = tt.role
			s, _ := newTestStore(t, b)

			require.NoError(t, s.Login(context.Background(), api.Credentials{Username: "amina", Password: "s3cret"}))
			assert.Equal(t, tt.manager, s.IsManager())
			assert.Equal(t, tt.executive, s.IsExecutive())
		})
	}
}
