package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsServer is a test backend accepting workspace connections.
type wsServer struct {
	srv   *httptest.Server
	url   string // ws:// base, workspace path appended by the manager
	dials atomic.Int64

	mu    sync.Mutex
	conns []*websocket.Conn
	paths []string
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{}
	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.dials.Add(1)
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.paths = append(s.paths, r.URL.Path)
		s.mu.Unlock()
		// Keep the connection open; tests close it explicitly.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	s.url = "ws" + strings.TrimPrefix(s.srv.URL, "http")
	return s
}

func (s *wsServer) lastConn() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		return nil
	}
	return s.conns[len(s.conns)-1]
}

func (s *wsServer) lastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.paths) == 0 {
		return ""
	}
	return s.paths[len(s.paths)-1]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func testManager(s *wsServer, base time.Duration, maxAttempts int) *Manager {
	return NewManager(Config{BaseURL: s.url, BaseDelay: base, MaxAttempts: maxAttempts})
}

func TestConnectOpensWorkspaceScopedSocket(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 10*time.Millisecond, 5)
	defer m.Disconnect()

	m.Connect(42)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })

	assert.Equal(t, "/workspace/42", s.lastPath())
	assert.Equal(t, 42, m.WorkspaceID())
	assert.Equal(t, 0, m.Attempts())
}

func TestConnectIdempotentWhileOpen(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 10*time.Millisecond, 5)
	defer m.Disconnect()

	m.Connect(7)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })

	m.Connect(7)
	m.Connect(7)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int64(1), s.dials.Load(), "repeat Connect while open must not dial again")
}

func TestInboundFramesDispatched(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 10*time.Millisecond, 5)
	defer m.Disconnect()

	var mu sync.Mutex
	var payloads []string
	m.On(EventTaskCreated, func(data json.RawMessage) {
		mu.Lock()
		payloads = append(payloads, string(data))
		mu.Unlock()
	})

	m.Connect(3)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })

	conn := s.lastConn()
	require.NotNil(t, conn)

	// A malformed frame must be skipped without dropping the connection.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json{{")))
	require.NoError(t, conn.WriteJSON(Frame{
		Type: EventTaskCreated,
		Data: json.RawMessage(`{"title":"Fix bug"}`),
	}))

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(payloads) == 1
	})
	mu.Lock()
	assert.JSONEq(t, `{"title":"Fix bug"}`, payloads[0])
	mu.Unlock()
	assert.Equal(t, StatusOpen, m.Status())
}

func TestSendDroppedWhenNotOpen(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 10*time.Millisecond, 5)

	// Never connected; must not panic and must not queue.
	m.Send(map[string]string{"type": "ping"})
	assert.Equal(t, StatusClosed, m.Status())
	assert.Equal(t, int64(0), s.dials.Load())
}

func TestReconnectAfterServerDrop(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 10*time.Millisecond, 5)
	defer m.Disconnect()

	m.Connect(9)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })

	s.lastConn().Close()
	waitFor(t, 2*time.Second, func() bool { return s.dials.Load() >= 2 && m.Status() == StatusOpen })

	assert.Equal(t, 0, m.Attempts(), "successful reopen must reset the attempt counter")
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 80*time.Millisecond, 5)

	m.Connect(5)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })

	s.lastConn().Close()
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusReconnecting })

	m.Disconnect()
	assert.Equal(t, StatusClosed, m.Status())

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int64(1), s.dials.Load(), "a stale reconnect must not fire after teardown")
	assert.Equal(t, StatusClosed, m.Status())
}

func TestDisconnectClearsSubscribers(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 10*time.Millisecond, 5)

	var calls atomic.Int64
	m.On(EventTaskUpdated, func(json.RawMessage) { calls.Add(1) })

	m.Connect(4)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })
	m.Disconnect()

	// A fresh connection without re-registration delivers nothing.
	m.Connect(4)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })
	defer m.Disconnect()

	require.NoError(t, s.lastConn().WriteJSON(Frame{Type: EventTaskUpdated}))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(0), calls.Load())
}

func TestRetriesExhaustedGoPermanentlyClosed(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 5*time.Millisecond, 3)

	m.Connect(2)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })

	// Take the backend away entirely so every retry fails.
	s.srv.CloseClientConnections()
	s.srv.Close()

	waitFor(t, 3*time.Second, func() bool { return m.Status() == StatusClosed })
	assert.Equal(t, 3, m.Attempts())

	// No further retries once closed.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, StatusClosed, m.Status())
}

func TestWorkspaceSwitchDropsOldSocket(t *testing.T) {
	s := newWSServer(t)
	m := testManager(s, 10*time.Millisecond, 5)
	defer m.Disconnect()

	var calls atomic.Int64
	m.On(EventTaskCreated, func(json.RawMessage) { calls.Add(1) })

	m.Connect(1)
	waitFor(t, 2*time.Second, func() bool { return m.Status() == StatusOpen })

	m.Connect(2)
	waitFor(t, 2*time.Second, func() bool {
		return m.Status() == StatusOpen && s.lastPath() == "/workspace/2"
	})
	assert.Equal(t, 2, m.WorkspaceID())

	// Subscribers survive a workspace switch; only Disconnect clears them.
	require.NoError(t, s.lastConn().WriteJSON(Frame{Type: EventTaskCreated}))
	waitFor(t, 2*time.Second, func() bool { return calls.Load() == 1 })
}

func TestBackoffScheduleExact(t *testing.T) {
	base := 1000 * time.Millisecond
	want := []time.Duration{1000, 2000, 3000, 4000, 5000}
	for i, w := range want {
		got := backoffDelay(base, i+1)
		if got != w*time.Millisecond {
			t.Errorf("backoffDelay(base, %d) = %v, want %v", i+1, got, w*time.Millisecond)
		}
	}
}

func TestBackoffScheduleLinearProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("delay grows by exactly base per attempt", prop.ForAll(
		func(baseMs int, attempt int) bool {
			base := time.Duration(baseMs) * time.Millisecond
			return backoffDelay(base, attempt+1)-backoffDelay(base, attempt) == base
		},
		gen.IntRange(1, 10_000),
		gen.IntRange(1, 100),
	))

	properties.Property("delay is attempt multiples of base", prop.ForAll(
		func(baseMs int, attempt int) bool {
			base := time.Duration(baseMs) * time.Millisecond
			return backoffDelay(base, attempt) == time.Duration(attempt)*base
		},
		gen.IntRange(1, 10_000),
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}
