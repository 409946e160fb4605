package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultBaseDelay   = 1 * time.Second
	defaultMaxAttempts = 5
	handshakeTimeout   = 10 * time.Second
	writeTimeout       = 10 * time.Second
)

// Status is the connection lifecycle state.
type Status int

const (
	// StatusClosed means no connection and no retry pending. Reached at
	// start, after Disconnect, and after the retry budget is exhausted.
	StatusClosed Status = iota
	// StatusConnecting means a dial is in flight.
	StatusConnecting
	// StatusOpen means the connection is established.
	StatusOpen
	// StatusReconnecting means a reconnect is scheduled.
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Config tunes the connection manager.
type Config struct {
	// BaseURL is the realtime endpoint root, e.g. "ws://127.0.0.1:8000/api/ws".
	// The workspace path segment is appended per connection.
	BaseURL string
	// BaseDelay is multiplied by the attempt number to produce each
	// reconnect delay.
	BaseDelay time.Duration
	// MaxAttempts bounds consecutive reconnect attempts. Once exhausted the
	// manager stays closed until an explicit Connect.
	MaxAttempts int
}

// DefaultConfig returns production defaults for the given endpoint.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		BaseDelay:   defaultBaseDelay,
		MaxAttempts: defaultMaxAttempts,
	}
}

// Manager owns the realtime connection for the active workspace. It is
// safe for concurrent use. All connection failures are absorbed by the
// backoff policy; nothing here returns errors to callers.
type Manager struct {
	cfg        Config
	dialer     *websocket.Dialer
	dispatcher *Dispatcher

	mu          sync.Mutex
	conn        *websocket.Conn
	status      Status
	attempts    int
	workspaceID int
	retryTimer  *time.Timer
	onStatus    func(Status)

	writeMu sync.Mutex
}

// NewManager creates a manager with no active connection.
func NewManager(cfg Config) *Manager {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Manager{
		cfg:        cfg,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		dispatcher: NewDispatcher(),
	}
}

// On registers a typed subscriber. See Dispatcher.On.
func (m *Manager) On(kind EventKind, h PayloadHandler) { m.dispatcher.On(kind, h) }

// Off removes a typed subscriber.
func (m *Manager) Off(kind EventKind, h PayloadHandler) { m.dispatcher.Off(kind, h) }

// OnAny registers a wildcard subscriber receiving full frames.
func (m *Manager) OnAny(h FrameHandler) { m.dispatcher.OnAny(h) }

// OffAny removes a wildcard subscriber.
func (m *Manager) OffAny(h FrameHandler) { m.dispatcher.OffAny(h) }

// SetStatusListener registers a callback invoked on every status change.
// The callback must not call back into the manager.
func (m *Manager) SetStatusListener(fn func(Status)) {
	m.mu.Lock()
	m.onStatus = fn
	m.mu.Unlock()
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Attempts returns the consecutive reconnect attempt count. It resets to
// zero only when a connection opens successfully.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// WorkspaceID returns the workspace the manager is (or was last) attached to.
func (m *Manager) WorkspaceID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workspaceID
}

// Connect attaches the manager to a workspace. It is a no-op when the
// connection for that workspace is already open or being dialed. Switching
// to a different workspace drops the old socket but keeps subscribers.
//
// Connect never returns an error: dial failures feed the same backoff
// policy as dropped connections. A manual Connect while reconnecting does
// not reset the attempt counter; only a successful open does.
func (m *Manager) Connect(workspaceID int) {
	m.mu.Lock()
	if m.workspaceID == workspaceID && (m.status == StatusOpen || m.status == StatusConnecting) {
		m.mu.Unlock()
		return
	}
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	if m.workspaceID != workspaceID {
		// Fresh logical subscription: drop the old socket and start the
		// attempt budget over.
		if m.conn != nil {
			m.conn.Close()
			m.conn = nil
		}
		m.attempts = 0
		m.workspaceID = workspaceID
	}
	m.setStatusLocked(StatusConnecting)
	m.mu.Unlock()

	m.dial(workspaceID)
}

// Disconnect is a full teardown: it cancels any pending reconnect, closes
// the socket, and clears every subscriber.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.setStatusLocked(StatusClosed)
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.dispatcher.Clear()
}

// Send writes a JSON payload to the backend. Payloads are best-effort:
// when the connection is not open the payload is dropped with a warning.
// Nothing is queued.
func (m *Manager) Send(v interface{}) {
	m.mu.Lock()
	conn := m.conn
	status := m.status
	m.mu.Unlock()

	if status != StatusOpen || conn == nil {
		log.Printf("realtime: send dropped, connection not open (%s)", status)
		return
	}

	m.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteJSON(v)
	m.writeMu.Unlock()
	if err != nil {
		log.Printf("realtime: write failed: %v", err)
	}
}

func (m *Manager) dial(workspaceID int) {
	url := fmt.Sprintf("%s/workspace/%d", m.cfg.BaseURL, workspaceID)
	conn, _, err := m.dialer.Dial(url, nil)

	m.mu.Lock()
	if m.workspaceID != workspaceID || m.status != StatusConnecting {
		// Superseded by a later Connect or Disconnect.
		m.mu.Unlock()
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		log.Printf("realtime: dial %s: %v", url, err)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return
	}
	m.conn = conn
	m.attempts = 0
	m.setStatusLocked(StatusOpen)
	m.mu.Unlock()

	log.Printf("realtime: connected to workspace %d", workspaceID)
	go m.readLoop(conn, workspaceID)
}

// readLoop reads frames until the connection drops, then hands off to the
// reconnect policy. Malformed frames are logged and skipped; they never
// take the connection down.
func (m *Manager) readLoop(conn *websocket.Conn, workspaceID int) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			log.Printf("realtime: failed to parse frame: %v", err)
			continue
		}
		m.dispatcher.Dispatch(f)
	}
	conn.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != conn {
		// Stale loop from a superseded connection.
		return
	}
	m.conn = nil
	log.Printf("realtime: connection to workspace %d closed", workspaceID)
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked implements the linear backoff policy:
// delay = BaseDelay * attempt, attempt incremented before scheduling.
// After MaxAttempts the manager goes permanently closed until an explicit
// Connect call.
func (m *Manager) scheduleReconnectLocked() {
	if m.attempts >= m.cfg.MaxAttempts {
		m.setStatusLocked(StatusClosed)
		log.Printf("realtime: max reconnection attempts reached")
		return
	}
	m.attempts++
	delay := backoffDelay(m.cfg.BaseDelay, m.attempts)
	m.setStatusLocked(StatusReconnecting)
	log.Printf("realtime: reconnecting in %v (attempt %d/%d)", delay, m.attempts, m.cfg.MaxAttempts)

	workspaceID := m.workspaceID
	m.retryTimer = time.AfterFunc(delay, func() { m.retry(workspaceID) })
}

func (m *Manager) retry(workspaceID int) {
	m.mu.Lock()
	if m.status != StatusReconnecting || m.workspaceID != workspaceID {
		m.mu.Unlock()
		return
	}
	m.retryTimer = nil
	m.setStatusLocked(StatusConnecting)
	m.mu.Unlock()

	m.dial(workspaceID)
}

// backoffDelay is the linear reconnect schedule: base, 2*base, 3*base, ...
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}

func (m *Manager) setStatusLocked(s Status) {
	if m.status == s {
		return
	}
	m.status = s
	if m.onStatus != nil {
		m.onStatus(s)
	}
}
