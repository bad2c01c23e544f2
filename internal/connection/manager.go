package connection

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/musicctl/internal/shared"
)

// State is the lifecycle state of the managed connection.
type State int

const (
	Disconnected State = iota
	Open
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	default:
		return "disconnected"
	}
}

// writeWait bounds the close frame written on Disconnect.
const writeWait = 5 * time.Second

// Conn is the part of [websocket.Conn] the manager uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Dialer opens a [Conn] to a websocket target.
type Dialer interface {
	Dial(ctx context.Context, target string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns a [Dialer] with the given handshake timeout.
func NewWebsocketDialer(handshakeTimeout time.Duration) *WebsocketDialer {
	d := *websocket.DefaultDialer
	d.HandshakeTimeout = handshakeTimeout
	return &WebsocketDialer{dialer: &d}
}

func (d *WebsocketDialer) Dial(ctx context.Context, target string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ManagerOpts contains configuration options for creating a Manager.
type ManagerOpts struct {
	Target *url.URL
	Dialer Dialer
	Logger *log.Logger
}

// Manager owns at most one live connection.
//
// The connection handle never leaves the manager; callers write through [Manager.Send].
type Manager struct {
	target string
	dialer Dialer
	logger *log.Logger

	dialMu  sync.Mutex // serializes Connect
	mu      sync.Mutex // guards conn, gen, reading and writes
	conn    Conn
	gen     uint64
	reading chan struct{} // closed when the latest read goroutine returns

	subMu     sync.RWMutex
	onOpen    []func()
	onMessage []func([]byte)
	onClose   []func(error)
}

// NewManager creates a disconnected Manager.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Dialer == nil {
		opts.Dialer = NewWebsocketDialer(10 * time.Second)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		target: opts.Target.String(),
		dialer: opts.Dialer,
		logger: shared.WithLogger(opts.Logger, "component", "connection"),
	}
}

// Target returns the websocket address the manager dials.
func (m *Manager) Target() string {
	return m.target
}

// OnOpen registers fn to run after each successful connect.
func (m *Manager) OnOpen(fn func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.onOpen = append(m.onOpen, fn)
}

// OnMessage registers fn to receive every inbound text frame.
func (m *Manager) OnMessage(fn func([]byte)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.onMessage = append(m.onMessage, fn)
}

// OnClose registers fn to run when a connection ends or fails to open.
//
// The error is nil when the close was requested with [Manager.Disconnect] or [Manager.Connect].
func (m *Manager) OnClose(fn func(error)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.onClose = append(m.onClose, fn)
}

// State reports whether a connection is currently held.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return Disconnected
	}
	return Open
}

// Connect drops any held connection and dials a new one.
//
// The previous connection's close event is delivered before the new open event. A failed dial is
// reported to close subscribers and returned. Connect must not be called from a subscriber.
func (m *Manager) Connect(ctx context.Context) error {
	m.dialMu.Lock()
	defer m.dialMu.Unlock()

	m.Disconnect()
	m.waitReader()

	m.logger.Debug("dialing", "target", m.target)
	conn, err := m.dialer.Dial(ctx, m.target)
	if err != nil {
		err = fmt.Errorf("%w: %v", shared.ErrDialFailed, err)
		m.logger.Warn("connection failed", "target", m.target, "err", err)
		m.emitClose(err)
		return err
	}

	done := make(chan struct{})
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.conn = conn
	m.reading = done
	m.mu.Unlock()

	m.logger.Info("connected", "target", m.target)
	m.emitOpen()

	go m.read(gen, conn, done)

	return nil
}

// Disconnect closes the held connection, if any.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		m.logger.Debug("close frame failed", "err", err)
	}
	if err := conn.Close(); err != nil {
		m.logger.Debug("close failed", "err", err)
	}
}

// Send writes one text frame on the held connection.
func (m *Manager) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return shared.ErrNotConnected
	}
	if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}

// Shutdown disconnects and waits for the read goroutine to finish delivering events.
func (m *Manager) Shutdown() {
	m.Disconnect()
	m.waitReader()
}

func (m *Manager) waitReader() {
	m.mu.Lock()
	done := m.reading
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (m *Manager) read(gen uint64, conn Conn, done chan struct{}) {
	defer close(done)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			m.closed(gen, conn, err)
			return
		}
		if kind != websocket.TextMessage {
			m.logger.Debug("skipping non-text frame", "type", kind)
			continue
		}
		m.emitMessage(data)
	}
}

// closed clears the reference only if it still points at conn, so a late close of an old
// connection never clears its replacement.
func (m *Manager) closed(gen uint64, conn Conn, cause error) {
	m.mu.Lock()
	remote := m.gen == gen && m.conn == conn
	if remote {
		m.conn = nil
	}
	m.mu.Unlock()

	if !remote {
		m.logger.Info("disconnected")
		m.emitClose(nil)
		return
	}

	_ = conn.Close()
	if websocket.IsCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		m.logger.Info("disconnected by server")
	} else {
		m.logger.Warn("connection lost", "err", cause)
	}
	m.emitClose(errors.Join(shared.ErrConnectionClosed, cause))
}

func (m *Manager) emitOpen() {
	m.subMu.RLock()
	subs := append([]func(){}, m.onOpen...)
	m.subMu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

func (m *Manager) emitMessage(data []byte) {
	m.subMu.RLock()
	subs := append([]func([]byte){}, m.onMessage...)
	m.subMu.RUnlock()
	for _, fn := range subs {
		fn(data)
	}
}

func (m *Manager) emitClose(err error) {
	m.subMu.RLock()
	subs := append([]func(error){}, m.onClose...)
	m.subMu.RUnlock()
	for _, fn := range subs {
		fn(err)
	}
}
