// Package testing contains shared testing utilities.
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/desertthunder/musicctl/internal/connection"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/widget"
)

var errClosed = errors.New("use of closed connection")

type frame struct {
	kind int
	data []byte
	err  error
}

// FakeConn is an in-memory [connection.Conn]. Frames pushed by the test are read in order.
type FakeConn struct {
	inbound chan frame
	done    chan struct{}
	once    sync.Once

	mu       sync.Mutex
	written  [][]byte
	controls []ControlFrame
	stall    chan struct{}
	closed   bool
}

// ControlFrame is a control frame written through WriteControl.
type ControlFrame struct {
	Kind     int
	Data     []byte
	Deadline time.Time
}

var _ connection.Conn = (*FakeConn)(nil)

func NewFakeConn() *FakeConn {
	return &FakeConn{inbound: make(chan frame, 64), done: make(chan struct{})}
}

// Push queues a text frame from the server.
func (c *FakeConn) Push(data string) {
	c.inbound <- frame{kind: websocket.TextMessage, data: []byte(data)}
}

// PushBinary queues a binary frame from the server.
func (c *FakeConn) PushBinary(data []byte) {
	c.inbound <- frame{kind: websocket.BinaryMessage, data: data}
}

// Hangup makes the next read fail with err, as if the server went away.
func (c *FakeConn) Hangup(err error) {
	c.inbound <- frame{err: err}
}

func (c *FakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.inbound:
		return f.kind, f.data, f.err
	case <-c.done:
		return 0, nil, errClosed
	}
}

// WriteMessage records text frames; other kinds are accepted and dropped.
func (c *FakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	if kind == websocket.TextMessage {
		c.written = append(c.written, append([]byte(nil), data...))
	}
	return nil
}

// WriteControl records control frames. A stalled connection blocks here until released.
func (c *FakeConn) WriteControl(kind int, data []byte, deadline time.Time) error {
	c.mu.Lock()
	stall := c.stall
	c.mu.Unlock()
	if stall != nil {
		<-stall
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	c.controls = append(c.controls, ControlFrame{Kind: kind, Data: append([]byte(nil), data...), Deadline: deadline})
	return nil
}

// Stall makes control writes block until release is called, like a peer that stopped reading.
func (c *FakeConn) Stall() (release func()) {
	ch := make(chan struct{})
	c.mu.Lock()
	c.stall = ch
	c.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Controls returns the control frames sent so far.
func (c *FakeConn) Controls() []ControlFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ControlFrame(nil), c.controls...)
}

func (c *FakeConn) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}

// Written returns the text frames sent so far.
func (c *FakeConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	for i, w := range c.written {
		out[i] = string(w)
	}
	return out
}

// Closed reports whether Close was called.
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FakeDialer hands out a fresh [FakeConn] per dial, or fails with Err.
type FakeDialer struct {
	Err error

	mu      sync.Mutex
	conns   []*FakeConn
	targets []string
}

var _ connection.Dialer = (*FakeDialer)(nil)

func (d *FakeDialer) Dial(ctx context.Context, target string) (connection.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.targets = append(d.targets, target)
	if d.Err != nil {
		return nil, d.Err
	}
	conn := NewFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

// Conns returns every connection handed out, oldest first.
func (d *FakeDialer) Conns() []*FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeConn(nil), d.conns...)
}

// Last returns the newest connection or nil.
func (d *FakeDialer) Last() *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// Targets returns every dialed address.
func (d *FakeDialer) Targets() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.targets...)
}

// Control is a recording volume widget.
type Control struct {
	Address protocol.Address
	Value   int
	Sets    int
}

func (c *Control) SetValue(v int) {
	c.Value = v
	c.Sets++
}

func (c *Control) BoundAddress() protocol.Address { return c.Address }

// Indicator is a recording playing indicator.
type Indicator struct {
	Playing bool
	Track   protocol.NowPlaying
}

func (i *Indicator) SetPlaying(track protocol.NowPlaying) {
	i.Playing = true
	i.Track = track
}

func (i *Indicator) SetStopped() {
	i.Playing = false
	i.Track = protocol.NowPlaying{}
}

// Note is one recorded notification.
type Note struct {
	Title string
	Body  string
}

// Notifier records notifications in order.
type Notifier struct {
	Notes []Note
}

func (n *Notifier) Notify(title, body string) {
	n.Notes = append(n.Notes, Note{Title: title, Body: body})
}

// Surface is an in-memory widget set with one control per address.
type Surface struct {
	Master   *Control
	Lists    map[protocol.Address]*Control
	Playing  *Indicator
	Notifier *Notifier
}

// NewSurface builds a surface with the given track list addresses.
func NewSurface(addrs ...protocol.Address) *Surface {
	s := &Surface{
		Master:   &Control{},
		Lists:    make(map[protocol.Address]*Control, len(addrs)),
		Playing:  &Indicator{},
		Notifier: &Notifier{},
	}
	for _, a := range addrs {
		s.Lists[a] = &Control{Address: a}
	}
	return s
}

// Eventually polls cond until it holds or the timeout passes.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

var _ widget.Surface = (*Surface)(nil)

func (s *Surface) MasterVolume() widget.VolumeControl { return s.Master }

func (s *Surface) TrackListVolume(addr protocol.Address) (widget.VolumeControl, bool) {
	c, ok := s.Lists[addr]
	if !ok {
		return nil, false
	}
	return c, true
}

func (s *Surface) Indicator() widget.PlayingIndicator { return s.Playing }

// Snapshot returns every track list value keyed by address.
func (s *Surface) Snapshot() map[protocol.Address]int {
	out := make(map[protocol.Address]int, len(s.Lists))
	for a, c := range s.Lists {
		out[a] = c.Value
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// Buffer is a [bytes.Buffer] safe to write from one goroutine and read from another.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}
