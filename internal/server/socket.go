package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/desertthunder/musicctl/internal/formatter"
	"github.com/desertthunder/musicctl/internal/protocol"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	// Any page may drive a local mixer.
	CheckOrigin: func(*http.Request) bool { return true },
}

// socket upgrades requests on its path and runs a peer per connection. Requests that are not
// upgrades get the mixer state, the way the bot's own page renders it.
type socket struct {
	path   string
	hub    *Hub
	mixer  *Mixer
	limit  rate.Limit
	burst  int
	logger *log.Logger
}

var _ Handler = (*socket)(nil)

func (s *socket) Routes() []string { return []string{s.path} }

func (s *socket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeState(w, s.mixer, s.logger)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	p := s.hub.newPeer(conn)
	if !s.hub.add(p) {
		conn.Close()
		return
	}

	go p.write()
	s.read(p)
}

// read applies every command p sends. Frames that do not decode or apply, or arrive faster than the
// rate limit allows, are logged and skipped.
func (s *socket) read(p *peer) {
	defer s.hub.remove(p)

	limiter := rate.NewLimiter(s.limit, s.burst)

	for {
		kind, data, err := p.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("read failed", "peer", p.id, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if !limiter.Allow() {
			s.logger.Warn("rate limited", "peer", p.id)
			continue
		}

		cmd, typ, err := protocol.DecodeCommand(data)
		if err != nil {
			s.logger.Warn("ignoring frame", "peer", p.id, "error", err)
			continue
		}
		if err := s.mixer.Apply(cmd); err != nil {
			s.logger.Warn("rejected command", "peer", p.id, "command", typ, "error", err)
		}
	}
}

// write drains the peer's queue, then says goodbye and closes the socket.
func (p *peer) write() {
	defer p.socket.Close()

	for frame := range p.send {
		p.socket.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.socket.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	p.socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func stateHandler(m *Mixer, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeState(w, m, logger)
	})
}

func writeState(w http.ResponseWriter, m *Mixer, logger *log.Logger) {
	data, err := formatter.StatusJSON(m.Status(), true)
	if err != nil {
		logger.Error("failed to render state", "error", err)
		http.Error(w, "failed to render state", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
