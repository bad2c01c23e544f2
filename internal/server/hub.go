package server

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/musicctl/internal/shared"
)

// HubOpts contains configuration options for creating a Hub.
type HubOpts struct {
	// Snapshot returns the frames a newly registered peer receives before anything else.
	Snapshot func() [][]byte
	// Queue is the number of frames buffered per peer, beyond its snapshot, before it is dropped.
	Queue  int
	Logger *log.Logger
}

// Hub tracks connected peers and fans frames out to them. All membership changes happen on the
// goroutine running [Hub.Run].
type Hub struct {
	peers      map[*peer]struct{}
	register   chan *peer
	unregister chan *peer
	broadcast  chan []byte
	done       chan struct{}
	snapshot   func() [][]byte
	queue      int
	logger     *log.Logger
}

// peer is one websocket connection. The hub sizes send on register and closes it on drop; the write
// loop owns the socket.
type peer struct {
	id     string
	socket *websocket.Conn
	send   chan []byte
}

// NewHub creates a Hub. Nothing is delivered until [Hub.Run] is called.
func NewHub(opts HubOpts) *Hub {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Snapshot == nil {
		opts.Snapshot = func() [][]byte { return nil }
	}
	if opts.Queue <= 0 {
		opts.Queue = 64
	}
	return &Hub{
		peers:      make(map[*peer]struct{}),
		register:   make(chan *peer),
		unregister: make(chan *peer),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		snapshot:   opts.Snapshot,
		queue:      opts.Queue,
		logger:     shared.WithLogger(opts.Logger, "component", "hub"),
	}
}

// Run delivers frames until ctx is done, then closes every peer's queue.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for p := range h.peers {
			h.drop(p)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case p := <-h.register:
			frames := h.snapshot()
			// Nothing drains send until add returns, so the queue holds the whole snapshot.
			p.send = make(chan []byte, h.queue+len(frames))
			for _, frame := range frames {
				p.send <- frame
			}
			h.peers[p] = struct{}{}
			h.logger.Info("peer connected", "peer", p.id, "peers", len(h.peers))
		case p := <-h.unregister:
			if _, ok := h.peers[p]; ok {
				h.drop(p)
				h.logger.Info("peer disconnected", "peer", p.id, "peers", len(h.peers))
			}
		case frame := <-h.broadcast:
			for p := range h.peers {
				h.deliver(p, frame)
			}
		}
	}
}

// deliver queues frame for p, dropping p when its queue is full.
func (h *Hub) deliver(p *peer, frame []byte) bool {
	select {
	case p.send <- frame:
		return true
	default:
		h.logger.Warn("dropping slow peer", "peer", p.id)
		h.drop(p)
		return false
	}
}

func (h *Hub) drop(p *peer) {
	delete(h.peers, p)
	close(p.send)
}

// Broadcast queues frame for every peer. It returns immediately once the hub has stopped.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	case <-h.done:
	}
}

func (h *Hub) add(p *peer) bool {
	select {
	case h.register <- p:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(p *peer) {
	select {
	case h.unregister <- p:
	case <-h.done:
	}
}

func (h *Hub) newPeer(socket *websocket.Conn) *peer {
	return &peer{id: shared.GenerateID(), socket: socket}
}
