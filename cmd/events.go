package main

import (
	"context"

	"github.com/desertthunder/musicctl/internal/connection"
)

// event is one manager callback, queued for the single consumer loop.
type event struct {
	opened bool
	frame  []byte
	closed bool
	err    error
}

// subscribe queues the manager's lifecycle events in delivery order. Events arriving after ctx is
// done are dropped.
func subscribe(ctx context.Context, m *connection.Manager) <-chan event {
	events := make(chan event, 64)
	push := func(e event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	m.OnOpen(func() { push(event{opened: true}) })
	m.OnMessage(func(frame []byte) { push(event{frame: frame}) })
	m.OnClose(func(err error) { push(event{closed: true, err: err}) })
	return events
}
