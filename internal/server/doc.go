// Package server is a stand-in music server: it speaks the same websocket protocol as the music bot's web
// page so the clients can be driven without the bot running.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Mixer
//
// [Mixer] holds the state the bot would: master volume, one volume per track list and the track list playing.
// Commands are applied to it and the resulting events are broadcast to every connected peer, including the one
// that sent the command.
//
// # Hub
//
// The [Hub] owns the set of connected peers. Each peer has a read goroutine feeding the mixer and a write
// goroutine draining its outbound queue. A peer too slow to keep up is dropped.
//
// A peer that connects is sent a snapshot of the mixer first, so late joiners start in sync.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
