// Package connection owns the single websocket between musicctl and the music server.
//
// A [Manager] holds at most one live connection. [Manager.Connect] always tears down the previous
// connection before dialing, and [Manager.Disconnect] is a no-op when nothing is held. Consumers
// subscribe to lifecycle events with [Manager.OnOpen], [Manager.OnMessage] and [Manager.OnClose];
// message callbacks run on the connection's read goroutine in the order frames arrive.
//
// The dial target is derived from the server's HTTP origin by [TargetURL]: https becomes wss and
// http becomes ws. Nothing reconnects automatically.
package connection
