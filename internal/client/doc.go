// Package client keeps the front end in step with the music server.
//
// The [Router] turns each inbound frame into exactly one widget update and, for playback changes,
// one notification. Unknown and malformed frames are logged and dropped without touching any widget.
//
// The [Sender] turns committed volume gestures into outbound commands. When no connection is open
// the command is dropped and the user is told instead; nothing is queued or retried.
package client
