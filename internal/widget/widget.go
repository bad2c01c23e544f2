// Package widget declares what the router and sender need from a front end.
//
// The terminal UI and the line-mode console both implement these; tests use recording doubles.
package widget

import "github.com/desertthunder/musicctl/internal/protocol"

// VolumeControl displays a volume.
type VolumeControl interface {
	SetValue(volume int)
}

// BoundControl is a track list volume control that knows which track list it drives.
type BoundControl interface {
	VolumeControl
	BoundAddress() protocol.Address
}

// PlayingIndicator shows what is playing.
type PlayingIndicator interface {
	SetPlaying(track protocol.NowPlaying)
	SetStopped()
}

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(title, body string)
}

// Surface resolves the widgets inbound events act on.
type Surface interface {
	MasterVolume() VolumeControl
	TrackListVolume(addr protocol.Address) (VolumeControl, bool)
	Indicator() PlayingIndicator
}
