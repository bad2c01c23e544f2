package protocol

import "fmt"

// Action tags an inbound frame.
type Action string

const (
	ActionNowPlaying      Action = "nowPlaying"
	ActionMusicStopped    Action = "musicStopped"
	ActionMusicFinished   Action = "musicFinished"
	ActionMasterVolume    Action = "setMusicMasterVolume"
	ActionTrackListVolume Action = "setTrackListVolume"
)

// CommandType tags an outbound frame.
type CommandType string

const (
	CommandMasterVolume    CommandType = "setMusicMasterVolume"
	CommandTrackListVolume CommandType = "setTrackListVolume"
	CommandPlayMusic       CommandType = "playMusic"
	CommandStopMusic       CommandType = "stopMusic"
)

const (
	MinVolume = 0
	MaxVolume = 100
)

// Address identifies one track list on the server.
type Address struct {
	Group     int `json:"groupIndex"`
	TrackList int `json:"trackListIndex"`
}

// String renders the address as "group/trackList".
func (a Address) String() string {
	return fmt.Sprintf("%d/%d", a.Group, a.TrackList)
}

// Valid reports whether both indices are non-negative.
func (a Address) Valid() bool {
	return a.Group >= 0 && a.TrackList >= 0
}

// ValidVolume reports whether v is within [MinVolume, MaxVolume].
func ValidVolume(v int) bool {
	return v >= MinVolume && v <= MaxVolume
}
