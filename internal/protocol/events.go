package protocol

// Handler receives decoded inbound events, one method per [Action].
type Handler interface {
	NowPlaying(NowPlaying)
	MusicStopped(MusicStopped)
	MusicFinished(MusicFinished)
	MasterVolume(MasterVolume)
	TrackListVolume(TrackListVolume)
}

// Event is an inbound frame after decoding.
type Event interface {
	Action() Action
	Apply(Handler)
}

var (
	_ Event = NowPlaying{}
	_ Event = MusicStopped{}
	_ Event = MusicFinished{}
	_ Event = MasterVolume{}
	_ Event = TrackListVolume{}
)

// NowPlaying reports that a track list started playing.
type NowPlaying struct {
	Address
	GroupName string `json:"groupName"`
	TrackName string `json:"trackName"`
}

func (NowPlaying) Action() Action { return ActionNowPlaying }
func (e NowPlaying) Apply(h Handler) { h.NowPlaying(e) }

// MusicStopped reports that playback was stopped.
type MusicStopped struct{}

func (MusicStopped) Action() Action { return ActionMusicStopped }
func (e MusicStopped) Apply(h Handler) { h.MusicStopped(e) }

// MusicFinished reports that playback ran to completion.
type MusicFinished struct{}

func (MusicFinished) Action() Action { return ActionMusicFinished }
func (e MusicFinished) Apply(h Handler) { h.MusicFinished(e) }

// MasterVolume carries the server's master volume.
type MasterVolume struct {
	Volume int `json:"volume"`
}

func (MasterVolume) Action() Action { return ActionMasterVolume }
func (e MasterVolume) Apply(h Handler) { h.MasterVolume(e) }

// TrackListVolume carries the volume of one track list.
type TrackListVolume struct {
	Address
	Volume int `json:"volume"`
}

func (TrackListVolume) Action() Action { return ActionTrackListVolume }
func (e TrackListVolume) Apply(h Handler) { h.TrackListVolume(e) }
