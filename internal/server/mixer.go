package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/formatter"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/repositories"
	"github.com/desertthunder/musicctl/internal/shared"
)

// Store keeps volumes across restarts. [repositories.StateRepository] is the SQLite one.
type Store interface {
	SaveMasterVolume(volume int) error
	SaveTrackListVolume(addr protocol.Address, volume int) error
}

var _ Store = (*repositories.StateRepository)(nil)

// MixerOpts contains configuration options for creating a Mixer.
type MixerOpts struct {
	MasterVolume int
	Slots        []client.Slot
	// FinishAfter ends playback on its own once a track list has played this long. Zero plays until stopped.
	FinishAfter time.Duration
	// Store is optional.
	Store  Store
	Logger *log.Logger
}

// Mixer is the playback state the server owns. Every change is published as an encoded event frame.
type Mixer struct {
	mu          sync.Mutex
	master      int
	slots       []client.Slot
	index       map[protocol.Address]int
	playing     *protocol.NowPlaying
	finishAfter time.Duration
	timer       *time.Timer
	generation  int
	store       Store

	// pub is taken before mu is released so frames go out in the order their changes were made.
	pub    sync.Mutex
	emit   func([]byte)
	logger *log.Logger
}

// NewMixer creates a Mixer seeded with the configured volumes.
func NewMixer(opts MixerOpts) *Mixer {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	m := &Mixer{
		master:      opts.MasterVolume,
		slots:       append([]client.Slot(nil), opts.Slots...),
		index:       make(map[protocol.Address]int, len(opts.Slots)),
		finishAfter: opts.FinishAfter,
		store:       opts.Store,
		emit:        func([]byte) {},
		logger:      shared.WithLogger(opts.Logger, "component", "mixer"),
	}
	for i, s := range m.slots {
		m.index[s.Address] = i
	}
	return m
}

// OnEvent sets the function every published frame is handed to.
func (m *Mixer) OnEvent(fn func(frame []byte)) {
	m.pub.Lock()
	defer m.pub.Unlock()
	m.emit = fn
}

// Apply validates cmd, changes the state and publishes the resulting event.
func (m *Mixer) Apply(cmd protocol.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	event, err := m.apply(cmd)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.pub.Lock()
	m.mu.Unlock()
	defer m.pub.Unlock()

	m.publish(event)
	return nil
}

func (m *Mixer) apply(cmd protocol.Command) (protocol.Event, error) {
	switch c := cmd.(type) {
	case protocol.SetMasterVolume:
		m.master = c.Volume
		m.logger.Info("master volume", "volume", c.Volume)
		if m.store != nil {
			m.saved(m.store.SaveMasterVolume(c.Volume))
		}
		return protocol.MasterVolume{Volume: c.Volume}, nil
	case protocol.SetTrackListVolume:
		i, ok := m.index[c.Address]
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrUnknownTrackList, c.Address)
		}
		m.slots[i].Volume = c.Volume
		m.logger.Info("track list volume", "address", c.Address, "volume", c.Volume)
		if m.store != nil {
			m.saved(m.store.SaveTrackListVolume(c.Address, c.Volume))
		}
		return protocol.TrackListVolume{Address: c.Address, Volume: c.Volume}, nil
	case protocol.PlayMusic:
		i, ok := m.index[c.Address]
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrUnknownTrackList, c.Address)
		}
		s := m.slots[i]
		m.playing = &protocol.NowPlaying{Address: s.Address, GroupName: s.Group, TrackName: s.Name}
		m.restartTimer()
		m.logger.Info("playing", "group", s.Group, "track list", s.Name)
		return *m.playing, nil
	case protocol.StopMusic:
		m.playing = nil
		m.stopTimer()
		m.logger.Info("stopped")
		return protocol.MusicStopped{}, nil
	default:
		return nil, fmt.Errorf("%w: %T", shared.ErrUnknownCommand, cmd)
	}
}

// saved logs a failed save. The change itself stands.
func (m *Mixer) saved(err error) {
	if err != nil {
		m.logger.Error("failed to save state", "error", err)
	}
}

// restartTimer schedules the end of the current track list. Callers hold mu.
func (m *Mixer) restartTimer() {
	m.stopTimer()
	if m.finishAfter <= 0 {
		return
	}
	gen := m.generation
	m.timer = time.AfterFunc(m.finishAfter, func() { m.finish(gen) })
}

// stopTimer invalidates any scheduled finish. Callers hold mu.
func (m *Mixer) stopTimer() {
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Mixer) finish(gen int) {
	m.mu.Lock()
	if gen != m.generation || m.playing == nil {
		m.mu.Unlock()
		return
	}
	m.playing = nil
	m.timer = nil
	m.logger.Info("finished")
	m.pub.Lock()
	m.mu.Unlock()
	defer m.pub.Unlock()

	m.publish(protocol.MusicFinished{})
}

// publish encodes e and hands it on. Callers hold pub.
func (m *Mixer) publish(e protocol.Event) {
	frame, err := protocol.EncodeEvent(e)
	if err != nil {
		m.logger.Error("failed to encode event", "action", e.Action(), "error", err)
		return
	}
	m.emit(frame)
}

// Snapshot returns the frames that bring a new peer up to date: master volume, every track list volume and
// the track list playing, if any.
func (m *Mixer) Snapshot() [][]byte {
	m.mu.Lock()
	events := make([]protocol.Event, 0, len(m.slots)+2)
	events = append(events, protocol.MasterVolume{Volume: m.master})
	for _, s := range m.slots {
		events = append(events, protocol.TrackListVolume{Address: s.Address, Volume: s.Volume})
	}
	if m.playing != nil {
		events = append(events, *m.playing)
	}
	m.mu.Unlock()

	frames := make([][]byte, 0, len(events))
	for _, e := range events {
		frame, err := protocol.EncodeEvent(e)
		if err != nil {
			m.logger.Error("failed to encode snapshot", "action", e.Action(), "error", err)
			continue
		}
		frames = append(frames, frame)
	}
	return frames
}

// Status reports the state in the shape the status commands print.
func (m *Mixer) Status() formatter.Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := formatter.Status{Connection: "Serving", MasterVolume: m.master}
	if m.playing != nil {
		playing := *m.playing
		s.Playing = &playing
	}
	for _, slot := range m.slots {
		s.TrackLists = append(s.TrackLists, formatter.TrackListStatus{
			Address: slot.Address,
			Group:   slot.Group,
			Name:    slot.Name,
			Volume:  slot.Volume,
		})
	}
	return s
}

// Close cancels a scheduled finish.
func (m *Mixer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimer()
}
