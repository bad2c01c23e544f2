package client

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
	"github.com/desertthunder/musicctl/internal/widget"
)

const (
	TitleMusic        = "Music"
	TitleNotConnected = "Not connected"
	TitleSendFailed   = "Send failed"

	BodyStopped      = "Stopped the music."
	BodyFinished     = "Finished playing the music."
	BodyNotConnected = "Not connected to the music server."
)

// NowPlayingBody is the notification text for a started track list.
func NowPlayingBody(trackName string) string {
	return fmt.Sprintf("Now playing %s.", trackName)
}

// RouterOpts contains configuration options for creating a Router.
type RouterOpts struct {
	Surface  widget.Surface
	Notifier widget.Notifier
	Logger   *log.Logger
}

// Router applies inbound frames to the widgets.
type Router struct {
	surface  widget.Surface
	notifier widget.Notifier
	logger   *log.Logger
}

var _ protocol.Handler = (*Router)(nil)

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) *Router {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Router{
		surface:  opts.Surface,
		notifier: opts.Notifier,
		logger:   shared.WithLogger(opts.Logger, "component", "router"),
	}
}

// Dispatch decodes one frame and applies it.
//
// Unknown or malformed frames are logged and returned as errors; widgets are left untouched.
func (r *Router) Dispatch(frame []byte) error {
	event, action, err := protocol.Decode(frame)
	switch {
	case errors.Is(err, shared.ErrUnknownAction):
		r.logger.Warn("unknown action", "action", action)
		return err
	case err != nil:
		r.logger.Warn("malformed frame", "action", action, "err", err)
		return err
	}

	r.logger.Debug("dispatch", "action", action)
	event.Apply(r)
	return nil
}

func (r *Router) NowPlaying(e protocol.NowPlaying) {
	r.surface.Indicator().SetPlaying(e)

	title := e.GroupName
	if title == "" {
		title = TitleMusic
	}
	r.notifier.Notify(title, NowPlayingBody(e.TrackName))
}

func (r *Router) MusicStopped(protocol.MusicStopped) {
	r.surface.Indicator().SetStopped()
	r.notifier.Notify(TitleMusic, BodyStopped)
}

func (r *Router) MusicFinished(protocol.MusicFinished) {
	r.surface.Indicator().SetStopped()
	r.notifier.Notify(TitleMusic, BodyFinished)
}

func (r *Router) MasterVolume(e protocol.MasterVolume) {
	r.surface.MasterVolume().SetValue(e.Volume)
}

func (r *Router) TrackListVolume(e protocol.TrackListVolume) {
	control, ok := r.surface.TrackListVolume(e.Address)
	if !ok {
		r.logger.Warn("no control for track list", "address", e.Address.String())
		return
	}
	control.SetValue(e.Volume)
}
