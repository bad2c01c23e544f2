package client

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicctl/internal/connection"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
	"github.com/desertthunder/musicctl/internal/widget"
)

// Link is the part of [connection.Manager] the sender writes through.
type Link interface {
	State() connection.State
	Send(frame []byte) error
}

// SenderOpts contains configuration options for creating a Sender.
type SenderOpts struct {
	Link     Link
	Notifier widget.Notifier
	Logger   *log.Logger
	// CommandKey is the JSON key carrying the command tag, [protocol.TypeKey] by default.
	CommandKey string
}

// Sender builds outbound commands from committed gestures.
type Sender struct {
	link     Link
	notifier widget.Notifier
	logger   *log.Logger
	key      string
}

// NewSender creates a Sender.
func NewSender(opts SenderOpts) *Sender {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.CommandKey == "" {
		opts.CommandKey = protocol.TypeKey
	}
	return &Sender{
		link:     opts.Link,
		notifier: opts.Notifier,
		logger:   shared.WithLogger(opts.Logger, "component", "sender"),
		key:      opts.CommandKey,
	}
}

// CommitMasterVolume sends the committed master volume.
func (s *Sender) CommitMasterVolume(volume int) error {
	return s.send(protocol.SetMasterVolume{Volume: volume})
}

// CommitTrackListVolume sends the committed volume of the track list bound to control.
func (s *Sender) CommitTrackListVolume(control widget.BoundControl, volume int) error {
	return s.send(protocol.SetTrackListVolume{Address: control.BoundAddress(), Volume: volume})
}

// Play asks the server to start the track list at addr.
func (s *Sender) Play(addr protocol.Address) error {
	return s.send(protocol.PlayMusic{Address: addr})
}

// Stop asks the server to stop playback.
func (s *Sender) Stop() error {
	return s.send(protocol.StopMusic{})
}

// Send encodes and writes any command.
func (s *Sender) Send(cmd protocol.Command) error {
	return s.send(cmd)
}

func (s *Sender) send(cmd protocol.Command) error {
	frame, err := protocol.EncodeTagged(cmd, s.key)
	if err != nil {
		s.logger.Warn("invalid command", "type", cmd.Type(), "err", err)
		return err
	}

	if s.link.State() != connection.Open {
		s.logger.Info("dropping command", "type", cmd.Type(), "reason", "not connected")
		s.notifier.Notify(TitleNotConnected, BodyNotConnected)
		return shared.ErrNotConnected
	}

	if err := s.link.Send(frame); err != nil {
		if errors.Is(err, shared.ErrNotConnected) {
			s.notifier.Notify(TitleNotConnected, BodyNotConnected)
			return err
		}
		s.logger.Error("send failed", "type", cmd.Type(), "err", err)
		s.notifier.Notify(TitleSendFailed, err.Error())
		return err
	}

	s.logger.Debug("sent", "type", cmd.Type())
	return nil
}
