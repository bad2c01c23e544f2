package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/musicctl/internal/shared"
)

// Command is an outbound frame before encoding.
type Command interface {
	Type() CommandType
	Validate() error
}

var (
	_ Command = SetMasterVolume{}
	_ Command = SetTrackListVolume{}
	_ Command = PlayMusic{}
	_ Command = StopMusic{}
)

// SetMasterVolume asks the server to change the master volume.
type SetMasterVolume struct {
	Volume int `json:"volume"`
}

func (SetMasterVolume) Type() CommandType { return CommandMasterVolume }

func (c SetMasterVolume) Validate() error {
	return checkVolume(c.Volume)
}

// SetTrackListVolume asks the server to change one track list's volume.
type SetTrackListVolume struct {
	Address
	Volume int `json:"volume"`
}

func (SetTrackListVolume) Type() CommandType { return CommandTrackListVolume }

func (c SetTrackListVolume) Validate() error {
	if err := checkAddress(c.Address); err != nil {
		return err
	}
	return checkVolume(c.Volume)
}

// PlayMusic asks the server to start a track list.
type PlayMusic struct {
	Address
}

func (PlayMusic) Type() CommandType { return CommandPlayMusic }

func (c PlayMusic) Validate() error {
	return checkAddress(c.Address)
}

// StopMusic asks the server to stop playback.
type StopMusic struct{}

func (StopMusic) Type() CommandType { return CommandStopMusic }
func (StopMusic) Validate() error { return nil }

func checkVolume(v int) error {
	if !ValidVolume(v) {
		return fmt.Errorf("%w: %d", shared.ErrInvalidVolume, v)
	}
	return nil
}

func checkAddress(a Address) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %s", shared.ErrInvalidAddress, a)
	}
	return nil
}

// Keys a command's tag can be written under. Clients send [TypeKey]; the music server
// itself reads [ActionKey].
const (
	TypeKey   = "type"
	ActionKey = "action"
)

// Encode validates c and renders it as a JSON object tagged with "type".
func Encode(c Command) ([]byte, error) {
	return EncodeTagged(c, TypeKey)
}

// EncodeTagged is [Encode] with the tag written under key, which must be [TypeKey] or [ActionKey].
func EncodeTagged(c Command, key string) ([]byte, error) {
	if key != TypeKey && key != ActionKey {
		return nil, fmt.Errorf("%w: tag key %q", shared.ErrInvalidInput, key)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	frame := map[string]any{key: c.Type()}
	switch c := c.(type) {
	case SetMasterVolume:
		frame["volume"] = c.Volume
	case SetTrackListVolume:
		frame["groupIndex"] = c.Group
		frame["trackListIndex"] = c.TrackList
		frame["volume"] = c.Volume
	case PlayMusic:
		frame["groupIndex"] = c.Group
		frame["trackListIndex"] = c.TrackList
	case StopMusic:
	default:
		return nil, fmt.Errorf("%w: %T", shared.ErrUnknownCommand, c)
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	return data, nil
}

// EncodeEvent renders e as the frame the server would have sent.
func EncodeEvent(e Event) ([]byte, error) {
	frame := map[string]any{"action": e.Action()}
	switch e := e.(type) {
	case NowPlaying:
		frame["groupIndex"] = e.Group
		frame["trackListIndex"] = e.TrackList
		frame["groupName"] = e.GroupName
		frame["trackName"] = e.TrackName
	case MasterVolume:
		frame["volume"] = e.Volume
	case TrackListVolume:
		frame["groupIndex"] = e.Group
		frame["trackListIndex"] = e.TrackList
		frame["volume"] = e.Volume
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}
