package protocol

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/desertthunder/musicctl/internal/shared"
)

type fields map[string]json.RawMessage

type decodeFunc func(fields) (Event, error)

// decoders maps every [Action] to the function building its [Event].
var decoders = map[Action]decodeFunc{
	ActionNowPlaying:      decodeNowPlaying,
	ActionMusicStopped:    func(fields) (Event, error) { return MusicStopped{}, nil },
	ActionMusicFinished:   func(fields) (Event, error) { return MusicFinished{}, nil },
	ActionMasterVolume:    decodeMasterVolume,
	ActionTrackListVolume: decodeTrackListVolume,
}

// Actions lists the inbound tags the decoder understands.
func Actions() []Action {
	return []Action{ActionNowPlaying, ActionMusicStopped, ActionMusicFinished, ActionMasterVolume, ActionTrackListVolume}
}

// Known reports whether a is an inbound tag with a decoder.
func Known(a Action) bool {
	_, ok := decoders[a]
	return ok
}

// Decode parses one inbound frame.
//
// Unknown tags return [shared.ErrUnknownAction]. Invalid JSON, a missing tag, or a missing or
// out-of-range field return [shared.ErrMalformedFrame]. The returned action is set whenever the
// tag could be read, so callers can log it.
func Decode(data []byte) (Event, Action, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrMalformedFrame, err)
	}

	raw, ok := f["action"]
	if !ok {
		return nil, "", fmt.Errorf("%w: missing action", shared.ErrMalformedFrame)
	}

	var action Action
	if err := json.Unmarshal(raw, &action); err != nil || action == "" {
		return nil, "", fmt.Errorf("%w: action is not a string", shared.ErrMalformedFrame)
	}

	decode, ok := decoders[action]
	if !ok {
		return nil, action, fmt.Errorf("%w: %q", shared.ErrUnknownAction, action)
	}

	event, err := decode(f)
	if err != nil {
		return nil, action, fmt.Errorf("%w: %s: %v", shared.ErrMalformedFrame, action, err)
	}
	return event, action, nil
}

func decodeNowPlaying(f fields) (Event, error) {
	addr, err := f.address()
	if err != nil {
		return nil, err
	}
	groupName, err := f.str("groupName")
	if err != nil {
		return nil, err
	}
	trackName, err := f.str("trackName")
	if err != nil {
		return nil, err
	}
	return NowPlaying{Address: addr, GroupName: groupName, TrackName: trackName}, nil
}

func decodeMasterVolume(f fields) (Event, error) {
	v, err := f.volume()
	if err != nil {
		return nil, err
	}
	return MasterVolume{Volume: v}, nil
}

func decodeTrackListVolume(f fields) (Event, error) {
	addr, err := f.address()
	if err != nil {
		return nil, err
	}
	v, err := f.volume()
	if err != nil {
		return nil, err
	}
	return TrackListVolume{Address: addr, Volume: v}, nil
}

func (f fields) address() (Address, error) {
	group, err := f.index("groupIndex")
	if err != nil {
		return Address{}, err
	}
	trackList, err := f.index("trackListIndex")
	if err != nil {
		return Address{}, err
	}
	return Address{Group: group, TrackList: trackList}, nil
}

func (f fields) volume() (int, error) {
	v, err := f.integer("volume")
	if err != nil {
		return 0, err
	}
	if !ValidVolume(v) {
		return 0, fmt.Errorf("%w: %d", shared.ErrInvalidVolume, v)
	}
	return v, nil
}

func (f fields) index(name string) (int, error) {
	v, err := f.integer(name)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s is negative", shared.ErrInvalidAddress, name)
	}
	return v, nil
}

// integer accepts JSON numbers with no fractional part, so 40 and 40.0 are both 40.
func (f fields) integer(name string) (int, error) {
	raw, ok := f.get(name)
	if !ok {
		return 0, fmt.Errorf("missing %s", name)
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s is not a number", name)
	}
	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not an integer", name)
	}
	return int(n), nil
}

func (f fields) str(name string) (string, error) {
	raw, ok := f.get(name)
	if !ok {
		return "", fmt.Errorf("missing %s", name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s is not a string", name)
	}
	return s, nil
}

// get treats an explicit null like an absent field.
func (f fields) get(name string) (json.RawMessage, bool) {
	raw, ok := f[name]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

type commandDecodeFunc func(fields) (Command, error)

var commandDecoders = map[CommandType]commandDecodeFunc{
	CommandMasterVolume: func(f fields) (Command, error) {
		v, err := f.volume()
		return SetMasterVolume{Volume: v}, err
	},
	CommandTrackListVolume: func(f fields) (Command, error) {
		addr, err := f.address()
		if err != nil {
			return nil, err
		}
		v, err := f.volume()
		return SetTrackListVolume{Address: addr, Volume: v}, err
	},
	CommandPlayMusic: func(f fields) (Command, error) {
		addr, err := f.address()
		return PlayMusic{Address: addr}, err
	},
	CommandStopMusic: func(fields) (Command, error) { return StopMusic{}, nil },
}

// DecodeCommand parses one outbound frame, as a server receives it.
//
// The tag is read from "type", or from "action" when "type" is absent. Unknown tags return
// [shared.ErrUnknownCommand]; anything else wrong returns [shared.ErrMalformedFrame].
func DecodeCommand(data []byte) (Command, CommandType, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrMalformedFrame, err)
	}

	raw, ok := f.get(TypeKey)
	if !ok {
		raw, ok = f.get(ActionKey)
	}
	if !ok {
		return nil, "", fmt.Errorf("%w: missing type", shared.ErrMalformedFrame)
	}

	var kind CommandType
	if err := json.Unmarshal(raw, &kind); err != nil || kind == "" {
		return nil, "", fmt.Errorf("%w: type is not a string", shared.ErrMalformedFrame)
	}

	decode, ok := commandDecoders[kind]
	if !ok {
		return nil, kind, fmt.Errorf("%w: %q", shared.ErrUnknownCommand, kind)
	}

	cmd, err := decode(f)
	if err != nil {
		return nil, kind, fmt.Errorf("%w: %s: %v", shared.ErrMalformedFrame, kind, err)
	}
	return cmd, kind, nil
}
