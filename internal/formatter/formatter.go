// Package formatter renders mixer status, events and notifications as plain text, CSV or JSON.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
)

// TrackListStatus is one row of the mixer.
type TrackListStatus struct {
	Address protocol.Address `json:"address"`
	Group   string           `json:"group"`
	Name    string           `json:"name"`
	Volume  int              `json:"volume"`
}

// Status is everything the console knows about the mixer.
type Status struct {
	Connection   string               `json:"connection"`
	Target       string               `json:"target,omitempty"`
	MasterVolume int                  `json:"masterVolume"`
	Playing      *protocol.NowPlaying `json:"playing,omitempty"`
	TrackLists   []TrackListStatus    `json:"trackLists"`
}

// StatusText renders s as an aligned plain text listing.
func StatusText(s Status) []byte {
	var buf bytes.Buffer

	if s.Connection != "" {
		buf.WriteString(fmt.Sprintf("Connection: %s", s.Connection))
		if s.Target != "" {
			buf.WriteString(fmt.Sprintf(" (%s)", s.Target))
		}
		buf.WriteString("\n")
	}

	if s.Playing != nil {
		buf.WriteString(fmt.Sprintf("Playing: %s\n", PlayingText(*s.Playing)))
	} else {
		buf.WriteString("Playing: nothing\n")
	}

	buf.WriteString(fmt.Sprintf("Master volume: %d%%\n", s.MasterVolume))

	if len(s.TrackLists) == 0 {
		return buf.Bytes()
	}

	buf.WriteString("\nTrack lists:\n")
	group := ""
	for _, tl := range s.TrackLists {
		if tl.Group != group {
			group = tl.Group
			buf.WriteString(fmt.Sprintf("  %s\n", group))
		}
		buf.WriteString(fmt.Sprintf("    %-5s %-24s %3d%%\n", tl.Address, tl.Name, tl.Volume))
	}

	return buf.Bytes()
}

// StatusCSV renders the track list rows with columns: Group Index, Track List Index, Group, Name, Volume
func StatusCSV(s Status) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Group Index", "Track List Index", "Group", "Name", "Volume"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, tl := range s.TrackLists {
		record := []string{
			strconv.Itoa(tl.Address.Group),
			strconv.Itoa(tl.Address.TrackList),
			tl.Group,
			tl.Name,
			strconv.Itoa(tl.Volume),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// StatusJSON renders s as JSON.
func StatusJSON(s Status, pretty bool) ([]byte, error) {
	return marshal(s, pretty)
}

// PlayingText describes a playing track list, e.g. "Bards (Tavern, 0/1)".
func PlayingText(e protocol.NowPlaying) string {
	return fmt.Sprintf("%s (%s, %s)", e.TrackName, e.GroupName, e.Address)
}

// EventText describes an inbound event on one line.
func EventText(e protocol.Event) string {
	switch e := e.(type) {
	case protocol.NowPlaying:
		return "now playing " + PlayingText(e)
	case protocol.MusicStopped:
		return "music stopped"
	case protocol.MusicFinished:
		return "music finished"
	case protocol.MasterVolume:
		return "master volume " + shared.Percent(e.Volume)
	case protocol.TrackListVolume:
		return fmt.Sprintf("track list %s volume %s", e.Address, shared.Percent(e.Volume))
	default:
		return string(e.Action())
	}
}

// EventJSON renders e as the frame the server sent.
func EventJSON(e protocol.Event) ([]byte, error) {
	return protocol.EncodeEvent(e)
}

// NotificationText renders a notification on one line.
func NotificationText(title, body string) string {
	if title == "" {
		return body
	}
	return fmt.Sprintf("[%s] %s", title, body)
}

func marshal(v any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}
