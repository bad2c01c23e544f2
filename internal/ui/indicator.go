package ui

import (
	"github.com/desertthunder/musicctl/internal/formatter"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/widget"
)

type indicator struct {
	playing *protocol.NowPlaying
}

var _ widget.PlayingIndicator = (*indicator)(nil)

func (i *indicator) SetPlaying(track protocol.NowPlaying) { i.playing = &track }
func (i *indicator) SetStopped()                          { i.playing = nil }

func (i *indicator) view() string {
	if i.playing == nil {
		return styles.help.Render("■ stopped")
	}
	return styles.ok.Render("▶ " + formatter.PlayingText(*i.playing))
}
