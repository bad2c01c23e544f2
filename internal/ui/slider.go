package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/widget"
)

const step = 5

type sliderState int

const (
	idle sliderState = iota
	dragging
	committed
)

// slider is a volume control.
//
// value is what the server last confirmed; handle is what the user sees while dragging or
// waiting for the echo of a commit. SetValue always wins over a drag in progress.
type slider struct {
	label   string
	address protocol.Address
	value   int
	handle  int
	state   sliderState
	bar     progress.Model
}

var _ widget.BoundControl = (*slider)(nil)

func newSlider(label string, addr protocol.Address, value int) *slider {
	return &slider{
		label:   label,
		address: addr,
		value:   value,
		handle:  value,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(30)),
	}
}

func (s *slider) SetValue(v int) {
	s.value = v
	s.handle = v
	s.state = idle
}

func (s *slider) BoundAddress() protocol.Address { return s.address }

// nudge moves the handle without sending anything.
func (s *slider) nudge(delta int) {
	s.handle = min(protocol.MaxVolume, max(protocol.MinVolume, s.handle+delta))
	s.state = dragging
}

// commit reports the handle position if the user moved it.
func (s *slider) commit() (int, bool) {
	if s.state != dragging {
		return 0, false
	}
	s.state = committed
	return s.handle, true
}

// revert puts the handle back on the confirmed value.
func (s *slider) revert() {
	s.handle = s.value
	s.state = idle
}

func (s *slider) setWidth(w int) {
	s.bar.Width = max(10, w)
}

func (s *slider) view(focused bool) string {
	label := fmt.Sprintf("%-16s", s.label)
	if focused {
		label = styles.focused.Render("▸ " + label)
	} else {
		label = "  " + label
	}

	value := fmt.Sprintf("%3d%%", s.handle)
	switch s.state {
	case dragging:
		value = styles.warn.Render(value + " *")
	case committed:
		value = styles.help.Render(value + " …")
	}

	return fmt.Sprintf("%s %s %s", label, s.bar.ViewAs(float64(s.handle)/100), value)
}
