package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/formatter"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/widget"
)

// ConsoleOpts contains configuration options for creating a Console.
type ConsoleOpts struct {
	Out          io.Writer
	MasterVolume int
	Slots        []client.Slot
	// Echo prints a line whenever the server changes a volume.
	Echo bool
}

// Console is an in-memory [widget.Surface] and [widget.Notifier].
//
// Widgets are written by the event loop and read by the prompt, so every access holds mu.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	echo    bool
	master  *control
	slots   []client.Slot
	lists   map[protocol.Address]*control
	playing *protocol.NowPlaying
}

var (
	_ widget.Surface  = (*Console)(nil)
	_ widget.Notifier = (*Console)(nil)
)

// New creates a Console with one control per slot.
func New(opts ConsoleOpts) *Console {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	c := &Console{
		out:   opts.Out,
		echo:  opts.Echo,
		slots: opts.Slots,
		lists: make(map[protocol.Address]*control, len(opts.Slots)),
	}
	c.master = &control{console: c, master: true, value: opts.MasterVolume}
	for _, s := range opts.Slots {
		c.lists[s.Address] = &control{console: c, address: s.Address, value: s.Volume}
	}
	return c
}

func (c *Console) MasterVolume() widget.VolumeControl { return c.master }

func (c *Console) TrackListVolume(addr protocol.Address) (widget.VolumeControl, bool) {
	ctl, ok := c.lists[addr]
	if !ok {
		return nil, false
	}
	return ctl, true
}

func (c *Console) Indicator() widget.PlayingIndicator { return (*indicator)(c) }

// Control returns the track list control bound to addr.
func (c *Console) Control(addr protocol.Address) (widget.BoundControl, bool) {
	ctl, ok := c.lists[addr]
	if !ok {
		return nil, false
	}
	return ctl, true
}

// Notify prints one notification line.
func (c *Console) Notify(title, body string) {
	c.Println(formatter.NotificationText(title, body))
}

// Println writes a line to the console output.
func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// Status snapshots the widgets. Connection and target are left for the caller.
func (c *Console) Status() formatter.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := formatter.Status{
		MasterVolume: c.master.value,
		TrackLists:   make([]formatter.TrackListStatus, 0, len(c.slots)),
	}
	if c.playing != nil {
		playing := *c.playing
		s.Playing = &playing
	}
	for _, slot := range c.slots {
		s.TrackLists = append(s.TrackLists, formatter.TrackListStatus{
			Address: slot.Address,
			Group:   slot.Group,
			Name:    slot.Name,
			Volume:  c.lists[slot.Address].value,
		})
	}
	return s
}

type control struct {
	console *Console
	master  bool
	address protocol.Address
	value   int
}

func (ctl *control) SetValue(v int) {
	c := ctl.console
	c.mu.Lock()
	defer c.mu.Unlock()
	ctl.value = v

	if !c.echo {
		return
	}
	var e protocol.Event = protocol.TrackListVolume{Address: ctl.address, Volume: v}
	if ctl.master {
		e = protocol.MasterVolume{Volume: v}
	}
	fmt.Fprintln(c.out, formatter.EventText(e))
}

func (ctl *control) BoundAddress() protocol.Address { return ctl.address }

type indicator Console

func (i *indicator) SetPlaying(track protocol.NowPlaying) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.playing = &track
}

func (i *indicator) SetStopped() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.playing = nil
}
