package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/connection"
	"github.com/desertthunder/musicctl/internal/notify"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
	"github.com/desertthunder/musicctl/internal/widget"
)

const (
	TitleConnectionFailed = "Connection failed"
	TitleConnectionLost   = "Connection lost"
)

// Session is the part of [connection.Manager] the TUI drives.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect()
	State() connection.State
	Target() string
	Send(frame []byte) error
	OnOpen(fn func())
	OnMessage(fn func([]byte))
	OnClose(fn func(error))
}

// ModelOpts contains configuration options for creating a Model.
type ModelOpts struct {
	Context      context.Context
	Session      Session
	Slots        []client.Slot
	MasterVolume int
	Board        *notify.Board
	Logger       *log.Logger
	CommandKey   string
	// AutoConnect dials as soon as the program starts.
	AutoConnect bool
}

// Model represents the TUI application state.
//
// It is the [widget.Surface] the router writes to; every write happens inside Update.
type Model struct {
	ctx         context.Context
	session     Session
	router      *client.Router
	sender      *client.Sender
	logger      *log.Logger
	autoConnect bool

	events chan Msg

	master   *slider
	sliders  []*slider
	groups   []string
	index    map[protocol.Address]*slider
	focus    int
	playing  *indicator
	toasts   *toasts
	state    connection.State
	lastErr  error
	width    int
	help     help.Model
	keys     keyMap
	quitting bool
}

var _ widget.Surface = (*Model)(nil)

// NewModel creates a new TUI model and subscribes it to the session's lifecycle events.
func NewModel(opts ModelOpts) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Board == nil {
		opts.Board = notify.NewBoard(notify.BoardOpts{})
	}

	m := &Model{
		ctx:         opts.Context,
		session:     opts.Session,
		logger:      shared.WithLogger(opts.Logger, "component", "ui"),
		autoConnect: opts.AutoConnect,
		events:      make(chan Msg, 64),
		master:      newSlider("Master", protocol.Address{}, opts.MasterVolume),
		index:       make(map[protocol.Address]*slider, len(opts.Slots)),
		playing:     &indicator{},
		toasts:      newToasts(opts.Board),
		state:       opts.Session.State(),
		help:        help.New(),
		keys:        newKeyMap(),
	}

	for _, s := range opts.Slots {
		sl := newSlider(s.Name, s.Address, s.Volume)
		m.sliders = append(m.sliders, sl)
		m.groups = append(m.groups, s.Group)
		m.index[s.Address] = sl
	}

	m.router = client.NewRouter(client.RouterOpts{Surface: m, Notifier: m.toasts, Logger: opts.Logger})
	m.sender = client.NewSender(client.SenderOpts{
		Link:       opts.Session,
		Notifier:   m.toasts,
		Logger:     opts.Logger,
		CommandKey: opts.CommandKey,
	})

	opts.Session.OnOpen(func() { m.push(openedMsg()) })
	opts.Session.OnMessage(func(frame []byte) { m.push(frameMsg(frame)) })
	opts.Session.OnClose(func(err error) { m.push(closedMsg(err)) })
	return m
}

// push queues a session event. Once the context is done the program is gone and events are dropped.
func (m *Model) push(msg Msg) {
	select {
	case m.events <- msg:
	case <-m.ctx.Done():
	}
}

func (m *Model) MasterVolume() widget.VolumeControl { return m.master }

func (m *Model) TrackListVolume(addr protocol.Address) (widget.VolumeControl, bool) {
	s, ok := m.index[addr]
	if !ok {
		return nil, false
	}
	return s, true
}

func (m *Model) Indicator() widget.PlayingIndicator { return m.playing }

// Init starts listening for session events and, if configured, connects.
func (m *Model) Init() tea.Cmd {
	if m.autoConnect {
		return tea.Batch(m.waitForEvent(), m.connect())
	}
	return m.waitForEvent()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		barWidth := msg.Width - 32
		m.master.setWidth(barWidth)
		for _, s := range m.sliders {
			s.setWidth(barWidth)
		}
	case tea.KeyMsg:
		cmd = m.handleKeys(msg)
	case Msg:
		cmd = m.handleMsg(msg)
	}

	return m, tea.Batch(cmd, m.toasts.drain())
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgOpened:
		m.state = connection.Open
		m.lastErr = nil
		return m.waitForEvent()
	case MsgFrame:
		if frame, ok := msg.data.([]byte); ok {
			_ = m.router.Dispatch(frame)
		}
		return m.waitForEvent()
	case MsgClosed:
		m.state = connection.Disconnected
		if err := msg.err(); err != nil {
			m.lastErr = err
			if errors.Is(err, shared.ErrDialFailed) {
				m.toasts.Notify(TitleConnectionFailed, err.Error())
			} else {
				m.toasts.Notify(TitleConnectionLost, err.Error())
			}
		}
		return m.waitForEvent()
	case MsgConnected:
		if err := msg.err(); err != nil {
			m.logger.Warn("connect failed", "err", err)
		}
		return nil
	case MsgToastExpired:
		if d, ok := msg.data.(struct {
			id string
			at time.Time
		}); ok {
			m.toasts.board.Dismiss(d.id)
			m.toasts.board.Expire(d.at)
		}
		return nil
	}
	return nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.up):
		m.moveFocus(-1)
	case key.Matches(msg, m.keys.down):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.left):
		m.focused().nudge(-step)
	case key.Matches(msg, m.keys.right):
		m.focused().nudge(step)
	case key.Matches(msg, m.keys.commit):
		m.commit()
	case key.Matches(msg, m.keys.revert):
		m.focused().revert()
	case key.Matches(msg, m.keys.play):
		if m.focus > 0 {
			_ = m.sender.Play(m.focused().BoundAddress())
		}
	case key.Matches(msg, m.keys.stop):
		_ = m.sender.Stop()
	case key.Matches(msg, m.keys.connect):
		return m.connect()
	case key.Matches(msg, m.keys.disconnect):
		m.session.Disconnect()
	case key.Matches(msg, m.keys.dismiss):
		m.toasts.board.DismissNewest()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// focused returns the master slider at focus 0, track list sliders after it.
func (m *Model) focused() *slider {
	if m.focus == 0 {
		return m.master
	}
	return m.sliders[m.focus-1]
}

func (m *Model) moveFocus(delta int) {
	n := len(m.sliders) + 1
	m.focus = (m.focus + delta + n) % n
}

func (m *Model) commit() {
	s := m.focused()
	v, ok := s.commit()
	if !ok {
		return
	}

	var err error
	if s == m.master {
		err = m.sender.CommitMasterVolume(v)
	} else {
		err = m.sender.CommitTrackListVolume(s, v)
	}
	if err != nil {
		s.revert()
	}
}

func (m *Model) connect() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return connectedMsg(m.session.Connect(ctx))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the mixer.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("musicctl"))
	b.WriteString("\n")
	b.WriteString(m.playing.view())
	b.WriteString("\n\n")
	b.WriteString(m.master.view(m.focus == 0))
	b.WriteString("\n")

	group := ""
	for i, s := range m.sliders {
		if m.groups[i] != group {
			group = m.groups[i]
			b.WriteString("\n")
			b.WriteString(styles.group.Render(group))
			b.WriteString("\n")
		}
		b.WriteString(s.view(m.focus == i+1))
		b.WriteString("\n")
	}

	if t := m.toasts.view(m.width); t != "" {
		b.WriteString("\n")
		b.WriteString(t)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusLine() string {
	switch {
	case m.state == connection.Open:
		return styles.ok.Render(fmt.Sprintf("● connected to %s", m.session.Target()))
	case m.lastErr != nil:
		return styles.err.Render(fmt.Sprintf("○ disconnected: %v", m.lastErr))
	default:
		return styles.warn.Render("○ disconnected (press c to connect)")
	}
}
