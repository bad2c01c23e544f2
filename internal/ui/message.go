package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgOpened MsgKind = iota
	MsgFrame
	MsgClosed
	MsgConnected
	MsgToastExpired
)

// openedMsg is the constructor for [MsgOpened]
func openedMsg() Msg {
	return Msg{kind: MsgOpened}
}

// frameMsg is the constructor for [MsgFrame]
func frameMsg(frame []byte) Msg {
	return Msg{kind: MsgFrame, data: frame}
}

// closedMsg is the constructor for [MsgClosed]; err is nil after a local disconnect.
func closedMsg(err error) Msg {
	return Msg{kind: MsgClosed, data: err}
}

// connectedMsg is the constructor for [MsgConnected], the result of a connect attempt.
func connectedMsg(err error) Msg {
	return Msg{kind: MsgConnected, data: err}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(id string, at time.Time) Msg {
	return Msg{
		kind: MsgToastExpired,
		data: struct {
			id string
			at time.Time
		}{id, at},
	}
}

func (m Msg) err() error {
	err, _ := m.data.(error)
	return err
}
