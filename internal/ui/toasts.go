package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/musicctl/internal/notify"
	"github.com/desertthunder/musicctl/internal/widget"
)

// toasts shows the notification board and arms one expiry tick per posted notification.
//
// Notify is called from inside Update, so the ticks are collected and returned with the update's commands.
type toasts struct {
	board *notify.Board
	ticks []tea.Cmd
}

var _ widget.Notifier = (*toasts)(nil)

func newToasts(board *notify.Board) *toasts {
	return &toasts{board: board}
}

func (t *toasts) Notify(title, body string) {
	n := t.board.Post(title, body)
	t.ticks = append(t.ticks, tea.Tick(t.board.Lifetime(), func(at time.Time) tea.Msg {
		return toastExpiredMsg(n.ID, at)
	}))
}

// drain returns the armed ticks and forgets them.
func (t *toasts) drain() tea.Cmd {
	if len(t.ticks) == 0 {
		return nil
	}
	cmds := t.ticks
	t.ticks = nil
	return tea.Batch(cmds...)
}

func (t *toasts) view(width int) string {
	active := t.board.Active()
	if len(active) == 0 {
		return ""
	}

	boxes := make([]string, 0, len(active))
	for i := len(active) - 1; i >= 0; i-- {
		n := active[i]
		content := styles.ok.Render(n.Title) + "\n" + n.Body
		style := styles.toast
		if width > 0 {
			style = style.MaxWidth(width)
		}
		boxes = append(boxes, style.Render(content))
	}
	return strings.TrimRight(lipgloss.JoinVertical(lipgloss.Left, boxes...), "\n")
}
