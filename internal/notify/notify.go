// Package notify keeps the transient notifications shown to the user.
//
// Each [Notification] gets a fresh uuid from [shared.GenerateID] and an expiry. Entries leave the [Board] when they expire
// or are dismissed; nothing caps how many are visible at once.
package notify

import (
	"sync"
	"time"

	"github.com/desertthunder/musicctl/internal/shared"
)

// DefaultLifetime is how long a notification stays up when no lifetime is configured.
const DefaultLifetime = 5 * time.Second

// Notification is one visible message.
type Notification struct {
	ID        string
	Title     string
	Body      string
	PostedAt  time.Time
	ExpiresAt time.Time
}

// Board holds the visible notifications in posting order.
type Board struct {
	mu       sync.Mutex
	lifetime time.Duration
	now      func() time.Time
	newID    func() string
	items    []Notification
}

// BoardOpts contains configuration options for creating a Board.
type BoardOpts struct {
	Lifetime time.Duration
	Now      func() time.Time
	NewID    func() string
}

// NewBoard creates an empty Board.
func NewBoard(opts BoardOpts) *Board {
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = shared.GenerateID
	}
	return &Board{lifetime: opts.Lifetime, now: opts.Now, newID: opts.NewID}
}

// Lifetime returns how long posted notifications stay up.
func (b *Board) Lifetime() time.Duration {
	return b.lifetime
}

// Post adds a notification and returns it.
func (b *Board) Post(title, body string) Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	n := Notification{
		ID:        b.newID(),
		Title:     title,
		Body:      body,
		PostedAt:  now,
		ExpiresAt: now.Add(b.lifetime),
	}
	b.items = append(b.items, n)
	return n
}

// Dismiss removes the notification with id. Unknown ids are ignored.
func (b *Board) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, n := range b.items {
		if n.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// DismissNewest removes the most recent notification.
func (b *Board) DismissNewest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == 0 {
		return false
	}
	b.items = b.items[:len(b.items)-1]
	return true
}

// Expire removes every notification due at or before now and returns how many went.
func (b *Board) Expire(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.items[:0]
	for _, n := range b.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	removed := len(b.items) - len(kept)
	clear(b.items[len(kept):])
	b.items = kept
	return removed
}

// Active returns the visible notifications, oldest first.
func (b *Board) Active() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notification(nil), b.items...)
}

// Len returns the number of visible notifications.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
