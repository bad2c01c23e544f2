package client

import (
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
)

// Slot is one configured track list at its server address.
type Slot struct {
	Address protocol.Address
	Group   string
	Name    string
	Volume  int
}

// Layout lists the configured track lists in server index order.
// Indices follow the server's rule: groups in file order, track lists sorted by name unless the group sets sort = false.
func Layout(cfg *shared.Config) []Slot {
	var slots []Slot
	for g, group := range cfg.Groups {
		for t, tl := range group.Ordered() {
			slots = append(slots, Slot{
				Address: protocol.Address{Group: g, TrackList: t},
				Group:   group.Name,
				Name:    tl.Name,
				Volume:  tl.InitialVolume(),
			})
		}
	}
	return slots
}
