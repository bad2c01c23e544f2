package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/musicctl/internal/protocol"
)

// State is what a previous run left behind. MasterVolume is nil when it was never changed.
type State struct {
	MasterVolume *int
	TrackLists   map[protocol.Address]int
}

// StateRepository persists mixer volumes.
type StateRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewStateRepository creates a [StateRepository], creating its tables first.
func NewStateRepository(db *sql.DB) (*StateRepository, error) {
	if err := CreateSchema(db); err != nil {
		return nil, err
	}
	return &StateRepository{db: db, now: time.Now}, nil
}

// SaveMasterVolume records the master volume.
func (r *StateRepository) SaveMasterVolume(volume int) error {
	query := `
		INSERT INTO master_volume (id, volume, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET volume = excluded.volume, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, volume, r.now()); err != nil {
		return fmt.Errorf("failed to save master volume: %w", err)
	}
	return nil
}

// SaveTrackListVolume records the volume of the track list at addr.
func (r *StateRepository) SaveTrackListVolume(addr protocol.Address, volume int) error {
	query := `
		INSERT INTO track_list_volumes (group_index, track_list_index, volume, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (group_index, track_list_index) DO UPDATE SET volume = excluded.volume, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, addr.Group, addr.TrackList, volume, r.now()); err != nil {
		return fmt.Errorf("failed to save track list %s volume: %w", addr, err)
	}
	return nil
}

// Load reads everything saved so far.
func (r *StateRepository) Load() (State, error) {
	state := State{TrackLists: make(map[protocol.Address]int)}

	var master int
	err := r.db.QueryRow("SELECT volume FROM master_volume WHERE id = 1").Scan(&master)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return state, fmt.Errorf("failed to query master volume: %w", err)
	default:
		state.MasterVolume = &master
	}

	rows, err := r.db.Query("SELECT group_index, track_list_index, volume FROM track_list_volumes")
	if err != nil {
		return state, fmt.Errorf("failed to query track list volumes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr protocol.Address
		var volume int
		if err := rows.Scan(&addr.Group, &addr.TrackList, &volume); err != nil {
			return state, fmt.Errorf("failed to scan track list volume: %w", err)
		}
		state.TrackLists[addr] = volume
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("failed to read track list volumes: %w", err)
	}

	return state, nil
}
