package repositories

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
)

// setupTestDB creates an in-memory SQLite database
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStateRepository(t *testing.T) {
	t.Run("Load on an empty database", func(t *testing.T) {
		repo, err := NewStateRepository(setupTestDB(t))
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}

		state, err := repo.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if state.MasterVolume != nil {
			t.Errorf("expected no master volume, got %d", *state.MasterVolume)
		}
		if len(state.TrackLists) != 0 {
			t.Errorf("expected no track lists, got %v", state.TrackLists)
		}
	})

	t.Run("saves overwrite", func(t *testing.T) {
		repo, err := NewStateRepository(setupTestDB(t))
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}

		bards := protocol.Address{Group: 0, TrackList: 1}
		boss := protocol.Address{Group: 1, TrackList: 0}
		for _, save := range []func() error{
			func() error { return repo.SaveMasterVolume(50) },
			func() error { return repo.SaveMasterVolume(35) },
			func() error { return repo.SaveTrackListVolume(bards, 20) },
			func() error { return repo.SaveTrackListVolume(bards, 25) },
			func() error { return repo.SaveTrackListVolume(boss, 90) },
		} {
			if err := save(); err != nil {
				t.Fatalf("save failed: %v", err)
			}
		}

		state, err := repo.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if state.MasterVolume == nil || *state.MasterVolume != 35 {
			t.Errorf("expected master volume 35, got %v", state.MasterVolume)
		}
		if len(state.TrackLists) != 2 || state.TrackLists[bards] != 25 || state.TrackLists[boss] != 90 {
			t.Errorf("unexpected track lists %v", state.TrackLists)
		}
	})

	t.Run("survives reopening", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state", "mixer.db")

		db, err := shared.NewDatabase(path)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		repo, err := NewStateRepository(db)
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}
		if err := repo.SaveMasterVolume(12); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		db.Close()

		db, err = shared.NewDatabase(path)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()
		repo, err = NewStateRepository(db)
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}

		state, err := repo.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if state.MasterVolume == nil || *state.MasterVolume != 12 {
			t.Errorf("expected master volume 12, got %v", state.MasterVolume)
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		repo, err := NewStateRepository(db)
		if err != nil {
			t.Fatalf("failed to create repository: %v", err)
		}
		db.Close()

		if err := repo.SaveMasterVolume(10); err == nil {
			t.Error("expected an error saving to a closed database")
		}
		if _, err := repo.Load(); err == nil {
			t.Error("expected an error loading from a closed database")
		}
	})
}
