package main

import (
	"context"
	"fmt"
	"net"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/discovery"
	"github.com/desertthunder/musicctl/internal/repositories"
	"github.com/desertthunder/musicctl/internal/server"
	"github.com/desertthunder/musicctl/internal/shared"
)

// Serve runs the stand-in music server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := r.config.Serve.Listen
	if cmd.IsSet("listen") {
		addr = cmd.String("listen")
	}
	finishAfter := cmd.Duration("finish-after")
	if finishAfter < 0 {
		return fmt.Errorf("%w: --finish-after must not be negative", shared.ErrInvalidFlag)
	}

	master, slots := r.config.MasterVolume, r.slots()
	var store server.Store
	if path := r.stateFile(cmd); path != "" {
		db, err := shared.NewDatabase(path)
		if err != nil {
			return err
		}
		defer db.Close()

		repo, err := repositories.NewStateRepository(db)
		if err != nil {
			return err
		}
		saved, err := repo.Load()
		if err != nil {
			return err
		}
		master = restore(saved, master, slots)
		store = repo
		r.logger.Info("restored state", "path", path, "track lists", len(saved.TrackLists))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mixer := server.NewMixer(server.MixerOpts{
		MasterVolume: master,
		Slots:        slots,
		FinishAfter:  finishAfter,
		Store:        store,
		Logger:       r.logger,
	})
	srv := server.New(server.ServerOpts{
		Path:      r.config.Server.Path,
		Mixer:     mixer,
		RateLimit: r.config.Serve.RateLimit,
		Burst:     r.config.Serve.Burst,
		Logger:    r.logger,
	})

	if r.config.Serve.Advertise || cmd.Bool("advertise") {
		port := ln.Addr().(*net.TCPAddr).Port
		ad, err := discovery.Advertise(r.config.Serve.Name, port, r.config.Server.Path)
		if err != nil {
			ln.Close()
			return err
		}
		defer ad.Stop()
		r.logger.Info("advertising", "name", r.config.Serve.Name, "service", discovery.Service, "port", port)
	}

	if err := r.writePlain("Serving on ws://%s%s\n", ln.Addr(), r.config.Server.Path); err != nil {
		ln.Close()
		return err
	}
	return srv.Serve(ctx, ln)
}

func (r *Runner) stateFile(cmd *cli.Command) string {
	if cmd.IsSet("state") {
		return cmd.String("state")
	}
	return r.config.Serve.StateFile
}

// restore overwrites configured volumes with saved ones and returns the master volume to start at.
// Saved addresses no longer in the layout are ignored.
func restore(saved repositories.State, master int, slots []client.Slot) int {
	if saved.MasterVolume != nil {
		master = *saved.MasterVolume
	}
	for i, s := range slots {
		if v, ok := saved.TrackLists[s.Address]; ok {
			slots[i].Volume = v
		}
	}
	return master
}
