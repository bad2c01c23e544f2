package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/formatter"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
)

// Watch prints every inbound event until interrupted, the server hangs up or --count events were printed.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	asJSON := cmd.Bool("json")
	limit := cmd.Int("count")
	if limit < 0 {
		return fmt.Errorf("%w: --count must not be negative", shared.ErrInvalidFlag)
	}

	manager, err := r.newManager()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		manager.Shutdown()
	}()

	events := subscribe(ctx, manager)
	if err := manager.Connect(ctx); err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "component", "watch")
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			switch {
			case e.opened:
				logger.Info("watching", "target", manager.Target())
				continue
			case e.closed:
				if e.err == nil {
					return nil
				}
				return e.err
			}

			event, action, err := protocol.Decode(e.frame)
			if err != nil {
				if errors.Is(err, shared.ErrUnknownAction) {
					logger.Warn("unknown action", "action", action)
				} else {
					logger.Warn("malformed frame", "action", action, "err", err)
				}
				continue
			}

			if err := r.writeEvent(event, asJSON); err != nil {
				return err
			}

			seen++
			if limit > 0 && seen >= limit {
				return nil
			}
		}
	}
}

func (r *Runner) writeEvent(e protocol.Event, asJSON bool) error {
	if !asJSON {
		return r.writePlain("%s\n", formatter.EventText(e))
	}

	data, err := formatter.EventJSON(e)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}
