package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/discovery"
	"github.com/desertthunder/musicctl/internal/shared"
)

// discoverTimeout is how long discover listens by default.
const discoverTimeout = 3 * time.Second

var browse = discovery.Browse

// Discover lists music servers advertised on the local network.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		return fmt.Errorf("%w: --timeout must be positive", shared.ErrInvalidFlag)
	}
	asJSON := cmd.Bool("json")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var entries []discovery.Entry
	err := browse(ctx, r.logger, func(e discovery.Entry) {
		entries = append(entries, e)
		if !asJSON {
			r.writePlain("%-24s %s%s\n", e.Instance, e.Origin(), e.Path)
		}
	})
	if err != nil {
		return err
	}

	if asJSON {
		if entries == nil {
			entries = []discovery.Entry{}
		}
		return r.writeJSON(entries, true)
	}
	if len(entries) == 0 {
		return r.writePlain("No servers found in %s\n", timeout)
	}
	return nil
}
