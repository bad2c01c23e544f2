package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/connection"
	"github.com/desertthunder/musicctl/internal/shared"
)

var openBrowser = shared.OpenBrowser

// Open opens the music server's page in the system browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	target, err := connection.TargetURL(r.config.Server.Origin, r.config.Server.Path)
	if err != nil {
		return err
	}

	page := connection.HTTPOrigin(target)
	r.logger.Info("opening browser", "url", page)
	return openBrowser(page)
}
