package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/formatter"
	"github.com/desertthunder/musicctl/internal/shared"
)

// ConfigInit writes the embedded example configuration to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\n", path)
}

// ConfigShow prints the effective configuration, defaults included.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(r.config, true)
	}

	data, err := r.config.Encode()
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// ConfigLayout lists the configured track lists at the addresses the server will use.
func (r *Runner) ConfigLayout(ctx context.Context, cmd *cli.Command) error {
	status := formatter.Status{MasterVolume: r.config.MasterVolume}
	for _, s := range r.slots() {
		status.TrackLists = append(status.TrackLists, formatter.TrackListStatus{
			Address: s.Address,
			Group:   s.Group,
			Name:    s.Name,
			Volume:  s.Volume,
		})
	}

	var (
		data []byte
		err  error
	)
	switch format := strings.ToLower(cmd.String("format")); format {
	case "text", "":
		data = formatter.StatusText(status)
	case "json":
		data, err = formatter.StatusJSON(status, true)
	case "csv":
		data, err = formatter.StatusCSV(status)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}
