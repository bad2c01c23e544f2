package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/shared"
)

// sendable lists the shell commands send accepts.
var sendable = []string{"master", "volume", "play", "stop"}

// Send connects, sends one command and disconnects.
//
// The arguments use the shell syntax, e.g. "send volume 0 1 40".
func (r *Runner) Send(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: command (one of %s)", shared.ErrMissingArgument, strings.Join(sendable, ", "))
	}
	if !slices.Contains(sendable, strings.ToLower(args[0])) {
		return fmt.Errorf("%w: %s cannot be sent", shared.ErrUnknownCommand, args[0])
	}

	s, err := r.newShellSession(r.output)
	if err != nil {
		return err
	}
	defer s.manager.Shutdown()

	if err := s.manager.Connect(ctx); err != nil {
		return err
	}

	if _, err := s.shell.Exec(ctx, strings.Join(args, " ")); err != nil {
		return err
	}

	r.logger.Info("sent", "command", args[0], "target", s.manager.Target())
	return nil
}
