package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/connection"
	"github.com/desertthunder/musicctl/internal/console"
	"github.com/desertthunder/musicctl/internal/shared"
)

// shellSession is everything one prompt needs.
type shellSession struct {
	manager *connection.Manager
	console *console.Console
	router  *client.Router
	shell   *console.Shell
	logger  *log.Logger
}

func (r *Runner) newShellSession(out io.Writer) (*shellSession, error) {
	manager, err := r.newManager()
	if err != nil {
		return nil, err
	}

	c := console.New(console.ConsoleOpts{
		Out:          out,
		MasterVolume: r.config.MasterVolume,
		Slots:        r.slots(),
		Echo:         true,
	})
	sender := client.NewSender(client.SenderOpts{
		Link:       manager,
		Notifier:   c,
		Logger:     r.logger,
		CommandKey: r.config.Server.CommandKey,
	})

	return &shellSession{
		manager: manager,
		console: c,
		router:  client.NewRouter(client.RouterOpts{Surface: c, Notifier: c, Logger: r.logger}),
		shell:   console.NewShell(console.ShellOpts{Console: c, Sender: sender, Session: manager}),
		logger:  shared.WithLogger(r.logger, "component", "shell"),
	}, nil
}

// loop applies manager events one at a time until ctx is done.
func (s *shellSession) loop(ctx context.Context, events <-chan event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			switch {
			case e.opened:
				s.logger.Debug("connection opened")
			case e.closed:
				if e.err != nil && !errors.Is(e.err, shared.ErrDialFailed) {
					s.console.Println(fmt.Sprintf("connection closed: %v", e.err))
				}
			default:
				_ = s.router.Dispatch(e.frame)
			}
		}
	}
}

// exec runs line and prints its error, unless the sender already showed it as a notification.
func (s *shellSession) exec(ctx context.Context, line string) (quit bool) {
	quit, err := s.shell.Exec(ctx, line)
	if err != nil && !errors.Is(err, shared.ErrNotConnected) {
		s.console.Println(fmt.Sprintf("error: %v", err))
	}
	return quit
}

// Shell runs an interactive prompt against the music server.
func (r *Runner) Shell(ctx context.Context, cmd *cli.Command) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "musicctl> ",
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start prompt: %w", err)
	}
	defer rl.Close()

	// Lines printed while the user types must not garble the prompt.
	r.SetLogger(shared.NewLogger(rl.Stderr()))

	s, err := r.newShellSession(rl.Stdout())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.manager.Shutdown()
	}()

	go s.loop(ctx, subscribe(ctx, s.manager))

	if !cmd.Bool("no-connect") {
		s.exec(ctx, "connect")
	}
	s.console.Println(`type "help" for commands`)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if s.exec(ctx, line) {
			return nil
		}
	}
}

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(console.Commands))
	for _, c := range console.Commands {
		if c.Name == "status" {
			items = append(items, readline.PcItem(c.Name,
				readline.PcItem("text"), readline.PcItem("json"), readline.PcItem("csv")))
			continue
		}
		items = append(items, readline.PcItem(c.Name))
	}
	return readline.NewPrefixCompleter(items...)
}
