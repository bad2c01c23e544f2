package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/connection"
	"github.com/desertthunder/musicctl/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	dialer     connection.Dialer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	// Dialer replaces the websocket dialer built from the config.
	Dialer connection.Dialer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		dialer:     opts.Dialer,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tuiCommand, shellCommand, watchCommand, sendCommand, openCommand,
		serveCommand, discoverCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Setup loads the configuration named by --config and applies the log level.
//
// A missing file is not an error: the embedded example configuration is used instead.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else if errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	} else {
		return ctx, fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
	}

	name := r.config.Log.Level
	if flag := cmd.String("log-level"); flag != "" {
		name = flag
	}
	level, err := shared.ParseLogLevel(name)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, level)

	return ctx, nil
}

// SetLogger replaces the logger, keeping the current level.
func (r *Runner) SetLogger(l *log.Logger) {
	shared.SetLogLevel(l, r.logger.GetLevel())
	r.logger = l
}

// newManager builds a connection manager for the configured server.
func (r *Runner) newManager() (*connection.Manager, error) {
	target, err := connection.TargetURL(r.config.Server.Origin, r.config.Server.Path)
	if err != nil {
		return nil, err
	}

	dialer := r.dialer
	if dialer == nil {
		dialer = connection.NewWebsocketDialer(r.config.Server.HandshakeTimeout)
	}

	return connection.NewManager(connection.ManagerOpts{Target: target, Dialer: dialer, Logger: r.logger}), nil
}

func (r *Runner) slots() []client.Slot {
	return client.Layout(r.config)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return r.writeBytes(output)
}

// writeBytes writes data and ends it with a newline.
func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if len(data) > 0 && data[len(data)-1] == '\n' {
		return nil
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
