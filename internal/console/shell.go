package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/connection"
	"github.com/desertthunder/musicctl/internal/formatter"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
)

// Session is the part of [connection.Manager] the shell drives.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect()
	State() connection.State
	Target() string
}

// Command describes one shell command for help and completion.
type Command struct {
	Name  string
	Args  string
	Usage string
}

// Commands lists the shell commands in help order.
var Commands = []Command{
	{Name: "master", Args: "VOLUME", Usage: "set the master volume"},
	{Name: "volume", Args: "GROUP TRACKLIST VOLUME", Usage: "set a track list volume"},
	{Name: "play", Args: "GROUP TRACKLIST", Usage: "play a track list"},
	{Name: "stop", Usage: "stop the music"},
	{Name: "connect", Usage: "connect to the music server"},
	{Name: "disconnect", Usage: "close the connection"},
	{Name: "status", Args: "[text|json|csv]", Usage: "show connection and mixer state"},
	{Name: "help", Usage: "show this help"},
	{Name: "quit", Usage: "leave the shell"},
}

// ShellOpts contains configuration options for creating a Shell.
type ShellOpts struct {
	Console *Console
	Sender  *client.Sender
	Session Session
}

// Shell interprets one command line at a time.
type Shell struct {
	console *Console
	sender  *client.Sender
	session Session
}

// NewShell creates a Shell.
func NewShell(opts ShellOpts) *Shell {
	return &Shell{console: opts.Console, sender: opts.Sender, session: opts.Session}
}

// Exec runs line. It reports quit when the user asked to leave.
//
// Volume changes are only sent; the displayed values change when the server echoes them.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "master":
		v, err := ints(args, "VOLUME")
		if err != nil {
			return false, err
		}
		return false, s.sender.CommitMasterVolume(v[0])
	case "volume", "vol":
		v, err := ints(args, "GROUP", "TRACKLIST", "VOLUME")
		if err != nil {
			return false, err
		}
		addr := protocol.Address{Group: v[0], TrackList: v[1]}
		ctl, ok := s.console.Control(addr)
		if !ok {
			return false, fmt.Errorf("%w: no track list at %s", shared.ErrInvalidArgument, addr)
		}
		return false, s.sender.CommitTrackListVolume(ctl, v[2])
	case "play":
		v, err := ints(args, "GROUP", "TRACKLIST")
		if err != nil {
			return false, err
		}
		return false, s.sender.Play(protocol.Address{Group: v[0], TrackList: v[1]})
	case "stop":
		return false, s.sender.Stop()
	case "connect":
		if err := s.session.Connect(ctx); err != nil {
			return false, err
		}
		s.console.Println("connected to " + s.session.Target())
		return false, nil
	case "disconnect":
		s.session.Disconnect()
		s.console.Println("disconnected")
		return false, nil
	case "status":
		return false, s.status(args)
	case "help", "?":
		s.console.Println(Help())
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s", shared.ErrUnknownCommand, name)
	}
}

func (s *Shell) status(args []string) error {
	st := s.console.Status()
	st.Connection = s.session.State().String()
	st.Target = s.session.Target()

	format := "text"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	var (
		out []byte
		err error
	)
	switch format {
	case "text":
		out = formatter.StatusText(st)
	case "json":
		out, err = formatter.StatusJSON(st, true)
	case "csv":
		out, err = formatter.StatusCSV(st)
	default:
		return fmt.Errorf("%w: unknown status format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}
	s.console.Println(strings.TrimRight(string(out), "\n"))
	return nil
}

// Help renders the command list.
func Help() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, c := range Commands {
		usage := strings.TrimSpace(c.Name + " " + c.Args)
		b.WriteString(fmt.Sprintf("  %-32s %s\n", usage, c.Usage))
	}
	return strings.TrimRight(b.String(), "\n")
}

func ints(args []string, names ...string) ([]int, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.Join(names[len(args):], " "))
	}
	if len(args) > len(names) {
		return nil, fmt.Errorf("%w: unexpected %q", shared.ErrInvalidArgument, strings.Join(args[len(names):], " "))
	}

	out := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a whole number, got %q", shared.ErrInvalidArgument, name, args[i])
		}
		out[i] = v
	}
	return out, nil
}
