package console

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/connection"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
	tu "github.com/desertthunder/musicctl/internal/testing"
)

var slots = []client.Slot{
	{Address: protocol.Address{Group: 0, TrackList: 0}, Group: "Tavern", Name: "Ambience", Volume: 60},
	{Address: protocol.Address{Group: 0, TrackList: 1}, Group: "Tavern", Name: "Bards", Volume: 100},
	{Address: protocol.Address{Group: 1, TrackList: 0}, Group: "Combat", Name: "Skirmish", Volume: 100},
}

func quietLogger() *log.Logger {
	l := shared.NewLogger(nil)
	l.SetLevel(log.FatalLevel)
	return l
}

type fixture struct {
	out     *bytes.Buffer
	console *Console
	router  *client.Router
	shell   *Shell
	manager *connection.Manager
	dialer  *tu.FakeDialer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	out := &bytes.Buffer{}
	c := New(ConsoleOpts{Out: out, MasterVolume: 100, Slots: slots})
	dialer := &tu.FakeDialer{}
	manager := connection.NewManager(connection.ManagerOpts{
		Target: &url.URL{Scheme: "ws", Host: "music.test", Path: "/"},
		Dialer: dialer,
		Logger: quietLogger(),
	})
	t.Cleanup(manager.Shutdown)

	sender := client.NewSender(client.SenderOpts{Link: manager, Notifier: c, Logger: quietLogger()})
	return &fixture{
		out:     out,
		console: c,
		router:  client.NewRouter(client.RouterOpts{Surface: c, Notifier: c, Logger: quietLogger()}),
		shell:   NewShell(ShellOpts{Console: c, Sender: sender, Session: manager}),
		manager: manager,
		dialer:  dialer,
	}
}

func (f *fixture) exec(t *testing.T, line string) error {
	t.Helper()
	quit, err := f.shell.Exec(context.Background(), line)
	if quit {
		t.Fatalf("%q should not quit", line)
	}
	return err
}

func TestConsole(t *testing.T) {
	t.Run("starts from the configured layout", func(t *testing.T) {
		f := newFixture(t)
		st := f.console.Status()

		if st.MasterVolume != 100 || st.Playing != nil {
			t.Errorf("unexpected initial status %+v", st)
		}
		if len(st.TrackLists) != 3 || st.TrackLists[0].Volume != 60 || st.TrackLists[2].Group != "Combat" {
			t.Errorf("unexpected track lists %+v", st.TrackLists)
		}
	})

	t.Run("router updates the widgets", func(t *testing.T) {
		f := newFixture(t)

		frames := []string{
			`{"action":"setMusicMasterVolume","volume":40}`,
			`{"action":"setTrackListVolume","groupIndex":0,"trackListIndex":1,"volume":25}`,
			`{"action":"nowPlaying","groupIndex":1,"groupName":"Combat","trackListIndex":0,"trackName":"Skirmish"}`,
		}
		for _, frame := range frames {
			if err := f.router.Dispatch([]byte(frame)); err != nil {
				t.Fatalf("dispatch %s: %v", frame, err)
			}
		}

		st := f.console.Status()
		if st.MasterVolume != 40 {
			t.Errorf("expected master 40, got %d", st.MasterVolume)
		}
		if st.TrackLists[1].Volume != 25 || st.TrackLists[0].Volume != 60 {
			t.Errorf("only 0/1 should change, got %+v", st.TrackLists)
		}
		if st.Playing == nil || st.Playing.TrackName != "Skirmish" {
			t.Errorf("expected Skirmish playing, got %+v", st.Playing)
		}
		if !strings.Contains(f.out.String(), "[Combat] Now playing Skirmish.") {
			t.Errorf("expected a notification line, got %q", f.out.String())
		}

		_ = f.router.Dispatch([]byte(`{"action":"musicStopped"}`))
		if f.console.Status().Playing != nil {
			t.Error("indicator should be cleared")
		}
	})

	t.Run("echo prints volume changes", func(t *testing.T) {
		out := &bytes.Buffer{}
		c := New(ConsoleOpts{Out: out, Slots: slots, Echo: true})
		router := client.NewRouter(client.RouterOpts{Surface: c, Notifier: c, Logger: quietLogger()})

		_ = router.Dispatch([]byte(`{"action":"setMusicMasterVolume","volume":40}`))
		_ = router.Dispatch([]byte(`{"action":"setTrackListVolume","groupIndex":1,"trackListIndex":0,"volume":5}`))

		want := "master volume 40%\ntrack list 1/0 volume 5%\n"
		if out.String() != want {
			t.Errorf("expected %q, got %q", want, out.String())
		}
	})

	t.Run("status snapshot is a copy", func(t *testing.T) {
		f := newFixture(t)
		f.console.Indicator().SetPlaying(protocol.NowPlaying{TrackName: "Bards"})
		st := f.console.Status()
		f.console.Indicator().SetStopped()

		if st.Playing == nil || st.Playing.TrackName != "Bards" {
			t.Errorf("snapshot should keep the old track, got %+v", st.Playing)
		}
	})
}

func TestShell(t *testing.T) {
	t.Run("commands while disconnected notify once each", func(t *testing.T) {
		f := newFixture(t)

		for _, line := range []string{"master 50", "volume 0 1 20", "play 0 0", "stop"} {
			if err := f.exec(t, line); !errors.Is(err, shared.ErrNotConnected) {
				t.Errorf("%q: expected ErrNotConnected, got %v", line, err)
			}
		}
		if got := strings.Count(f.out.String(), "["+client.TitleNotConnected+"]"); got != 4 {
			t.Errorf("expected 4 notifications, got %d in %q", got, f.out.String())
		}
	})

	t.Run("connected commands write frames", func(t *testing.T) {
		f := newFixture(t)
		if err := f.exec(t, "connect"); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if !strings.Contains(f.out.String(), "connected to ws://music.test/") {
			t.Errorf("expected a connected line, got %q", f.out.String())
		}

		for _, line := range []string{"master 50", "VOLUME 1 0 20", "play 0 1", "stop"} {
			if err := f.exec(t, line); err != nil {
				t.Fatalf("%q failed: %v", line, err)
			}
		}

		want := []string{
			`{"type":"setMusicMasterVolume","volume":50}`,
			`{"groupIndex":1,"trackListIndex":0,"type":"setTrackListVolume","volume":20}`,
			`{"groupIndex":0,"trackListIndex":1,"type":"playMusic"}`,
			`{"type":"stopMusic"}`,
		}
		got := f.dialer.Last().Written()
		if len(got) != len(want) {
			t.Fatalf("expected %d frames, got %v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("frame %d = %s, want %s", i, got[i], want[i])
			}
		}

		if st := f.console.Status(); st.MasterVolume != 100 {
			t.Errorf("master should wait for the server echo, got %d", st.MasterVolume)
		}
	})

	t.Run("disconnect", func(t *testing.T) {
		f := newFixture(t)
		_ = f.exec(t, "connect")
		if err := f.exec(t, "disconnect"); err != nil {
			t.Fatalf("disconnect failed: %v", err)
		}
		if f.manager.State() != connection.Disconnected {
			t.Errorf("expected disconnected, got %v", f.manager.State())
		}
		if !f.dialer.Last().Closed() {
			t.Error("connection should be closed")
		}
	})

	t.Run("connect failure is returned", func(t *testing.T) {
		f := newFixture(t)
		f.dialer.Err = errors.New("refused")
		if err := f.exec(t, "connect"); !errors.Is(err, shared.ErrDialFailed) {
			t.Errorf("expected ErrDialFailed, got %v", err)
		}
	})

	t.Run("argument errors", func(t *testing.T) {
		tc := []struct {
			line string
			want error
		}{
			{line: "master", want: shared.ErrMissingArgument},
			{line: "master loud", want: shared.ErrInvalidArgument},
			{line: "master 1 2", want: shared.ErrInvalidArgument},
			{line: "volume 0 1", want: shared.ErrMissingArgument},
			{line: "volume 9 9 50", want: shared.ErrInvalidArgument},
			{line: "status xml", want: shared.ErrInvalidArgument},
			{line: "dance", want: shared.ErrUnknownCommand},
		}

		f := newFixture(t)
		for _, tt := range tc {
			if err := f.exec(t, tt.line); !errors.Is(err, tt.want) {
				t.Errorf("%q: expected %v, got %v", tt.line, tt.want, err)
			}
		}
	})

	t.Run("out of range volume is rejected before the connection check", func(t *testing.T) {
		f := newFixture(t)
		if err := f.exec(t, "master 101"); !errors.Is(err, shared.ErrInvalidVolume) {
			t.Errorf("expected ErrInvalidVolume, got %v", err)
		}
		if f.out.Len() != 0 {
			t.Errorf("expected no notification, got %q", f.out.String())
		}
	})

	t.Run("status formats", func(t *testing.T) {
		f := newFixture(t)

		_ = f.exec(t, "status")
		if out := f.out.String(); !strings.Contains(out, "Connection: disconnected") || !strings.Contains(out, "Bards") {
			t.Errorf("unexpected text status %q", out)
		}

		f.out.Reset()
		_ = f.exec(t, "status json")
		if !strings.Contains(f.out.String(), `"connection": "disconnected"`) {
			t.Errorf("unexpected JSON status %q", f.out.String())
		}

		f.out.Reset()
		_ = f.exec(t, "status csv")
		if !strings.HasPrefix(f.out.String(), "Group Index,") {
			t.Errorf("unexpected CSV status %q", f.out.String())
		}
	})

	t.Run("help, blank and quit", func(t *testing.T) {
		f := newFixture(t)
		if err := f.exec(t, "   "); err != nil || f.out.Len() != 0 {
			t.Errorf("blank line should be ignored, got %v %q", err, f.out.String())
		}

		_ = f.exec(t, "help")
		for _, c := range Commands {
			if !strings.Contains(f.out.String(), c.Name) {
				t.Errorf("help should mention %s", c.Name)
			}
		}

		quit, err := f.shell.Exec(context.Background(), "quit")
		if !quit || err != nil {
			t.Errorf("expected quit, got %v %v", quit, err)
		}
	})
}
