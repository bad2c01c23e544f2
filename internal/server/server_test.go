package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/musicctl/internal/client"
	"github.com/desertthunder/musicctl/internal/formatter"
	"github.com/desertthunder/musicctl/internal/protocol"
	"github.com/desertthunder/musicctl/internal/shared"
)

func testSlots() []client.Slot {
	return []client.Slot{
		{Address: protocol.Address{Group: 0, TrackList: 0}, Group: "Tavern", Name: "Ambience", Volume: 40},
		{Address: protocol.Address{Group: 0, TrackList: 1}, Group: "Tavern", Name: "Bards", Volume: 100},
	}
}

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

type frames struct {
	mu  sync.Mutex
	got []string
}

func (f *frames) add(frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, string(frame))
}

func (f *frames) list() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.got...)
}

func newTestMixer(finishAfter time.Duration) (*Mixer, *frames) {
	m := NewMixer(MixerOpts{MasterVolume: 80, Slots: testSlots(), FinishAfter: finishAfter, Logger: quietLogger()})
	f := &frames{}
	m.OnEvent(f.add)
	return m, f
}

func TestMixer(t *testing.T) {
	t.Run("commands publish their events", func(t *testing.T) {
		tc := []struct {
			name     string
			cmd      protocol.Command
			expected string
		}{
			{
				name:     "master volume",
				cmd:      protocol.SetMasterVolume{Volume: 30},
				expected: `{"action":"setMusicMasterVolume","volume":30}`,
			},
			{
				name:     "track list volume",
				cmd:      protocol.SetTrackListVolume{Address: protocol.Address{Group: 0, TrackList: 1}, Volume: 55},
				expected: `{"action":"setTrackListVolume","groupIndex":0,"trackListIndex":1,"volume":55}`,
			},
			{
				name:     "play",
				cmd:      protocol.PlayMusic{Address: protocol.Address{Group: 0, TrackList: 1}},
				expected: `{"action":"nowPlaying","groupIndex":0,"groupName":"Tavern","trackListIndex":1,"trackName":"Bards"}`,
			},
			{
				name:     "stop",
				cmd:      protocol.StopMusic{},
				expected: `{"action":"musicStopped"}`,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				m, f := newTestMixer(0)
				if err := m.Apply(tt.cmd); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got := f.list()
				if len(got) != 1 || got[0] != tt.expected {
					t.Errorf("expected [%s], got %v", tt.expected, got)
				}
			})
		}
	})

	t.Run("rejected commands publish nothing", func(t *testing.T) {
		tc := []struct {
			name     string
			cmd      protocol.Command
			expected error
		}{
			{name: "unknown track list volume", cmd: protocol.SetTrackListVolume{Address: protocol.Address{Group: 3, TrackList: 0}, Volume: 10}, expected: shared.ErrUnknownTrackList},
			{name: "unknown track list play", cmd: protocol.PlayMusic{Address: protocol.Address{Group: 0, TrackList: 9}}, expected: shared.ErrUnknownTrackList},
			{name: "volume out of range", cmd: protocol.SetMasterVolume{Volume: 101}, expected: shared.ErrInvalidVolume},
			{name: "negative address", cmd: protocol.PlayMusic{Address: protocol.Address{Group: -1, TrackList: 0}}, expected: shared.ErrInvalidAddress},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				m, f := newTestMixer(0)
				if err := m.Apply(tt.cmd); !errors.Is(err, tt.expected) {
					t.Errorf("expected %v, got %v", tt.expected, err)
				}
				if got := f.list(); len(got) != 0 {
					t.Errorf("expected no frames, got %v", got)
				}
			})
		}
	})

	t.Run("status follows commands", func(t *testing.T) {
		m, _ := newTestMixer(0)
		m.Apply(protocol.SetMasterVolume{Volume: 25})
		m.Apply(protocol.SetTrackListVolume{Address: protocol.Address{Group: 0, TrackList: 0}, Volume: 10})
		m.Apply(protocol.PlayMusic{Address: protocol.Address{Group: 0, TrackList: 0}})

		s := m.Status()
		if s.MasterVolume != 25 {
			t.Errorf("expected master volume 25, got %d", s.MasterVolume)
		}
		if s.TrackLists[0].Volume != 10 {
			t.Errorf("expected Ambience at 10, got %d", s.TrackLists[0].Volume)
		}
		if s.Playing == nil || s.Playing.TrackName != "Ambience" {
			t.Errorf("expected Ambience playing, got %+v", s.Playing)
		}

		m.Apply(protocol.StopMusic{})
		if s := m.Status(); s.Playing != nil {
			t.Errorf("expected nothing playing after stop, got %+v", s.Playing)
		}
	})

	t.Run("snapshot", func(t *testing.T) {
		m, _ := newTestMixer(0)
		if got := m.Snapshot(); len(got) != 3 {
			t.Fatalf("expected master and two track lists, got %d frames", len(got))
		}

		m.Apply(protocol.PlayMusic{Address: protocol.Address{Group: 0, TrackList: 1}})
		got := m.Snapshot()
		if len(got) != 4 {
			t.Fatalf("expected 4 frames while playing, got %d", len(got))
		}
		if string(got[0]) != `{"action":"setMusicMasterVolume","volume":80}` {
			t.Errorf("expected master volume first, got %s", got[0])
		}
		if !strings.Contains(string(got[3]), `"nowPlaying"`) {
			t.Errorf("expected now playing last, got %s", got[3])
		}
	})

	t.Run("playback finishes on its own", func(t *testing.T) {
		m, f := newTestMixer(10 * time.Millisecond)
		defer m.Close()
		m.Apply(protocol.PlayMusic{Address: protocol.Address{Group: 0, TrackList: 0}})

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if got := f.list(); len(got) == 2 {
				if got[1] != `{"action":"musicFinished"}` {
					t.Errorf("expected musicFinished, got %s", got[1])
				}
				if m.Status().Playing != nil {
					t.Error("expected nothing playing after finish")
				}
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("expected a musicFinished frame, got %v", f.list())
	})

	t.Run("stop cancels the finish", func(t *testing.T) {
		m, f := newTestMixer(20 * time.Millisecond)
		defer m.Close()
		m.Apply(protocol.PlayMusic{Address: protocol.Address{Group: 0, TrackList: 0}})
		m.Apply(protocol.StopMusic{})

		time.Sleep(60 * time.Millisecond)
		got := f.list()
		if len(got) != 2 || got[1] != `{"action":"musicStopped"}` {
			t.Errorf("expected play then stop only, got %v", got)
		}
	})
}

type memStore struct {
	master *int
	lists  map[protocol.Address]int
	err    error
}

func (s *memStore) SaveMasterVolume(v int) error {
	if s.err != nil {
		return s.err
	}
	s.master = &v
	return nil
}

func (s *memStore) SaveTrackListVolume(addr protocol.Address, v int) error {
	if s.err != nil {
		return s.err
	}
	if s.lists == nil {
		s.lists = make(map[protocol.Address]int)
	}
	s.lists[addr] = v
	return nil
}

func TestMixerStore(t *testing.T) {
	t.Run("volume changes are saved", func(t *testing.T) {
		store := &memStore{}
		m := NewMixer(MixerOpts{MasterVolume: 80, Slots: testSlots(), Store: store, Logger: quietLogger()})

		m.Apply(protocol.SetMasterVolume{Volume: 30})
		m.Apply(protocol.SetTrackListVolume{Address: protocol.Address{Group: 0, TrackList: 1}, Volume: 55})
		m.Apply(protocol.PlayMusic{Address: protocol.Address{Group: 0, TrackList: 1}})

		if store.master == nil || *store.master != 30 {
			t.Errorf("expected master volume 30 saved, got %v", store.master)
		}
		if len(store.lists) != 1 || store.lists[protocol.Address{Group: 0, TrackList: 1}] != 55 {
			t.Errorf("expected Bards at 55 saved, got %v", store.lists)
		}
	})

	t.Run("save failures do not reject the change", func(t *testing.T) {
		store := &memStore{err: errors.New("disk full")}
		m := NewMixer(MixerOpts{MasterVolume: 80, Slots: testSlots(), Store: store, Logger: quietLogger()})
		f := &frames{}
		m.OnEvent(f.add)

		if err := m.Apply(protocol.SetMasterVolume{Volume: 30}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if m.Status().MasterVolume != 30 || len(f.list()) != 1 {
			t.Errorf("expected the change to be applied and published")
		}
	})
}

func TestRouter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })

	t.Run("middleware runs in the order added", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/ping", ok)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second, got %v", order)
		}
	})

	t.Run("method filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", ok)

		tc := []struct {
			method   string
			expected int
		}{
			{method: http.MethodGet, expected: http.StatusOK},
			{method: http.MethodHead, expected: http.StatusOK},
			{method: http.MethodPost, expected: http.StatusMethodNotAllowed},
		}

		for _, tt := range tc {
			t.Run(tt.method, func(t *testing.T) {
				rec := httptest.NewRecorder()
				r.ServeHTTP(rec, httptest.NewRequest(tt.method, "/ping", nil))
				if rec.Code != tt.expected {
					t.Errorf("expected %d, got %d", tt.expected, rec.Code)
				}
				if tt.expected == http.StatusMethodNotAllowed && rec.Header().Get("Allow") != http.MethodGet {
					t.Errorf("expected Allow: GET, got %q", rec.Header().Get("Allow"))
				}
			})
		}
	})

	t.Run("routes", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/state", ok)
		r.Handler(&socket{path: "/"})

		if got := strings.Join(r.Routes(), ","); got != "GET /state,* /" {
			t.Errorf("unexpected routes %s", got)
		}
	})

	t.Run("routes match exactly", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/", ok)

		tc := []struct {
			path     string
			expected int
		}{
			{path: "/", expected: http.StatusOK},
			{path: "/favicon.ico", expected: http.StatusNotFound},
			{path: "/state/extra", expected: http.StatusNotFound},
		}

		for _, tt := range tc {
			t.Run(tt.path, func(t *testing.T) {
				rec := httptest.NewRecorder()
				r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
				if rec.Code != tt.expected {
					t.Errorf("expected %d, got %d", tt.expected, rec.Code)
				}
			})
		}
	})

	t.Run("logging records the status", func(t *testing.T) {
		var buf strings.Builder
		logger := shared.NewLogger(&buf)
		logger.SetLevel(log.DebugLevel)

		r := NewBasicRouter()
		r.Use(Logging(logger))
		r.Handle(http.MethodGet, "/missing", http.NotFoundHandler())

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
		if !strings.Contains(buf.String(), "status=404") {
			t.Errorf("expected status=404 in log, got %s", buf.String())
		}
	})
}

type testServer struct {
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, path string) *testServer {
	t.Helper()
	return startServerWith(t, ServerOpts{Path: path})
}

func startServerWith(t *testing.T, opts ServerOpts) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	if opts.Mixer == nil {
		opts.Mixer = NewMixer(MixerOpts{MasterVolume: 80, Slots: testSlots(), Logger: quietLogger()})
	}
	opts.Logger = quietLogger()
	srv := New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	ts := &testServer{addr: ln.Addr().String(), cancel: cancel, done: make(chan error, 1)}
	go func() { ts.done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-ts.done
	})
	return ts
}

func (ts *testServer) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ts.addr+path, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return string(data)
}

// skipSnapshot reads the master volume and both track list volumes every peer gets first.
func skipSnapshot(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	for range 3 {
		readFrame(t, conn)
	}
}

func TestServer(t *testing.T) {
	t.Run("new peers get a snapshot", func(t *testing.T) {
		ts := startServer(t, "/")
		conn := ts.dial(t, "/")

		if got := readFrame(t, conn); got != `{"action":"setMusicMasterVolume","volume":80}` {
			t.Errorf("expected master volume first, got %s", got)
		}
		if got := readFrame(t, conn); !strings.Contains(got, `"trackListIndex":0,"volume":40`) {
			t.Errorf("expected Ambience volume, got %s", got)
		}
		if got := readFrame(t, conn); !strings.Contains(got, `"trackListIndex":1,"volume":100`) {
			t.Errorf("expected Bards volume, got %s", got)
		}
	})

	t.Run("snapshots larger than the peer queue arrive whole", func(t *testing.T) {
		var slots []client.Slot
		for i := range 70 {
			slots = append(slots, client.Slot{
				Address: protocol.Address{Group: 0, TrackList: i},
				Group:   "Hall",
				Name:    fmt.Sprintf("Track %02d", i),
				Volume:  50,
			})
		}
		mixer := NewMixer(MixerOpts{MasterVolume: 80, Slots: slots, Logger: quietLogger()})
		ts := startServerWith(t, ServerOpts{Path: "/", Mixer: mixer})
		conn := ts.dial(t, "/")

		if got := readFrame(t, conn); got != `{"action":"setMusicMasterVolume","volume":80}` {
			t.Errorf("expected master volume first, got %s", got)
		}
		for i := range 70 {
			expected := fmt.Sprintf(`"trackListIndex":%d,"volume":50`, i)
			if got := readFrame(t, conn); !strings.Contains(got, expected) {
				t.Fatalf("frame %d: expected %s, got %s", i+1, expected, got)
			}
		}

		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stopMusic"}`))
		if got := readFrame(t, conn); got != `{"action":"musicStopped"}` {
			t.Errorf("expected the peer to stay connected, got %s", got)
		}
	})

	t.Run("changes are broadcast to every peer", func(t *testing.T) {
		ts := startServer(t, "/")
		a := ts.dial(t, "/")
		skipSnapshot(t, a)
		b := ts.dial(t, "/")
		skipSnapshot(t, b)

		if err := a.WriteMessage(websocket.TextMessage, []byte(`{"type":"setMusicMasterVolume","volume":30}`)); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		expected := `{"action":"setMusicMasterVolume","volume":30}`
		if got := readFrame(t, a); got != expected {
			t.Errorf("sender: expected %s, got %s", expected, got)
		}
		if got := readFrame(t, b); got != expected {
			t.Errorf("other peer: expected %s, got %s", expected, got)
		}
	})

	t.Run("action tagged commands are accepted", func(t *testing.T) {
		ts := startServer(t, "/")
		conn := ts.dial(t, "/")
		skipSnapshot(t, conn)

		conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"playMusic","groupIndex":0,"trackListIndex":1}`))
		if got := readFrame(t, conn); !strings.Contains(got, `"trackName":"Bards"`) {
			t.Errorf("expected Bards playing, got %s", got)
		}
	})

	t.Run("bad frames are skipped", func(t *testing.T) {
		ts := startServer(t, "/")
		conn := ts.dial(t, "/")
		skipSnapshot(t, conn)

		for _, frame := range []string{
			`not json`,
			`{"type":"dance"}`,
			`{"type":"setMusicMasterVolume","volume":500}`,
			`{"type":"playMusic","groupIndex":7,"trackListIndex":0}`,
		} {
			conn.WriteMessage(websocket.TextMessage, []byte(frame))
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stopMusic"}`))

		if got := readFrame(t, conn); got != `{"action":"musicStopped"}` {
			t.Errorf("expected only musicStopped, got %s", got)
		}
	})

	t.Run("commands over the rate limit are dropped", func(t *testing.T) {
		ts := startServerWith(t, ServerOpts{Path: "/", RateLimit: 0.001, Burst: 1})
		conn := ts.dial(t, "/")
		skipSnapshot(t, conn)

		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"setMusicMasterVolume","volume":30}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"setMusicMasterVolume","volume":40}`))

		if got := readFrame(t, conn); got != `{"action":"setMusicMasterVolume","volume":30}` {
			t.Errorf("expected the first command, got %s", got)
		}
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		if _, data, err := conn.ReadMessage(); err == nil {
			t.Errorf("expected the second command to be dropped, got %s", data)
		}
	})

	t.Run("plain requests get the state", func(t *testing.T) {
		ts := startServer(t, "/ws")

		for _, path := range []string{"/ws", "/state"} {
			resp, err := http.Get("http://" + ts.addr + path)
			if err != nil {
				t.Fatalf("GET %s failed: %v", path, err)
			}
			var s formatter.Status
			err = json.NewDecoder(resp.Body).Decode(&s)
			resp.Body.Close()
			if err != nil {
				t.Fatalf("GET %s: failed to decode: %v", path, err)
			}
			if s.MasterVolume != 80 || len(s.TrackLists) != 2 {
				t.Errorf("GET %s: unexpected state %+v", path, s)
			}
		}
	})

	t.Run("unknown paths are not found", func(t *testing.T) {
		ts := startServer(t, "/")

		resp, err := http.Get("http://" + ts.addr + "/favicon.ico")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("shutdown closes peers", func(t *testing.T) {
		ts := startServer(t, "/")
		conn := ts.dial(t, "/")
		skipSnapshot(t, conn)

		ts.cancel()
		if err := <-ts.done; err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
		ts.done <- nil

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err := conn.ReadMessage()
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Errorf("expected going away close, got %v", err)
		}
	})
}
