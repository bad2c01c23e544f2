package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/musicctl/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// statePath serves the mixer state as JSON next to the websocket.
const statePath = "/state"

// ServerOpts contains configuration options for creating a Server.
type ServerOpts struct {
	// Path is where the websocket lives. Plain GET requests on it get the mixer state as JSON.
	Path  string
	Mixer *Mixer
	// RateLimit is the number of commands per second each peer may send, with Burst on top.
	RateLimit float64
	Burst     int
	Logger    *log.Logger
}

// Server serves the music protocol over websockets.
type Server struct {
	router *BasicRouter
	hub    *Hub
	mixer  *Mixer
	logger *log.Logger
}

// New creates a Server and wires the mixer's events to its hub.
func New(opts ServerOpts) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}

	logger := shared.WithLogger(opts.Logger, "component", "server")
	hub := NewHub(HubOpts{Snapshot: opts.Mixer.Snapshot, Logger: opts.Logger})
	opts.Mixer.OnEvent(func(frame []byte) { hub.Broadcast(frame) })

	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(&socket{
		path:   opts.Path,
		hub:    hub,
		mixer:  opts.Mixer,
		limit:  rate.Limit(opts.RateLimit),
		burst:  opts.Burst,
		logger: logger,
	})
	if opts.Path != statePath {
		router.Handle(http.MethodGet, statePath, stateHandler(opts.Mixer, logger))
	}

	return &Server{router: router, hub: hub, mixer: opts.Mixer, logger: logger}
}

// Serve accepts connections on ln until ctx is done, then shuts down and disconnects every peer.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	hubCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.hub.Run(hubCtx)

	errs := make(chan error, 1)
	go func() { errs <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String(), "routes", strings.Join(s.router.Routes(), ", "))

	select {
	case err := <-errs:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stop()
	s.mixer.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Logging logs one line per request with its status and duration.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// recorder captures the response status. It still hijacks so websocket upgrades pass through.
type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *recorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
