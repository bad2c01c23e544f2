// Package discovery advertises and finds music servers on the local network over mDNS.
package discovery

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/grandcat/zeroconf"

	"github.com/desertthunder/musicctl/internal/shared"
)

const (
	Service = "_musicctl._tcp"
	Domain  = "local."
)

// Entry is one advertised server.
type Entry struct {
	Instance string `json:"instance"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Path     string `json:"path"`
}

// Origin is the http origin to put in the config's server.origin.
func (e Entry) Origin() string {
	return (&url.URL{Scheme: "http", Host: net.JoinHostPort(e.Host, strconv.Itoa(e.Port))}).String()
}

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers name on every interface. The websocket path travels in a "path=" TXT record.
func Advertise(name string, port int, path string) (*Advertisement, error) {
	srv, err := zeroconf.Register(name, Service, Domain, port, []string{"path=" + path}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDiscovery, err)
	}
	return &Advertisement{server: srv}, nil
}

// Stop withdraws the registration.
func (a *Advertisement) Stop() {
	a.server.Shutdown()
}

// Browse reports every server found until ctx is done. Each instance is reported once.
func Browse(ctx context.Context, logger *log.Logger, found func(Entry)) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("%w: failed to initialize resolver: %v", shared.ErrDiscovery, err)
	}

	logger = shared.WithLogger(logger, "component", "discovery")
	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		seen := make(map[string]bool)
		for {
			select {
			case se, ok := <-entries:
				if !ok {
					return
				}
				e, ok := toEntry(se)
				if !ok || seen[e.Instance] {
					continue
				}
				seen[e.Instance] = true
				logger.Debug("discovered", "instance", e.Instance, "origin", e.Origin())
				found(e)
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, Service, Domain, entries); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDiscovery, err)
	}
	<-ctx.Done()
	<-done
	return nil
}

// toEntry keeps service entries that carry an address, preferring IPv4.
func toEntry(se *zeroconf.ServiceEntry) (Entry, bool) {
	if se == nil {
		return Entry{}, false
	}

	e := Entry{Instance: se.Instance, Port: se.Port, Path: "/"}
	switch {
	case len(se.AddrIPv4) > 0:
		e.Host = se.AddrIPv4[0].String()
	case len(se.AddrIPv6) > 0:
		e.Host = se.AddrIPv6[0].String()
	default:
		return Entry{}, false
	}

	for _, txt := range se.Text {
		if v, ok := strings.CutPrefix(txt, "path="); ok && v != "" {
			e.Path = v
		}
	}
	return e, true
}
