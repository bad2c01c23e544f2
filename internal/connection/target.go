package connection

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/musicctl/internal/shared"
)

// TargetURL derives the websocket address from the server origin.
//
// The transport is secure exactly when the origin is. An empty path means "/".
func TargetURL(origin, path string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: origin %q has no host", shared.ErrInvalidConfig, origin)
	}

	target := &url.URL{Host: u.Host}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		target.Scheme = "wss"
	case "http", "ws":
		target.Scheme = "ws"
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedScheme, u.Scheme)
	}

	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target.Path = path

	return target, nil
}

// HTTPOrigin returns the page address matching a websocket target.
func HTTPOrigin(target *url.URL) string {
	scheme := "http"
	if target.Scheme == "wss" {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: target.Host, Path: "/"}).String()
}
