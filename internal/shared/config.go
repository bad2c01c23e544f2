package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	MasterVolume int           `toml:"master_volume"`
	Server       ServerConfig  `toml:"server"`
	Serve        ServeConfig   `toml:"serve"`
	Log          LogConfig     `toml:"log"`
	UI           UIConfig      `toml:"ui"`
	Groups       []GroupConfig `toml:"groups"`
}

// ServerConfig describes where the music server lives.
//
// CommandKey is the JSON key outbound commands carry their tag under: "type" or "action".
type ServerConfig struct {
	Origin           string        `toml:"origin"`
	Path             string        `toml:"path"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout"`
	CommandKey       string        `toml:"command_key"`
}

// ServeConfig configures the stand-in mixer started by the serve command.
//
// RateLimit is commands per second per peer; StateFile, when set, keeps volumes in a SQLite database.
type ServeConfig struct {
	Listen    string  `toml:"listen"`
	Advertise bool    `toml:"advertise"`
	Name      string  `toml:"name"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
	StateFile string  `toml:"state_file"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// UIConfig contains front end settings.
type UIConfig struct {
	ToastDuration time.Duration `toml:"toast_duration"`
}

// GroupConfig mirrors a music group on the server.
//
// Sort defaults to true: the server orders track lists by name before assigning indices.
type GroupConfig struct {
	Name       string            `toml:"name"`
	Sort       *bool             `toml:"sort"`
	TrackLists []TrackListConfig `toml:"track_lists"`
}

// TrackListConfig mirrors a track list on the server.
type TrackListConfig struct {
	Name   string `toml:"name"`
	Volume *int   `toml:"volume"`
}

// Sorted reports whether the group's track lists are ordered by name.
func (g GroupConfig) Sorted() bool {
	return g.Sort == nil || *g.Sort
}

// Ordered returns the track lists in server index order.
func (g GroupConfig) Ordered() []TrackListConfig {
	lists := make([]TrackListConfig, len(g.TrackLists))
	copy(lists, g.TrackLists)
	if g.Sorted() {
		sort.SliceStable(lists, func(i, j int) bool { return lists[i].Name < lists[j].Name })
	}
	return lists
}

// InitialVolume returns the configured volume, 100 when unset.
func (t TrackListConfig) InitialVolume() int {
	if t.Volume == nil {
		return 100
	}
	return *t.Volume
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.Server.Origin == "" {
		return fmt.Errorf("%w: server.origin is required", ErrInvalidConfig)
	}
	if c.MasterVolume < 0 || c.MasterVolume > 100 {
		return fmt.Errorf("%w: master_volume %d not in 0-100", ErrInvalidConfig, c.MasterVolume)
	}
	if c.Server.CommandKey != "type" && c.Server.CommandKey != "action" {
		return fmt.Errorf("%w: server.command_key must be \"type\" or \"action\", got %q", ErrInvalidConfig, c.Server.CommandKey)
	}
	if c.Serve.RateLimit < 0 || c.Serve.Burst < 0 {
		return fmt.Errorf("%w: serve.rate_limit and serve.burst must not be negative", ErrInvalidConfig)
	}
	if c.Server.HandshakeTimeout < 0 {
		return fmt.Errorf("%w: server.handshake_timeout must not be negative", ErrInvalidConfig)
	}
	if c.UI.ToastDuration < 0 {
		return fmt.Errorf("%w: ui.toast_duration must not be negative", ErrInvalidConfig)
	}
	for i, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("%w: group %d has no name", ErrInvalidConfig, i)
		}
		for j, tl := range g.TrackLists {
			if tl.Name == "" {
				return fmt.Errorf("%w: group %q track list %d has no name", ErrInvalidConfig, g.Name, j)
			}
			if v := tl.InitialVolume(); v < 0 || v > 100 {
				return fmt.Errorf("%w: group %q track list %q volume %d not in 0-100", ErrInvalidConfig, g.Name, tl.Name, v)
			}
		}
	}
	return nil
}

// withDefaults fills zero values that have a meaningful default.
func (c *Config) withDefaults() *Config {
	if c.Server.Path == "" {
		c.Server.Path = "/"
	}
	if c.Server.HandshakeTimeout == 0 {
		c.Server.HandshakeTimeout = 10 * time.Second
	}
	if c.Server.CommandKey == "" {
		c.Server.CommandKey = "type"
	}
	if c.Serve.Listen == "" {
		c.Serve.Listen = "127.0.0.1:8080"
	}
	if c.Serve.Name == "" {
		c.Serve.Name = "musicctl"
	}
	if c.Serve.RateLimit == 0 {
		c.Serve.RateLimit = 20
	}
	if c.Serve.Burst == 0 {
		c.Serve.Burst = 10
	}
	if c.UI.ToastDuration == 0 {
		c.UI.ToastDuration = 5 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return c
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{MasterVolume: 100}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.withDefaults().Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return config.withDefaults()
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
