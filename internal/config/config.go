// Package config handles loading, validation, and merging of report server configuration files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete report server configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Results ResultsConfig `toml:"results"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	// Address the HTTP server listens on
	ListenAddr string `toml:"listenAddr" doc:"Address the HTTP server listens on"`
	// Header carrying the authenticated user, set by the fronting proxy
	AuthHeader string `toml:"authHeader" doc:"Header carrying the authenticated user, set by the fronting proxy"`
	// Users that may see every user's reports
	Admins []string `toml:"admins" doc:"Users that may see every user's reports"`
	// Largest accepted request body in bytes
	MaxRequestBytes int64 `toml:"maxRequestBytes" doc:"Largest accepted request body in bytes"`
	// Directory of the browser front-end served at /, optional
	StaticDir string `toml:"staticDir" doc:"Directory of the browser front-end served at / (optional)"`
	// Seconds to wait for in-flight requests on shutdown
	ShutdownTimeoutSeconds int `toml:"shutdownTimeoutSeconds" doc:"Seconds to wait for in-flight requests on shutdown"`
}

// ResultsConfig describes where result archives live
type ResultsConfig struct {
	// Directory holding <period>.tar.gz archives
	Dir string `toml:"dir" doc:"Directory holding <period>.tar.gz archives" required:"true"`
	// Glob selecting archives inside dir
	Pattern string `toml:"pattern" doc:"Glob selecting archives inside dir (doublestar syntax)"`
	// Suffix of the marker file that triggers a reload
	RenewSuffix string `toml:"renewSuffix" doc:"Suffix of the marker file that triggers a reload"`
	// Whether to watch dir for renew markers
	Watch *bool `toml:"watch" doc:"Whether to watch dir for renew markers"`
	// Archives parsed concurrently at startup
	Workers int `toml:"workers" doc:"Archives parsed concurrently at startup"`
}

// CacheConfig holds the slide deck cache settings
type CacheConfig struct {
	// Lifetime of a rendered slide deck
	SlidesTTLSeconds int `toml:"slidesTTLSeconds" doc:"Lifetime of a rendered slide deck in seconds"`
}

// LogConfig holds logging settings
type LogConfig struct {
	// Minimum log level
	Level string `toml:"level" doc:"Minimum log level" enum:"debug,info,warn,error"`
}

// SlidesTTL returns the deck cache lifetime
func (c *Config) SlidesTTL() time.Duration {
	return time.Duration(c.Cache.SlidesTTLSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown deadline
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// IsAdmin reports whether user is listed in admins
func (c ServerConfig) IsAdmin(user string) bool {
	for _, a := range c.Admins {
		if a == user {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(path string) (*Config, error) {
	// If no path specified, look for config.toml in current directory
	explicitPath := path != ""
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicitPath {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		// Fall back to defaults
		return nil, nil
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	undecoded := metadata.Undecoded()
	if len(undecoded) > 0 {
		var unknownFields []string
		for _, key := range undecoded {
			unknownFields = append(unknownFields, key.String())
		}
		return nil, fmt.Errorf("unknown fields in config: %s", strings.Join(unknownFields, ", "))
	}

	return &cfg, nil
}

// GenerateDefaultConfig creates a minimal config.toml file
func GenerateDefaultConfig(path string) (err error) {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", cerr)
		}
	}()

	content := `# jobreport configuration file

[server]
listenAddr = ":8080"
authHeader = "X-AuthUser"
admins = []

[results]
dir = "/var/lib/jobreport/results"
pattern = "*.tar.gz"
watch = true

[cache]
slidesTTLSeconds = 600
`

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
