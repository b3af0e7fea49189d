package intake

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/kingrea/techfest/internal/config"
)

const (
	// DefaultHost is the loopback interface used when no host override is provided.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default TCP port for the intake server.
	DefaultPort = 8787
	// DefaultMaxBodyBytes limits registration payloads to 64 KiB.
	DefaultMaxBodyBytes int64 = 64 << 10
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
	// DefaultListLimit caps GET /registrations when no limit is given.
	DefaultListLimit = 50
)

// Settings captures runtime configuration for the intake HTTP server.
type Settings struct {
	Enabled      bool
	Host         string
	Port         int
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type settingsEnv struct {
	Enabled      *bool         `env:"TECHFEST_INTAKE_ENABLED"`
	ReadTimeout  time.Duration `env:"TECHFEST_INTAKE_READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"TECHFEST_INTAKE_WRITE_TIMEOUT"`
}

// SettingsFromConfig builds Settings from the project's .techfest config and environment overrides.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	settings := Settings{
		Enabled:      true,
		Host:         DefaultHost,
		Port:         DefaultPort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}
	if cfg != nil {
		raw := cfg.Project.Intake
		settings.Enabled = cfg.IntakeEnabled()
		if host := strings.TrimSpace(raw.Host); host != "" {
			settings.Host = host
		}
		if isValidPort(raw.Port) {
			settings.Port = raw.Port
		}
		if raw.MaxBodyBytes > 0 {
			settings.MaxBodyBytes = raw.MaxBodyBytes
		}
	}
	if err := settings.applyEnvOverrides(); err != nil {
		return Settings{}, err
	}
	settings.normalize()
	return settings, nil
}

func (s *Settings) applyEnvOverrides() error {
	var overrides settingsEnv
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("intake: parse env: %w", err)
	}
	if overrides.Enabled != nil {
		s.Enabled = *overrides.Enabled
	}
	if overrides.ReadTimeout > 0 {
		s.ReadTimeout = overrides.ReadTimeout
	}
	if overrides.WriteTimeout > 0 {
		s.WriteTimeout = overrides.WriteTimeout
	}
	return nil
}

func (s *Settings) normalize() {
	if s == nil {
		return
	}
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if !isValidPort(s.Port) {
		s.Port = DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
