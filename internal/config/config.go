// internal/config/config.go
//
// This package handles configuration and the .techfest directory structure.
// Every directory the companion runs from gets a .techfest/ folder holding the
// project config, logs and the intake database.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/techfest/internal/registration"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".techfest"

	SubmissionModeHTTP = "http"
	SubmissionModeLog  = "log"

	defaultClassification = "year"
	defaultResetDelay     = 3 * time.Second
	defaultSubmitTimeout  = 10 * time.Second
	defaultIntakeHost     = "127.0.0.1"
	defaultIntakePort     = 8787
	defaultDatabase       = "intake.db"
	defaultMaxBodyBytes   = int64(64 << 10)
)

const defaultProjectConfigYAML = `# techfest project configuration
version: 1

registration:
  # year (1st-4th year of study) or experience (beginner/intermediate/advanced)
  classification: year
  # ask for team name and member count on the last step
  require_team: true
  # clear the form after a successful submission instead of keeping the confirmation
  auto_reset: false
  reset_delay: 3s

submission:
  # http posts to the intake service; log only records the payload locally
  mode: http
  endpoint: http://127.0.0.1:8787/registrations
  timeout: 10s

intake:
  enabled: true
  host: 127.0.0.1
  port: 8787
  database: intake.db
`

// RegistrationConfig controls the wizard variant.
type RegistrationConfig struct {
	Classification string        `yaml:"classification"`
	RequireTeam    *bool         `yaml:"require_team,omitempty"`
	AutoReset      bool          `yaml:"auto_reset"`
	ResetDelay     time.Duration `yaml:"reset_delay"`
}

// SubmissionConfig selects the submission collaborator.
type SubmissionConfig struct {
	Mode     string        `yaml:"mode"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
}

// IntakeConfig describes the intake HTTP service.
type IntakeConfig struct {
	Enabled      *bool  `yaml:"enabled,omitempty"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	MaxBodyBytes int64  `yaml:"max_body_bytes,omitempty"`
}

// ProjectConfig models .techfest/config.yaml.
type ProjectConfig struct {
	Version      int                `yaml:"version"`
	Registration RegistrationConfig `yaml:"registration"`
	Submission   SubmissionConfig   `yaml:"submission"`
	Intake       IntakeConfig       `yaml:"intake"`
}

// envOverrides are applied after the YAML file; unset variables leave the file values alone.
type envOverrides struct {
	SubmitMode     string `env:"TECHFEST_SUBMIT_MODE"`
	SubmitEndpoint string `env:"TECHFEST_SUBMIT_ENDPOINT"`
	IntakeHost     string `env:"TECHFEST_INTAKE_HOST"`
	IntakePort     int    `env:"TECHFEST_INTAKE_PORT"`
	IntakeDatabase string `env:"TECHFEST_INTAKE_DB"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory the binary was started from
	ProjectDir string

	// StateDir is ProjectDir/.techfest
	StateDir string

	Project ProjectConfig
}

// InitDir creates the .techfest directory structure in the given project directory.
//
// Structure created:
// .techfest/
// ├── logs/         <- session journal and application log
// ├── state/        <- intake database lives here by default
// └── config.yaml
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// New creates a Config populated with project settings and env overrides.
func New(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StateDir:   filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// FestivalPath is where an optional festival content override is looked up.
func (c *Config) FestivalPath() string {
	return filepath.Join(c.StateDir, "festival.yaml")
}

// DatabasePath resolves the intake database location.
func (c *Config) DatabasePath() string {
	db := c.Project.Intake.Database
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(c.StateDir, "state", db)
}

// RequireTeam reports whether team fields are part of the last step.
func (c *Config) RequireTeam() bool {
	if c.Project.Registration.RequireTeam == nil {
		return true
	}
	return *c.Project.Registration.RequireTeam
}

// IntakeEnabled reports whether techfest-intake should serve requests.
func (c *Config) IntakeEnabled() bool {
	if c.Project.Intake.Enabled == nil {
		return true
	}
	return *c.Project.Intake.Enabled
}

// Profile builds the wizard variant described by the registration section.
func (c *Config) Profile() (registration.Profile, error) {
	classification, err := registration.ParseClassification(c.Project.Registration.Classification)
	if err != nil {
		return registration.Profile{}, fmt.Errorf("config: %w", err)
	}
	return registration.Profile{Classification: classification, RequireTeam: c.RequireTeam()}, nil
}

// ResetPolicy returns what the wizard does after a successful submission.
func (c *Config) ResetPolicy() registration.ResetPolicy {
	return registration.ResetPolicy{
		Auto:  c.Project.Registration.AutoReset,
		Delay: c.Project.Registration.ResetDelay,
	}
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	derived := c.Project.Submission.Endpoint == intakeEndpoint(c.Project.Intake.Host, c.Project.Intake.Port)
	if overrides.SubmitMode != "" {
		c.Project.Submission.Mode = overrides.SubmitMode
	}
	if overrides.SubmitEndpoint != "" {
		c.Project.Submission.Endpoint = overrides.SubmitEndpoint
	}
	if overrides.IntakeHost != "" {
		c.Project.Intake.Host = overrides.IntakeHost
	}
	if isValidPort(overrides.IntakePort) {
		c.Project.Intake.Port = overrides.IntakePort
	}
	if overrides.IntakeDatabase != "" {
		c.Project.Intake.Database = overrides.IntakeDatabase
	}
	// an endpoint that only mirrored the intake address follows it
	if derived && overrides.SubmitEndpoint == "" {
		c.Project.Submission.Endpoint = intakeEndpoint(c.Project.Intake.Host, c.Project.Intake.Port)
	}
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Registration.Classification == "" {
		pc.Registration.Classification = defaultClassification
	}
	if pc.Registration.ResetDelay <= 0 {
		pc.Registration.ResetDelay = defaultResetDelay
	}
	if pc.Submission.Mode == "" {
		pc.Submission.Mode = SubmissionModeHTTP
	}
	if pc.Submission.Timeout <= 0 {
		pc.Submission.Timeout = defaultSubmitTimeout
	}
	if pc.Intake.Host == "" {
		pc.Intake.Host = defaultIntakeHost
	}
	if pc.Intake.Port == 0 {
		pc.Intake.Port = defaultIntakePort
	}
	if pc.Intake.Database == "" {
		pc.Intake.Database = defaultDatabase
	}
	if pc.Intake.MaxBodyBytes <= 0 {
		pc.Intake.MaxBodyBytes = defaultMaxBodyBytes
	}
	if pc.Submission.Endpoint == "" {
		pc.Submission.Endpoint = intakeEndpoint(pc.Intake.Host, pc.Intake.Port)
	}
}

func intakeEndpoint(host string, port int) string {
	return fmt.Sprintf("http://%s:%d/registrations", host, port)
}

func (pc *ProjectConfig) normalize() {
	pc.Registration.Classification = strings.ToLower(strings.TrimSpace(pc.Registration.Classification))
	pc.Submission.Mode = strings.ToLower(strings.TrimSpace(pc.Submission.Mode))
	pc.Submission.Endpoint = strings.TrimSpace(pc.Submission.Endpoint)
	pc.Intake.Host = strings.TrimSpace(pc.Intake.Host)
	pc.Intake.Database = strings.TrimSpace(pc.Intake.Database)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Registration.Classification {
	case "year", "experience":
	default:
		return fmt.Errorf("registration.classification must be 'year' or 'experience'")
	}
	switch pc.Submission.Mode {
	case SubmissionModeHTTP:
		if pc.Submission.Endpoint == "" {
			return fmt.Errorf("submission.endpoint is required for http mode")
		}
	case SubmissionModeLog:
	default:
		return fmt.Errorf("submission.mode must be 'http' or 'log'")
	}
	if !isValidPort(pc.Intake.Port) {
		return fmt.Errorf("intake.port %d is out of range", pc.Intake.Port)
	}
	return nil
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
