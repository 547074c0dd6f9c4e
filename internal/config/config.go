package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/sdk-provisioner/internal/domain/component"
	"github.com/oshokin/sdk-provisioner/internal/domain/platform"
)

// Config holds everything a provisioning run needs besides host facts.
type Config struct {
	// Version is the SDK release to install, e.g. "20.0.3".
	Version string `yaml:"version" toml:"version"`
	// InstallDir is the absolute install root.
	InstallDir string `yaml:"install_dir" toml:"install_dir"`
	// User owns the install root and runs SDK commands.
	User string `yaml:"user" toml:"user"`
	// Group owns the install root. Empty picks a kernel-specific default.
	Group string `yaml:"group,omitempty" toml:"group,omitempty"`
	// ProxyHost and ProxyPort are passed to the SDK manager when both are set.
	ProxyHost string `yaml:"proxy_host,omitempty" toml:"proxy_host,omitempty"`
	ProxyPort string `yaml:"proxy_port,omitempty" toml:"proxy_port,omitempty"`
	// Checksum is an optional hex SHA-256 of the SDK archive, verified on download.
	Checksum string `yaml:"checksum,omitempty" toml:"checksum,omitempty"`
	// DownloadTimeout bounds the archive transfer.
	DownloadTimeout Duration `yaml:"download_timeout" toml:"download_timeout"`
	// StateFile is where the report of the last run is stored.
	StateFile string `yaml:"state_file" toml:"state_file"`
	// Components are the named SDK packages to keep installed.
	Components []Component `yaml:"components,omitempty" toml:"components,omitempty"`
}

// Component is a named SDK package entry in the settings file.
type Component struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

const (
	// DefaultConfigFilename is the settings file looked up when none is given.
	DefaultConfigFilename = "sdk-provisioner.yaml"

	// DefaultStateFilename is the default location of the run report.
	DefaultStateFilename = "sdk-provisioner-state.json"

	// DefaultDownloadTimeout bounds a single archive download.
	DefaultDownloadTimeout = 30 * time.Minute

	// DefaultFilePermissions is used for settings and state files.
	DefaultFilePermissions = 0o600

	// checksumLength is the size of a SHA-256 digest.
	checksumLength = 32

	// maxPort is the highest valid TCP port.
	maxPort = 65535
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidVersion is returned for versions that cannot be part of a file name.
	errInvalidVersion = errors.New("invalid SDK version")
	// errInstallDirNotAbsolute is returned for relative install roots.
	errInstallDirNotAbsolute = errors.New("install directory must be absolute")
	// errInvalidProxyPort is returned for non-numeric or out of range proxy ports.
	errInvalidProxyPort = errors.New("invalid proxy port")
	// errInvalidChecksum is returned when the checksum is not a hex SHA-256 digest.
	errInvalidChecksum = errors.New("checksum must be a hex encoded SHA-256 digest")

	// versionPattern limits versions to characters that are safe in URLs and file names.
	versionPattern = regexp.MustCompile(`^[0-9A-Za-z._-]+$`)
)

// Load reads settings from path and validates them.
// A missing default settings file yields the built-in defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && path == DefaultConfigFilename:
		return Default()
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = unmarshal(path, contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns validated settings with every default applied.
func Default() (*Config, error) {
	cfg := new(Config)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to path in the format implied by its extension.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := marshal(path, cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks every field.
// Component types are checked here so that a bad entry fails the run before any step.
//
//nolint:cyclop // A flat list of field checks reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	cfg.Version = strings.TrimSpace(cfg.Version)
	if cfg.Version == "" {
		cfg.Version = platform.DefaultVersion
	}

	if !versionPattern.MatchString(cfg.Version) {
		return fmt.Errorf("%w: %q", errInvalidVersion, cfg.Version)
	}

	if cfg.InstallDir == "" {
		cfg.InstallDir = platform.DefaultInstallDir
	}

	if !filepath.IsAbs(cfg.InstallDir) {
		return fmt.Errorf("%w: %q", errInstallDirNotAbsolute, cfg.InstallDir)
	}

	if cfg.User == "" {
		cfg.User = platform.DefaultOwner
	}

	if cfg.ProxyPort != "" {
		port, err := strconv.Atoi(strings.TrimSpace(cfg.ProxyPort))
		if err != nil || port <= 0 || port > maxPort {
			return fmt.Errorf("%w: %q", errInvalidProxyPort, cfg.ProxyPort)
		}
	}

	if cfg.Checksum != "" {
		sum, err := hex.DecodeString(cfg.Checksum)
		if err != nil || len(sum) != checksumLength {
			return errInvalidChecksum
		}
	}

	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = Duration(DefaultDownloadTimeout)
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if _, err := cfg.Requests(); err != nil {
		return err
	}

	return nil
}

// Settings converts the configuration into resolver input.
func (c *Config) Settings() platform.Settings {
	return platform.Settings{
		Version:    c.Version,
		InstallDir: c.InstallDir,
		Owner:      c.User,
		Group:      c.Group,
		ProxyHost:  c.ProxyHost,
		ProxyPort:  c.ProxyPort,
	}
}

// Requests validates the configured components and returns them as requests.
func (c *Config) Requests() ([]component.Request, error) {
	requests := make([]component.Request, 0, len(c.Components))

	for _, entry := range c.Components {
		req, err := component.NewRequest(entry.Name, entry.Type)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", entry.Name, err)
		}

		requests = append(requests, req)
	}

	return requests, nil
}

// ChecksumBytes returns the decoded archive checksum, or nil when none is set.
func (c *Config) ChecksumBytes() []byte {
	if c.Checksum == "" {
		return nil
	}

	sum, err := hex.DecodeString(c.Checksum)
	if err != nil {
		return nil
	}

	return sum
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isTOML(path) {
		return toml.Unmarshal(data, cfg)
	}

	return yaml.Unmarshal(data, cfg)
}

func marshal(path string, cfg *Config) ([]byte, error) {
	if isTOML(path) {
		return toml.Marshal(cfg)
	}

	return yaml.Marshal(cfg)
}
