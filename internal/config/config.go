// Package config resolves runtime settings from defaults, an optional YAML
// file and MIND_* environment variables. Command-line flags are applied on
// top by the caller.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/validate"
)

// AppDirName is the directory created under the platform data directory.
const AppDirName = "the-mind"

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Environment variables read by Load.
const (
	EnvDataDir   = "MIND_DATA_DIR"
	EnvTransport = "MIND_TRANSPORT"
	EnvAddr      = "MIND_ADDR"
	EnvLogLevel  = "MIND_LOG_LEVEL"
	EnvForgeDir  = "MIND_FORGE_DIR"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = goerr.New("invalid config")

// Config holds the process settings.
type Config struct {
	DataDir   string `yaml:"data_dir" json:"data_dir" validate:"required"`
	Transport string `yaml:"transport" json:"transport" validate:"required,oneof=stdio http"`
	Addr      string `yaml:"addr" json:"addr" validate:"required"`
	LogLevel  string `yaml:"log_level" json:"log_level" validate:"required,oneof=debug info warn error"`
	ForgeDir  string `yaml:"forge_dir" json:"forge_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataDir:   DefaultDataDir(),
		Transport: TransportStdio,
		Addr:      ":8081",
		LogLevel:  "info",
		ForgeDir:  DefaultForgeDir(),
	}
}

// Load starts from Default, overlays the YAML file at path when path is not
// empty, then overlays the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, goerr.Wrap(err, "read config file", goerr.V("path", path))
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, goerr.Wrap(err, "parse config file", goerr.V("path", path))
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for env, dst := range map[string]*string{
		EnvDataDir:   &cfg.DataDir,
		EnvTransport: &cfg.Transport,
		EnvAddr:      &cfg.Addr,
		EnvLogLevel:  &cfg.LogLevel,
		EnvForgeDir:  &cfg.ForgeDir,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

// Validate rejects unknown transports and log levels and an empty data dir.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return goerr.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// DefaultDataDir returns the platform data directory joined with AppDirName:
// %AppData% on Windows, ~/Library/Application Support on macOS and
// $XDG_DATA_HOME (or ~/.local/share) elsewhere. It falls back to ./data when
// no home directory is known.
func DefaultDataDir() string {
	base, err := platformDataDir()
	if err != nil {
		return filepath.Join(".", "data")
	}
	return filepath.Join(base, AppDirName)
}

func platformDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows", "darwin":
		return os.UserConfigDir()
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// DefaultForgeDir returns where session-forge keeps its files:
// %APPDATA%/session-forge on Windows, ~/.session-forge elsewhere. It returns
// "" when the location cannot be determined.
func DefaultForgeDir() string {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return ""
		}
		return filepath.Join(appData, "session-forge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".session-forge")
}

// IsInvalid reports whether err came from Validate.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
