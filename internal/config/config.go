// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// ContainerEngine specifies which container runtime the Docker context
// shells out through.
type ContainerEngine string

const (
	// ContainerEngineDocker uses the docker CLI.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses the podman CLI.
	ContainerEnginePodman ContainerEngine = "podman"
)

// Config holds crewctl's application configuration. Only TaskSearchPaths
// is read outside this package (by the new command). ContainerEngine,
// ExecutorConcurrency, SSHConnectTimeout and UI are loaded and saved but
// not applied: the CLI takes its engine and concurrency cap from flags,
// and SSH contexts use pkg/context's DefaultSSHConnectTimeout.
type Config struct {
	// ContainerEngine selects the CLI a Docker context dispatches through.
	ContainerEngine ContainerEngine `toml:"container_engine" mapstructure:"container_engine"`
	// ExecutorConcurrency caps the number of contexts an executor drives
	// concurrently. Zero means use the package default.
	ExecutorConcurrency int `toml:"executor_concurrency" mapstructure:"executor_concurrency"`
	// SSHConnectTimeout bounds how long an SSH context waits to dial.
	SSHConnectTimeout time.Duration `toml:"ssh_connect_timeout" mapstructure:"ssh_connect_timeout"`
	// TaskSearchPaths lists additional directories a TaskDirectory
	// collaborator should search for task definitions. The core never
	// reads this itself.
	TaskSearchPaths []string `toml:"task_search_paths" mapstructure:"task_search_paths"`
	// UI configures console output.
	UI UIConfig `toml:"ui" mapstructure:"ui"`
}

// UIConfig configures the coloured activity log.
type UIConfig struct {
	// ColorScheme selects "auto", "dark", "light", or "none".
	ColorScheme string `toml:"color_scheme" mapstructure:"color_scheme"`
	// Verbose enables verbose shell start/stop logging.
	Verbose bool `toml:"verbose" mapstructure:"verbose"`
}

const (
	// AppName is the application name, used for the XDG config directory.
	AppName = "crewctl"
	// ConfigFileName is the config file's base name (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"

	// DefaultExecutorConcurrency is DefaultConfig's ExecutorConcurrency.
	DefaultExecutorConcurrency = 100
	// DefaultSSHConnectTimeout is DefaultConfig's SSHConnectTimeout.
	DefaultSSHConnectTimeout = time.Second
)

var (
	globalConfig *Config
	configPath   string
)

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine:     ContainerEngineDocker,
		ExecutorConcurrency: DefaultExecutorConcurrency,
		SSHConnectTimeout:   DefaultSSHConnectTimeout,
		TaskSearchPaths:     []string{},
		UI: UIConfig{
			ColorScheme: "auto",
			Verbose:     false,
		},
	}
}

// ConfigDir returns crewctl's configuration directory, XDG-aware on Linux
// and using the platform convention on macOS and Windows.
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads and parses the configuration file, falling back to defaults
// when none is found. The result is cached; call Reset to force a reload.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileExt)

	cfgDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	v.AddConfigPath(cfgDir)
	v.AddConfigPath(".")

	defaults := DefaultConfig()
	v.SetDefault("container_engine", defaults.ContainerEngine)
	v.SetDefault("executor_concurrency", defaults.ExecutorConcurrency)
	v.SetDefault("ssh_connect_timeout", defaults.SSHConnectTimeout)
	v.SetDefault("task_search_paths", defaults.TaskSearchPaths)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			globalConfig = defaults
			return globalConfig, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	configPath = v.ConfigFileUsed()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	globalConfig = &cfg
	return globalConfig, nil
}

// Get returns the currently loaded configuration, loading it first if
// necessary. Load errors fall back to DefaultConfig.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			return DefaultConfig()
		}
		return cfg
	}
	return globalConfig
}

// ConfigFilePath returns the path the active configuration was loaded
// from, or "" if defaults are in effect.
func ConfigFilePath() string {
	return configPath
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig writes a default config file if one doesn't exist yet.
func CreateDefaultConfig() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	if _, err := os.Stat(cfgPath); err == nil {
		return nil
	}

	defaults := DefaultConfig()
	data, err := toml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	header := []byte(`# crewctl configuration file
# See https://github.com/invowk/crewctl for documentation.

`)

	if err := os.WriteFile(cfgPath, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Save writes cfg to the configuration file and caches it as current.
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	globalConfig = cfg
	return nil
}

// Reset clears the cached configuration, forcing the next Load to re-read.
func Reset() {
	globalConfig = nil
	configPath = ""
}
