// Package config loads gitgraph settings from a TOML file, an optional .env
// file and GITGRAPH_* environment variables, in that order of increasing
// precedence. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = "gitgraph.toml"

// EnvPrefix prefixes every environment variable, e.g. GITGRAPH_PROVIDER.
const EnvPrefix = "GITGRAPH"

// Provider names.
const (
	ProviderCLI   = "cli"
	ProviderGoGit = "gogit"
	ProviderLoose = "loose"
)

// Config holds every tunable setting.
type Config struct {
	Provider             string `toml:"provider" envconfig:"PROVIDER" yaml:"provider"`
	GitBinary            string `toml:"git_binary" envconfig:"GIT_BINARY" yaml:"git_binary"`
	Abbrev               int    `toml:"abbrev" envconfig:"ABBREV" yaml:"abbrev"`
	LargeObjectThreshold int    `toml:"large_object_threshold" envconfig:"LARGE_OBJECT_THRESHOLD" yaml:"large_object_threshold"`
	DateLayout           string `toml:"date_layout" envconfig:"DATE_LAYOUT" yaml:"date_layout"`
	LogLevel             string `toml:"log_level" envconfig:"LOG_LEVEL" yaml:"log_level"`
	LogFormat            string `toml:"log_format" envconfig:"LOG_FORMAT" yaml:"log_format"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Provider:             ProviderCLI,
		GitBinary:            "git",
		Abbrev:               6,
		LargeObjectThreshold: 1 << 20,
		DateLayout:           "02/01/2006 15:04",
		LogLevel:             "warn",
		LogFormat:            "text",
	}
}

// Load builds a Config from defaults, then the TOML file at path (or
// DefaultFile when path is empty and that file exists), then envFile (or
// ".env"), then the process environment.
func Load(path, envFile string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := decodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := LoadDotEnv(envFile); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("load %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderCLI, ProviderGoGit, ProviderLoose:
	default:
		return fmt.Errorf("config: unknown provider %q (want %s, %s or %s)", c.Provider, ProviderCLI, ProviderGoGit, ProviderLoose)
	}
	if c.Abbrev < 4 || c.Abbrev > 40 {
		return fmt.Errorf("config: abbrev %d out of range 4..40", c.Abbrev)
	}
	if c.LargeObjectThreshold < 0 {
		return fmt.Errorf("config: negative large_object_threshold %d", c.LargeObjectThreshold)
	}
	if c.Provider == ProviderCLI && strings.TrimSpace(c.GitBinary) == "" {
		return errors.New("config: git_binary is required for the cli provider")
	}
	return nil
}
