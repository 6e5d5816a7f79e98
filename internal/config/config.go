// Package config loads bridgegen settings from defaults, a bridgegen.toml
// project file, BRIDGEGEN_ environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"bridgegen/internal/derive"
	"bridgegen/internal/errors"
)

const (
	// FileName is the project configuration file searched for upward from
	// the working directory.
	FileName = "bridgegen.toml"
	// EnvPrefix prefixes environment overrides, e.g. BRIDGEGEN_OUTPUT_DIR.
	EnvPrefix = "BRIDGEGEN"
)

// Keys.
const (
	KeyOutputDir          = "output.dir"
	KeyOutputCore         = "output.core"
	KeyNamingPrefix       = "naming.prefix"
	KeyNamingRuntimePath  = "naming.runtime_path"
	KeyLogJSON            = "log.json"
	KeyLogVerbosity       = "log.verbosity"
	KeyWatchDebounceMilli = "watch.debounce_ms"
)

// Config is the resolved configuration.
type Config struct {
	Output OutputConfig `mapstructure:"output"`
	Naming NamingConfig `mapstructure:"naming"`
	Log    LogConfig    `mapstructure:"log"`
	Watch  WatchConfig  `mapstructure:"watch"`

	// File is the project file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
	// Core also writes the runtime artifacts shared by every module.
	Core bool `mapstructure:"core"`
}

type NamingConfig struct {
	Prefix      string `mapstructure:"prefix"`
	RuntimePath string `mapstructure:"runtime_path"`
}

type LogConfig struct {
	JSON      bool `mapstructure:"json"`
	Verbosity int  `mapstructure:"verbosity"`
}

type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"`
}

// Debounce returns the quiet period before a watch-triggered rebuild.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutputDir, "generated")
	v.SetDefault(KeyOutputCore, true)
	v.SetDefault(KeyNamingPrefix, "")
	v.SetDefault(KeyNamingRuntimePath, "")
	v.SetDefault(KeyLogJSON, false)
	v.SetDefault(KeyLogVerbosity, 0)
	v.SetDefault(KeyWatchDebounceMilli, 200)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	return v
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"out":          KeyOutputDir,
	"core":         KeyOutputCore,
	"prefix":       KeyNamingPrefix,
	"runtime-path": KeyNamingRuntimePath,
	"log-json":     KeyLogJSON,
	"verbose":      KeyLogVerbosity,
	"debounce":     KeyWatchDebounceMilli,
}

// BindFlags binds every known flag present in flags. Flags a command does not
// define are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding flag --%s", name)
		}
	}

	return nil
}

// Load reads path, or the nearest bridgegen.toml above the working directory
// when path is empty, and resolves the configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "resolving working directory")
		}

		path = FindFile(wd)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")

		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}

	cfg.File = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FindFile walks up from dir looking for bridgegen.toml and returns its path,
// or "" at the filesystem root.
func FindFile(dir string) string {
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}

var (
	prefixPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	runtimePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return errors.Newf("%s must not be empty", KeyOutputDir)
	}

	if c.Naming.Prefix != "" && !prefixPattern.MatchString(c.Naming.Prefix) {
		return errors.WithHint(
			errors.Newf("%s %q is not a C identifier", KeyNamingPrefix, c.Naming.Prefix),
			"the prefix starts every exported symbol name")
	}

	if c.Naming.RuntimePath != "" && !runtimePattern.MatchString(c.Naming.RuntimePath) {
		return errors.Newf("%s %q is not a Rust path", KeyNamingRuntimePath, c.Naming.RuntimePath)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("%s must not be negative", KeyLogVerbosity)
	}

	if c.Watch.DebounceMS < 0 {
		return errors.Newf("%s must not be negative", KeyWatchDebounceMilli)
	}

	return nil
}

// Derive returns the derivation settings.
func (c *Config) Derive(log *zap.SugaredLogger) derive.Config {
	return derive.Config{
		Prefix:      c.Naming.Prefix,
		RuntimePath: c.Naming.RuntimePath,
		Logger:      log,
	}
}
