// Package config reads process configuration from the environment and an
// optional config file.
//
// Environment variables:
//
//	HOME                  contributes $HOME/.modload_libraries to the search path
//	MODLOAD_PATH          colon-delimited directories searched first
//	MODLOAD_DEBUG         > 0 enables debug tracing
//	MODLOAD_MAX_INFLIGHT  bound on concurrent deferred I/O calls
//	MODLOAD_HTTP_TIMEOUT  timeout for URL modules, e.g. "10s"
//
// A config file (toml, yaml or json) may set the same keys: path, debug,
// max_inflight, http_timeout. The environment wins over the file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/module-loader/eventloop"
	"github.com/wippyai/module-loader/fetch"
)

// LibrariesDir is the per-user library directory under HOME.
const LibrariesDir = ".modload_libraries"

// Config is the resolved process configuration.
type Config struct {
	Home        string
	Path        string
	Debug       int
	MaxInflight int
	HTTPTimeout time.Duration
	// File is the config file that was read, if any.
	File string
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ConfigFile is read when non-empty. Its extension picks the format.
	ConfigFile string
}

// Load reads configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetDefault("max_inflight", eventloop.DefaultMaxInflight)
	v.SetDefault("http_timeout", fetch.DefaultTimeout)
	v.SetDefault("debug", 0)

	binds := map[string]string{
		"home":         "HOME",
		"path":         "MODLOAD_PATH",
		"debug":        "MODLOAD_DEBUG",
		"max_inflight": "MODLOAD_MAX_INFLIGHT",
		"http_timeout": "MODLOAD_HTTP_TIMEOUT",
	}
	for key, env := range binds {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	return &Config{
		Home:        v.GetString("home"),
		Path:        v.GetString("path"),
		Debug:       v.GetInt("debug"),
		MaxInflight: v.GetInt("max_inflight"),
		HTTPTimeout: v.GetDuration("http_timeout"),
		File:        v.ConfigFileUsed(),
	}, nil
}

// SearchPath returns the search path for c. Each call returns a new slice.
func (c *Config) SearchPath() []string {
	return SearchPath(c.Home, c.Path)
}

// SearchPath builds the module search path: the entries of pathList in order,
// then home's library directory. Empty entries are dropped.
func SearchPath(home, pathList string) []string {
	var out []string
	for _, p := range strings.Split(pathList, ":") {
		if p != "" {
			out = append(out, p)
		}
	}
	if home != "" {
		out = append(out, strings.TrimSuffix(home, "/")+"/"+LibrariesDir)
	}
	return out
}

// NewLogger builds the process logger. A positive debug level gives a
// development logger at Debug; otherwise a production logger at Info.
func NewLogger(debug int) (*zap.Logger, error) {
	var cfg zap.Config
	if debug > 0 {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
