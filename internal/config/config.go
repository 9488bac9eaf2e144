// Package config provides configuration management for go-fabric-cmd.
package config

import (
	"os"
	"time"

	"github.com/randomizedcoder/go-fabric-cmd/internal/install"
)

// EnvPrefix prefixes the environment variables read by ApplyEnv.
const EnvPrefix = "FABRIC_CMD_"

// Config holds all configuration options for the CLI.
type Config struct {
	// Observability
	LogFormat   string `json:"log_format"` // json, text
	LogLevel    string `json:"log_level"`
	Verbose     bool   `json:"verbose"`
	MetricsAddr string `json:"metrics_addr"` // empty = disabled

	// Binaries
	BinDir      string        `json:"bin_dir"` // empty = PATH
	GracePeriod time.Duration `json:"grace_period"`

	// update
	ScriptURL string `json:"script_url"`
	Script    string `json:"script"`

	// setup
	FabricVersion string   `json:"fabric_version"` // empty = script default
	CAVersion     string   `json:"ca_version"`
	Components    []string `json:"components"`
	WorkDir       string   `json:"work_dir"`
	ConfigSrc     string   `json:"config_src"`
	ConfigDest    string   `json:"config_dest"` // empty = no copy
	TUIEnabled    bool     `json:"tui"`

	// run
	JobFile  string `json:"job_file"`
	PrintCmd bool   `json:"print_cmd"`
	Wait     bool   `json:"wait"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogFormat:   "text",
		LogLevel:    "info",
		GracePeriod: 5 * time.Second,

		ScriptURL: install.DefaultScriptURL,
		Script:    "./" + install.DefaultScriptName,

		Components: []string{install.ComponentBinary},
		WorkDir:    ".",

		Wait: true,
	}
}

// ApplyEnv overrides cfg from FABRIC_CMD_* variables. Call it before
// binding flags so that flags still win.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	set("BIN_DIR", &cfg.BinDir)
	set("LOG_LEVEL", &cfg.LogLevel)
	set("LOG_FORMAT", &cfg.LogFormat)
	set("METRICS", &cfg.MetricsAddr)
	set("FABRIC_VERSION", &cfg.FabricVersion)
	set("CA_VERSION", &cfg.CAVersion)
}
