package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the global flags shared by every command.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn" or "error"`)
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose logging, including every line printed by Fabric binaries")
	fs.StringVar(&cfg.BinDir, "bin-dir", cfg.BinDir, "Directory holding the Fabric binaries (default: search PATH)")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Serve Prometheus metrics on this address, e.g. 127.0.0.1:17092")
	fs.DurationVar(&cfg.GracePeriod, "grace-period", cfg.GracePeriod, "Time between SIGTERM and SIGKILL when stopping a process")
}

// BindUpdateFlags registers the flags of the update command.
func BindUpdateFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ScriptURL, "url", cfg.ScriptURL, "Install script URL")
	fs.StringVar(&cfg.Script, "dest", cfg.Script, "Where to save the install script")
}

// BindSetupFlags registers the flags of the setup command.
func BindSetupFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Script, "script", cfg.Script, "Install script to run")
	fs.StringVar(&cfg.FabricVersion, "fabric-version", cfg.FabricVersion, "Fabric version, e.g. 2.5.12 (default: script default)")
	fs.StringVar(&cfg.CAVersion, "ca-version", cfg.CAVersion, "Fabric CA version, e.g. 1.5.15 (default: script default)")
	fs.StringSliceVar(&cfg.Components, "components", cfg.Components, "Components to install: binary, docker, podman, samples")
	fs.StringVar(&cfg.WorkDir, "work-dir", cfg.WorkDir, "Directory the install script runs in")
	fs.StringVar(&cfg.ConfigSrc, "config-src", cfg.ConfigSrc, "Config files to copy (default: <work-dir>/config)")
	fs.StringVar(&cfg.ConfigDest, "config-dest", cfg.ConfigDest, "Copy config files here after installing")
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Show a live progress view")
}

// BindRunFlags registers the flags of the run command.
func BindRunFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.JobFile, "file", "f", cfg.JobFile, "Job file (YAML)")
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print the command line and exit")
	fs.BoolVar(&cfg.Wait, "wait", cfg.Wait, "Keep a ready server in the foreground until interrupted; with --wait=false it is stopped once ready")
}
