package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"

	"github.com/randomizedcoder/go-fabric-cmd/internal/install"
	"github.com/randomizedcoder/go-fabric-cmd/internal/logging"
)

// versionPattern matches release versions accepted by install-fabric.sh.
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.]+)?$`)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or every problem joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	if !logging.ValidFormat(cfg.LogFormat) {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if !logging.ValidLevel(cfg.LogLevel) {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be debug, info, warn or error (got %q)", cfg.LogLevel),
		})
	}

	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "metrics_addr",
				Message: err.Error(),
			})
		}
	}

	if cfg.GracePeriod <= 0 {
		errs = append(errs, ValidationError{
			Field:   "grace_period",
			Message: "must be positive",
		})
	}

	for _, c := range cfg.Components {
		if !install.ValidComponent(c) {
			errs = append(errs, ValidationError{
				Field:   "components",
				Message: fmt.Sprintf("unknown component %q", c),
			})
		}
	}

	for field, v := range map[string]string{"fabric_version": cfg.FabricVersion, "ca_version": cfg.CAVersion} {
		if v != "" && !versionPattern.MatchString(v) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("must look like 2.5.12 (got %q)", v),
			})
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
