// Package preflight checks that the Fabric binaries are installed and
// runnable before anything is spawned.
package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
	"github.com/randomizedcoder/go-fabric-cmd/internal/tui"
)

// MinFileDescriptors is the soft limit below which peer and orderer start
// logging "too many open files" under load.
const MinFileDescriptors = 4096

// Check represents the result of a single preflight check.
type Check struct {
	Name    string // Name of the check
	Passed  bool   // Whether the check passed
	Warning bool   // True if it's a warning (non-fatal)
	Message string // Additional context
	Fix     string // Suggested fix when the check failed
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns the check as one styled line, as printed by PrintResults.
func (c Check) String() string {
	return fmt.Sprintf("  %s %s: %s", tui.StatusSymbol(c.Passed, c.Warning), c.Name, c.Message)
}

// Resolve returns the path of binary, looking in binDir first and then in
// PATH.
func Resolve(binDir, binary string) (string, error) {
	if binDir != "" {
		path := filepath.Join(binDir, binary)
		if info, err := os.Stat(path); err == nil && !info.IsDir() && info.Mode().Perm()&0o111 != 0 {
			return path, nil
		}
	}
	return exec.LookPath(binary)
}

// RunAll checks every binary with `<binary> version` through runner, then
// the file descriptor limit. Binaries run sequentially.
func RunAll(ctx context.Context, runner process.Runner, binDir string, binaries []string) *Result {
	result := &Result{
		Checks: make([]Check, 0, len(binaries)+1),
		Passed: true,
	}

	for _, b := range binaries {
		check := checkBinary(ctx, runner, binDir, b)
		result.Checks = append(result.Checks, check)
		if !check.Passed {
			result.Passed = false
		}
	}

	// warning only
	result.Checks = append(result.Checks, checkFileDescriptors())
	return result
}

// checkBinary verifies binary resolves and reports a version.
func checkBinary(ctx context.Context, runner process.Runner, binDir, binary string) Check {
	path, err := Resolve(binDir, binary)
	if err != nil {
		return Check{
			Name:    binary,
			Message: "not found",
			Fix:     "go-fabric-cmd setup --components binary, then pass --bin-dir ./bin",
		}
	}

	p, err := runner.Run(ctx, process.Invocation{
		Binary:     path,
		Subcommand: "version",
		Args:       []string{"version"},
	})
	if err != nil {
		return Check{
			Name:    binary,
			Message: fmt.Sprintf("%s version failed: %v", path, err),
			Fix:     "reinstall with go-fabric-cmd setup --components binary",
		}
	}

	version := ParseVersion(p.RecentOutput(50))
	if version == "" {
		version = "unknown"
	}
	return Check{
		Name:    binary,
		Passed:  true,
		Message: fmt.Sprintf("found at %s (version %s)", path, version),
	}
}

// ParseVersion extracts the value of the first "Version:" line, as printed
// by every Fabric binary's version subcommand.
func ParseVersion(lines []string) string {
	for _, line := range lines {
		k, v, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && k == "Version" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func fdCheck(actual uint64) Check {
	c := Check{
		Name:    "file_descriptors",
		Passed:  true,
		Message: fmt.Sprintf("ulimit -n %d (recommend %d)", actual, MinFileDescriptors),
	}
	if actual < MinFileDescriptors {
		c.Warning = true
		c.Fix = fmt.Sprintf("ulimit -n %d (or edit /etc/security/limits.conf)", MinFileDescriptors)
	}
	return c
}

// PrintResults writes the check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, tui.RenderTitle("Preflight checks:"))
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if check.Fix != "" && (!check.Passed || check.Warning) {
			fmt.Fprintf(w, "    Fix: %s\n", check.Fix)
		}
	}
	fmt.Fprintln(w)
}
