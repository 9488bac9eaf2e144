package process

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotReady is wrapped by the ExitError returned when a process exits
// before its readiness pattern was observed.
var ErrNotReady = errors.New("process exited before becoming ready")

// ExitError reports an unsuccessful process exit.
type ExitError struct {
	Binary string
	Code   int
	// Output holds the most recent lines of combined stdout/stderr.
	Output []string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Binary, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if n := len(e.Output); n > 0 {
		msg += " (last output: " + e.Output[n-1] + ")"
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
