package logging

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const (
	// MaxLineLength is the maximum length of a single output line before truncation.
	MaxLineLength = 64 * 1024

	// MaxBufferedLines is the number of recent lines kept per process.
	MaxBufferedLines = 100
)

// OutputHandler handles stdout/stderr lines from a spawned Fabric binary.
// It keeps the most recent lines for error reporting and logs each line at a
// level derived from the Fabric log prefix.
type OutputHandler struct {
	binary  string
	logger  *slog.Logger
	verbose bool

	onLine func(stream, line string)

	buffer []string
	bufIdx int
	total  int
	mu     sync.Mutex
}

// NewOutputHandler creates an output handler for one process of binary.
func NewOutputHandler(binary string, logger *slog.Logger, verbose bool) *OutputHandler {
	if logger == nil {
		logger = Discard()
	}
	return &OutputHandler{
		binary:  binary,
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// OnLine registers fn to be called with every handled line, after it has
// been recorded. It must be set before the first line is handled.
func (h *OutputHandler) OnLine(fn func(stream, line string)) {
	h.onLine = fn
}

// HandleReader reads lines from r until EOF, tagging them with stream.
// Lines longer than MaxLineLength are truncated and reading continues with
// the next line. On a read error the rest of r is discarded so the writer
// never blocks.
func (h *OutputHandler) HandleReader(stream string, r io.Reader) error {
	br := bufio.NewReaderSize(r, 4096)
	line := make([]byte, 0, 256)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			_, _ = io.Copy(io.Discard, br)
			return err
		}
		// one byte past the limit lets HandleLine mark the truncation
		if room := MaxLineLength + 1 - len(line); room > 0 {
			line = append(line, chunk[:min(len(chunk), room)]...)
		}
		if isPrefix {
			continue
		}
		h.HandleLine(stream, string(line))
		line = line[:0]
	}
}

// HandleLine records and logs a single line.
func (h *OutputHandler) HandleLine(stream, line string) {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.total++
	h.mu.Unlock()

	h.logLine(stream, line)
	if h.onLine != nil {
		h.onLine(stream, line)
	}
}

func (h *OutputHandler) logLine(stream, line string) {
	level := ClassifyLine(line)
	if !h.verbose && level < slog.LevelWarn {
		return
	}
	h.logger.Log(context.Background(), level, "process_output",
		"binary", h.binary,
		"stream", stream,
		"line", line,
	)
}

// ClassifyLine maps a Fabric log line to a log level. Fabric's logging
// prints a four letter level after the timestamp (INFO, WARN, ERRO, ...).
func ClassifyLine(line string) slog.Level {
	switch {
	case strings.Contains(line, " ERRO ") ||
		strings.Contains(line, " PANI ") ||
		strings.Contains(line, " FATA ") ||
		strings.HasPrefix(line, "Error:"):
		return slog.LevelWarn
	case strings.Contains(line, " WARN "):
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// RecentLines returns up to n of the most recent lines, oldest first.
func (h *OutputHandler) RecentLines(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}
	if n > h.total {
		n = h.total
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		lines = append(lines, h.buffer[idx])
	}
	return lines
}

// Total returns the number of lines handled so far.
func (h *OutputHandler) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}
