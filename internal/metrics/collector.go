// Package metrics provides Prometheus metrics for go-fabric-cmd.
//
// The collector is fed by process runner callbacks, so every spawned Fabric
// binary is counted whether it was started from a job file, setup or
// preflight.
package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/influxdata/tdigest"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-fabric-cmd/internal/process"
)

// Result label values of fabric_cmd_invocations_total.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSignal  = "signal"
)

// digestCompression keeps about 100 centroids per digest.
const digestCompression = 100

// Collector records invocation metrics for spawned Fabric binaries.
type Collector struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	ready       *prometheus.HistogramVec
	active      prometheus.Gauge
	info        *prometheus.GaugeVec

	startTime time.Time

	mu         sync.Mutex
	current    int
	peakActive int
	starts     int64
	exitCodes  map[int]int64
	exits      int64
	readies    int64
	uptimes    *tdigest.TDigest
	readyAfter *tdigest.TDigest
}

// NewCollectorWithRegistry creates a collector with a custom registry.
func NewCollectorWithRegistry(version string, registry prometheus.Registerer) *Collector {
	c := &Collector{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabric_cmd_invocations_total",
				Help: "Fabric binary invocations by exit result",
			},
			[]string{"binary", "subcommand", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fabric_cmd_process_duration_seconds",
				Help:    "Wall time from spawn to exit",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 900, 3600},
			},
			[]string{"binary"},
		),
		ready: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fabric_cmd_ready_seconds",
				Help:    "Time from spawn until the readiness line was seen",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"binary"},
		),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fabric_cmd_active_processes",
			Help: "Fabric processes currently running",
		}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fabric_cmd_info",
			Help: "Build information (value always 1)",
		}, []string{"version"}),
		startTime:  time.Now(),
		exitCodes:  make(map[int]int64),
		uptimes:    tdigest.NewWithCompression(digestCompression),
		readyAfter: tdigest.NewWithCompression(digestCompression),
	}

	registry.MustRegister(c.invocations, c.duration, c.ready, c.active, c.info)
	c.info.WithLabelValues(version).Set(1)
	return c
}

// Callbacks returns runner callbacks that feed this collector.
func (c *Collector) Callbacks() process.Callbacks {
	return process.Callbacks{
		OnStart: func(inv process.Invocation, _ int) {
			c.RecordStart()
		},
		OnReady: func(inv process.Invocation, _ int, after time.Duration) {
			c.RecordReady(inv.Binary, after)
		},
		OnExit: func(inv process.Invocation, code int, uptime time.Duration) {
			c.RecordExit(inv.Binary, inv.Subcommand, code, uptime)
		},
	}
}

// =============================================================================
// Event Recording Methods
// =============================================================================

// RecordStart records a spawned process.
func (c *Collector) RecordStart() {
	c.active.Inc()

	c.mu.Lock()
	c.starts++
	c.current++
	if c.current > c.peakActive {
		c.peakActive = c.current
	}
	c.mu.Unlock()
}

// RecordReady records how long binary took to report readiness.
func (c *Collector) RecordReady(binary string, after time.Duration) {
	c.ready.WithLabelValues(label(binary)).Observe(after.Seconds())

	c.mu.Lock()
	c.readies++
	c.readyAfter.Add(after.Seconds(), 1)
	c.mu.Unlock()
}

// RecordExit records a process exit.
func (c *Collector) RecordExit(binary, subcommand string, exitCode int, uptime time.Duration) {
	c.invocations.WithLabelValues(label(binary), subcommand, Result(exitCode)).Inc()
	c.duration.WithLabelValues(label(binary)).Observe(uptime.Seconds())
	c.active.Dec()

	c.mu.Lock()
	if c.current > 0 {
		c.current--
	}
	c.exits++
	c.exitCodes[exitCode]++
	c.uptimes.Add(uptime.Seconds(), 1)
	c.mu.Unlock()
}

// Result maps an exit code to the result label.
func Result(exitCode int) string {
	switch {
	case exitCode == 0:
		return ResultSuccess
	case exitCode > 128:
		return ResultSignal
	default:
		return ResultError
	}
}

// label strips the directory from binaries started by path.
func label(binary string) string {
	return filepath.Base(binary)
}

// =============================================================================
// Summary Generation
// =============================================================================

// Summary holds the data for the end-of-run summary.
type Summary struct {
	Duration   time.Duration
	Starts     int64
	PeakActive int
	ExitCodes  map[int]int64

	UptimeP50 time.Duration
	UptimeP95 time.Duration
	UptimeP99 time.Duration
	ReadyP50  time.Duration
}

// GenerateSummary creates a summary of the run so far.
func (c *Collector) GenerateSummary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Summary{
		Duration:   time.Since(c.startTime),
		Starts:     c.starts,
		PeakActive: c.peakActive,
		ExitCodes:  make(map[int]int64, len(c.exitCodes)),
	}
	for code, n := range c.exitCodes {
		s.ExitCodes[code] = n
	}

	if c.exits > 0 {
		s.UptimeP50 = seconds(c.uptimes.Quantile(0.50))
		s.UptimeP95 = seconds(c.uptimes.Quantile(0.95))
		s.UptimeP99 = seconds(c.uptimes.Quantile(0.99))
	}
	if c.readies > 0 {
		s.ReadyP50 = seconds(c.readyAfter.Quantile(0.50))
	}
	return s
}

// Failures returns how many exits had a non-zero code.
func (s *Summary) Failures() int64 {
	var n int64
	for code, count := range s.ExitCodes {
		if code != 0 {
			n += count
		}
	}
	return n
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
