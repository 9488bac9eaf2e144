package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	summaryRule    = "═══════════════════════════════════════════════════════════════\n"
	summarySubRule = "───────────────────────────────────────────────────────────────\n"
)

// FormatSummary renders the end-of-run summary printed by the CLI.
// metricsAddr is mentioned when non-empty.
func FormatSummary(s *Summary, metricsAddr string) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(summaryRule)
	b.WriteString("                  go-fabric-cmd Summary\n")
	b.WriteString(summaryRule + "\n")

	fmt.Fprintf(&b, "Run Duration:           %s\n", formatDuration(s.Duration))
	fmt.Fprintf(&b, "Processes Started:      %d\n", s.Starts)
	fmt.Fprintf(&b, "Peak Active:            %d\n", s.PeakActive)
	fmt.Fprintf(&b, "Failures:               %d\n\n", s.Failures())

	if s.UptimeP50 > 0 || s.ReadyP50 > 0 {
		b.WriteString(summarySubRule)
		b.WriteString("                      Process Timing\n")
		b.WriteString(summarySubRule + "\n")
		fmt.Fprintf(&b, "  %-20s %12s %12s %12s\n", "", "P50", "P95", "P99")
		fmt.Fprintf(&b, "  %-20s %12s %12s %12s\n", "Uptime",
			formatMs(s.UptimeP50), formatMs(s.UptimeP95), formatMs(s.UptimeP99))
		if s.ReadyP50 > 0 {
			fmt.Fprintf(&b, "  %-20s %12s %12s %12s\n", "Time to ready", formatMs(s.ReadyP50), "-", "-")
		}
		b.WriteString("\n")
	}

	if len(s.ExitCodes) > 0 {
		b.WriteString(summarySubRule)
		b.WriteString("                        Exit Codes\n")
		b.WriteString(summarySubRule + "\n")

		codes := make([]int, 0, len(s.ExitCodes))
		for code := range s.ExitCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)

		for _, code := range codes {
			fmt.Fprintf(&b, "  %3d %-16s %d\n", code, exitCodeLabel(code), s.ExitCodes[code])
		}
		b.WriteString("\n")
	}

	if metricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", metricsAddr)
	}
	b.WriteString(summaryRule)

	return b.String()
}

// exitCodeLabel returns a human-readable label for common exit codes.
func exitCodeLabel(code int) string {
	switch code {
	case 0:
		return "(clean)"
	case 1:
		return "(error)"
	case 130:
		return "(SIGINT)"
	case 137:
		return "(SIGKILL)"
	case 143:
		return "(SIGTERM)"
	default:
		return ""
	}
}

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// formatMs formats a duration in milliseconds, or seconds above 10s.
func formatMs(d time.Duration) string {
	if d >= 10*time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
