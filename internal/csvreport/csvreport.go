// Package csvreport writes metrics.Report snapshots to CSV using the
// header and column order fixed by the specification, over the standard
// library's encoding/csv — the same library LukasLovas-VirtualPlatooningIntersectionControl's
// benchmark and web-server components use for their own CSV output.
package csvreport

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jcortez/trafficguru/internal/metrics"
)

// Header is the fixed column order required by the specification.
var Header = []string{
	"timestamp", "vehicles_per_minute", "avg_wait_time", "utilization", "fairness_index",
	"total_vehicles", "context_switches", "emergency_response_time",
	"deadlocks_prevented", "queue_overflows", "simulation_time",
}

// Writer appends metrics.Report rows to an underlying io.Writer in CSV
// form, writing the header exactly once.
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter constructs a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// WriteRow appends one snapshot, writing the header first if this is the
// first row written.
func (wr *Writer) WriteRow(r metrics.Report) error {
	if !wr.wroteHeader {
		if err := wr.w.Write(Header); err != nil {
			return err
		}
		wr.wroteHeader = true
	}
	row := []string{
		r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		fmt.Sprintf("%.4f", r.VehiclesPerMinute),
		fmt.Sprintf("%.4f", r.AvgWaitTime.Seconds()),
		fmt.Sprintf("%.4f", r.Utilization),
		fmt.Sprintf("%.4f", r.FairnessIndex),
		fmt.Sprintf("%d", r.TotalVehicles),
		fmt.Sprintf("%d", r.ContextSwitches),
		fmt.Sprintf("%.4f", r.EmergencyResponseTime.Seconds()),
		fmt.Sprintf("%d", r.DeadlocksPrevented),
		fmt.Sprintf("%d", r.QueueOverflows),
		fmt.Sprintf("%.4f", r.SimulationTime.Seconds()),
	}
	if err := wr.w.Write(row); err != nil {
		return err
	}
	wr.w.Flush()
	return wr.w.Error()
}
