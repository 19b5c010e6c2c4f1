// Package display implements the minimal terminal snapshot printer named
// as a free external collaborator in the specification: it reads only
// already-copied value snapshots, never live component state, so it can
// never violate the lock ordering described for the rest of the core.
package display

import (
	"fmt"
	"io"

	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/metrics"
)

// PrintLanes writes one line per lane snapshot.
func PrintLanes(w io.Writer, snaps [4]lane.Snapshot) {
	for _, s := range snaps {
		fmt.Fprintf(w, "lane %-5s state=%-7s queue=%-3d priority=%d served=%d overflow=%d\n",
			s.ID, s.State, s.QueueLen, s.Priority, s.TotalVehiclesServed, s.OverflowCount)
	}
}

// PrintReport writes one multi-line rendering of a metrics report.
func PrintReport(w io.Writer, r metrics.Report) {
	fmt.Fprintf(w, "t=%s  vehicles/min=%.2f  avg_wait=%.2fs  utilization=%.2f  fairness=%.2f\n",
		r.SimulationTime.Truncate(1e9), r.VehiclesPerMinute, r.AvgWaitTime.Seconds(), r.Utilization, r.FairnessIndex)
	fmt.Fprintf(w, "    total=%d  switches=%d  deadlocks_prevented=%d  overflows=%d\n",
		r.TotalVehicles, r.ContextSwitches, r.DeadlocksPrevented, r.QueueOverflows)
}
