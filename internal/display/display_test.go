package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jcortez/trafficguru/internal/lane"
	"github.com/jcortez/trafficguru/internal/metrics"
	"github.com/jcortez/trafficguru/internal/quadrant"
)

func TestPrintLanesIncludesEachLane(t *testing.T) {
	var snaps [4]lane.Snapshot
	for i := range snaps {
		snaps[i] = lane.Snapshot{ID: quadrant.Lane(i), State: lane.Waiting}
	}
	var buf bytes.Buffer
	PrintLanes(&buf, snaps)
	out := buf.String()
	for _, want := range []string{"N", "S", "E", "W"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to mention lane %s, got:\n%s", want, out)
		}
	}
}

func TestPrintReportIncludesCounters(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, metrics.Report{TotalVehicles: 42, ContextSwitches: 3})
	out := buf.String()
	if !strings.Contains(out, "total=42") {
		t.Errorf("expected output to include total=42, got:\n%s", out)
	}
}
