package csvreport

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/jcortez/trafficguru/internal/metrics"
)

func TestWriteRowEmitsHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	r := metrics.Report{Timestamp: time.Now(), TotalVehicles: 5}
	if err := w.WriteRow(r); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.WriteRow(r); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("reading back csv failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows = 3 records, got %d", len(records))
	}
	for i, col := range Header {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	if records[1][5] != "5" {
		t.Errorf("total_vehicles column = %q, want 5", records[1][5])
	}
}
