package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// FlowHeader is the header row of a flow export
const FlowHeader = "client,server,client_bytes,server_bytes,start,stop"

// FlowRow is one raw row of a flow export
type FlowRow struct {
	Client      string
	Server      string
	ClientBytes int64
	ServerBytes int64
	Start       string
	Stop        string
}

// SampleFlows returns a small export spanning two days with one external flow
// and one row whose timestamps use the minute-precision layout.
func SampleFlows() []FlowRow {
	return []FlowRow{
		{"192.168.1.5", "192.168.1.1", 100, 200, "10:00:00 01/02/17", "10:05:00 01/02/17"},
		{"192.168.1.5", "8.8.8.8", 50, 25, "11:00:00 01/02/17", "11:00:30 01/02/17"},
		{"192.168.1.9", "192.168.1.1", 10, 10, "02/02/2017 00:30", "02/02/2017 00:45"},
	}
}

// FlowsCSV renders rows as a flow export with a header
func FlowsCSV(rows []FlowRow) string {
	var b strings.Builder
	b.WriteString(FlowHeader)
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(strings.Join([]string{
			r.Client,
			r.Server,
			strconv.FormatInt(r.ClientBytes, 10),
			strconv.FormatInt(r.ServerBytes, 10),
			r.Start,
			r.Stop,
		}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFlowsCSV writes rows to a CSV file in a fresh temp dir and returns its path
func WriteFlowsCSV(t *testing.T, rows []FlowRow) string {
	t.Helper()
	return WriteFile(t, "flows.csv", FlowsCSV(rows))
}

// WriteFile writes content to name inside a fresh temp dir
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadFile returns the content of path, failing the test on error
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
