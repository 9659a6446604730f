package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"flowcli/internal/config"
	"flowcli/internal/dataprocessing"
	"flowcli/pkg/contracts/domain"
)

// Manifest records what a run read and wrote. It is saved next to the
// charts so the chart server can list them without rescanning.
type Manifest struct {
	mu sync.RWMutex

	RunID       string    `json:"run_id"`
	SpanTraceID string    `json:"span_trace_id,omitempty"`
	Version     string    `json:"version"`
	Input       string    `json:"input"`
	StartTime   time.Time `json:"start_time"`
	LastUpdate  time.Time `json:"last_updated"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`

	Rows       int                         `json:"rows"`
	Enrichment *dataprocessing.EnrichStats `json:"enrichment,omitempty"`
	Charts     []domain.ChartInfo          `json:"charts"`
	Exports    []domain.ExportInfo         `json:"exports"`
	Steps      []StepExecution             `json:"steps"`
}

// StepExecution is the recorded outcome of one step
type StepExecution struct {
	Step     string     `json:"step"`
	Status   StepStatus `json:"status"`
	Duration string     `json:"duration"`
	Message  string     `json:"message,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// NewManifest creates a manifest for a run over input
func NewManifest(runID, input string) *Manifest {
	now := time.Now().UTC()
	return &Manifest{
		RunID:      runID,
		Version:    config.AppVersion,
		Input:      input,
		StartTime:  now,
		LastUpdate: now,
		Status:     RunStatusRunning,
		Charts:     []domain.ChartInfo{},
		Exports:    []domain.ExportInfo{},
		Steps:      []StepExecution{},
	}
}

// RecordStep appends the outcome of a finished step
func (m *Manifest) RecordStep(s *StepState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.mu.RLock()
	exec := StepExecution{
		Step:    s.ID,
		Status:  s.Status,
		Message: s.Message,
	}
	if s.Error != nil {
		exec.Error = s.Error.Error()
	}
	s.mu.RUnlock()
	exec.Duration = s.Duration().String()

	m.Steps = append(m.Steps, exec)
	m.LastUpdate = time.Now().UTC()
}

// AddCharts records rendered charts
func (m *Manifest) AddCharts(charts ...domain.ChartInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Charts = append(m.Charts, charts...)
	m.LastUpdate = time.Now().UTC()
}

// AddExports records written exports
func (m *Manifest) AddExports(exports ...domain.ExportInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Exports = append(m.Exports, exports...)
	m.LastUpdate = time.Now().UTC()
}

// SetEnrichment records the row counts of the enrich step
func (m *Manifest) SetEnrichment(stats dataprocessing.EnrichStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rows = stats.Rows
	m.Enrichment = &stats
}

// Finish sets the final status of the run
func (m *Manifest) Finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = RunStatusCompleted
	if err != nil {
		m.Status = RunStatusFailed
		m.Error = err.Error()
	}
	m.LastUpdate = time.Now().UTC()
}

// SaveToFile saves the manifest to a JSON file
func (m *Manifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}
