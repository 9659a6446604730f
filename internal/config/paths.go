package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains every output location of a run.
// All paths derive from the output directory so a run is self-contained.
type Paths struct {
	OutputDir   string
	ChartsDir   string
	ExportsDir  string
	MetricsFile string
}

// NewPaths resolves the output layout below outputDir.
// A relative metricsFile is placed inside outputDir; an empty one disables it.
func NewPaths(outputDir, metricsFile string) (*Paths, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory must not be empty")
	}

	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory %s: %v", outputDir, err)
	}

	p := &Paths{
		OutputDir:  abs,
		ChartsDir:  filepath.Join(abs, ChartsSubdir),
		ExportsDir: filepath.Join(abs, ExportsSubdir),
	}
	if metricsFile != "" {
		if filepath.IsAbs(metricsFile) {
			p.MetricsFile = metricsFile
		} else {
			p.MetricsFile = filepath.Join(abs, metricsFile)
		}
	}
	return p, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.ChartsDir,
		p.ExportsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetChartPath returns the full path for a chart file
func (p *Paths) GetChartPath(filename string) string {
	return filepath.Join(p.ChartsDir, filename)
}

// GetExportPath returns the full path for an export file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// GetManifestPath returns the path of the run manifest
func (p *Paths) GetManifestPath() string {
	return filepath.Join(p.OutputDir, ManifestFile)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// SafeFileName turns an arbitrary label into a file-name-safe slug
func SafeFileName(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// LogPathResolution logs all resolved paths for debugging
func (p *Paths) LogPathResolution() {
	slog.Info("Resolved output paths",
		slog.String("output_dir", p.OutputDir),
		slog.String("charts_dir", p.ChartsDir),
		slog.String("exports_dir", p.ExportsDir),
		slog.String("metrics_file", p.MetricsFile))
}
