package http

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"flowcli/internal/config"
	"flowcli/internal/errors"
	"flowcli/internal/pipeline"
	"flowcli/pkg/contracts/domain"
)

// ChartHandler serves the charts and exports of the last run
type ChartHandler struct {
	paths      *config.Paths
	errHandler *errors.ErrorHandler
	logger     *slog.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(paths *config.Paths, errHandler *errors.ErrorHandler, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		paths:      paths,
		errHandler: errHandler,
		logger:     logger.With(slog.String("handler", "charts")),
	}
}

// RunListing is the body of GET /api/charts
type RunListing struct {
	RunID   string              `json:"run_id,omitempty"`
	Status  string              `json:"status,omitempty"`
	Rows    int                 `json:"rows"`
	Charts  []domain.ChartInfo  `json:"charts"`
	Exports []domain.ExportInfo `json:"exports"`
}

// Routes sets up the chart API routes
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCharts)
	return r
}

// ListCharts handles GET /api/charts. The run manifest is preferred; without
// one the charts directory is scanned.
func (h *ChartHandler) ListCharts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listing()
	if err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, listing)
}

// ServeChart handles GET /charts/{file}
func (h *ChartHandler) ServeChart(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, h.paths.ChartsDir, chi.URLParam(r, "file"), ".png")
}

// ServeExport handles GET /exports/{file}
func (h *ChartHandler) ServeExport(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, h.paths.ExportsDir, chi.URLParam(r, "file"), ".csv", ".xlsx")
}

// Index handles GET / with a page showing every chart
func (h *ChartHandler) Index(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listing()
	if err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, listing); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render index",
			slog.String("error", err.Error()))
	}
}

func (h *ChartHandler) listing() (*RunListing, error) {
	manifest, err := pipeline.LoadManifestFromFile(h.paths.GetManifestPath())
	if err == nil {
		return &RunListing{
			RunID:   manifest.RunID,
			Status:  string(manifest.Status),
			Rows:    manifest.Rows,
			Charts:  manifest.Charts,
			Exports: manifest.Exports,
		}, nil
	}

	charts, err := h.scanCharts()
	if err != nil {
		return nil, err
	}
	return &RunListing{Charts: charts, Exports: []domain.ExportInfo{}}, nil
}

func (h *ChartHandler) scanCharts() ([]domain.ChartInfo, error) {
	entries, err := os.ReadDir(h.paths.ChartsDir)
	if os.IsNotExist(err) {
		return []domain.ChartInfo{}, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("failed to read charts directory", err)
	}

	charts := []domain.ChartInfo{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		info := domain.ChartInfo{File: e.Name(), Title: strings.TrimSuffix(e.Name(), ".png")}
		if fi, err := e.Info(); err == nil {
			info.Created = fi.ModTime().UTC()
		}
		charts = append(charts, info)
	}
	sort.Slice(charts, func(i, j int) bool { return charts[i].File < charts[j].File })
	return charts, nil
}

// serveFile serves name from dir. Only plain file names with one of exts
// are accepted.
func (h *ChartHandler) serveFile(w http.ResponseWriter, r *http.Request, dir, name string, exts ...string) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		h.errHandler.HandleError(w, r, errors.NewValidationError(fmt.Sprintf("invalid file name %q", name)))
		return
	}

	allowed := false
	for _, ext := range exts {
		if strings.EqualFold(filepath.Ext(name), ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		h.errHandler.HandleError(w, r, errors.NewValidationError(fmt.Sprintf("unsupported file type %q", filepath.Ext(name))))
		return
	}

	path := filepath.Join(dir, name)
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		h.errHandler.HandleError(w, r, errors.NewNotFoundError(fmt.Sprintf("file %s", name)))
		return
	}

	http.ServeFile(w, r, path)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>flowcli reports</title>
<style>
body { font-family: sans-serif; margin: 24px; }
figure { margin: 24px 0; }
img { max-width: 100%; border: 1px solid #ddd; }
</style>
</head>
<body>
<h1>Flow reports</h1>
{{if .RunID}}<p>Run {{.RunID}} ({{.Status}}), {{.Rows}} rows</p>{{end}}
{{range .Charts}}<figure>
<img src="/charts/{{.File}}" alt="{{.Title}}">
<figcaption>{{.Title}}</figcaption>
</figure>
{{else}}<p>No charts rendered.</p>
{{end}}
{{if .Exports}}<h2>Exports</h2>
<ul>
{{range .Exports}}<li><a href="/exports/{{.File}}">{{.File}}</a> ({{.Rows}} rows)</li>
{{end}}</ul>{{end}}
</body>
</html>
`))
