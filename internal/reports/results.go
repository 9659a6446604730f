package reports

import (
	"fmt"

	"flowcli/internal/config"
	"flowcli/internal/dataprocessing"
	"flowcli/pkg/contracts/domain"
)

// Results holds the output of every report selected for a run. Reports that
// were not enabled are nil.
type Results struct {
	Field        string
	Window       Window
	ClientWindow Window

	DailyTotals             *DailyTotals
	ExternalPerClient       *Matrix
	FieldPerBucket          *Series
	FieldPerBucketPerClient *Matrix
	ExternalShares          []ClientShare
	sharesDone              bool
}

// Has reports whether kind was computed
func (r *Results) Has(kind domain.ReportKind) bool {
	switch kind {
	case domain.ReportDailyClientTotals:
		return r.DailyTotals != nil
	case domain.ReportExternalPerClient:
		return r.ExternalPerClient != nil
	case domain.ReportFieldPerBucket:
		return r.FieldPerBucket != nil
	case domain.ReportFieldPerBucketPerClient:
		return r.FieldPerBucketPerClient != nil
	case domain.ReportExternalShare:
		return r.sharesDone
	}
	return false
}

// ParseOptions validates the windows and field of cfg against schema
func ParseOptions(cfg config.ReportsConfig, schema config.SchemaConfig) (*Results, error) {
	if _, err := Field(schema, cfg.Field); err != nil {
		return nil, err
	}
	w, err := ParseWindow(cfg.BucketWindow)
	if err != nil {
		return nil, fmt.Errorf("bucket window: %w", err)
	}
	cw, err := ParseWindow(cfg.ClientBucketWindow)
	if err != nil {
		return nil, fmt.Errorf("client bucket window: %w", err)
	}
	return &Results{Field: cfg.Field, Window: w, ClientWindow: cw}, nil
}

// Run executes the reports enabled in cfg, in the order of domain.AllReports
func Run(t *dataprocessing.Table, cfg config.ReportsConfig) (*Results, error) {
	res, err := ParseOptions(cfg, t.Schema())
	if err != nil {
		return nil, err
	}

	for _, kind := range domain.AllReports() {
		if !cfg.IsEnabled(string(kind)) {
			continue
		}
		if err := res.run(t, kind); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}
	return res, nil
}

func (r *Results) run(t *dataprocessing.Table, kind domain.ReportKind) error {
	var err error
	switch kind {
	case domain.ReportDailyClientTotals:
		r.DailyTotals, err = DailyClientTotals(t)
	case domain.ReportExternalPerClient:
		r.ExternalPerClient, err = ExternalTrafficPerClient(t)
	case domain.ReportFieldPerBucket:
		r.FieldPerBucket, err = FieldPerBucket(t, r.Field, r.Window)
	case domain.ReportFieldPerBucketPerClient:
		r.FieldPerBucketPerClient, err = FieldPerBucketPerClient(t, r.Field, r.ClientWindow)
	case domain.ReportExternalShare:
		r.ExternalShares, err = ExternalShare(t)
		r.sharesDone = err == nil
	}
	return err
}
