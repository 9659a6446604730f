package charts

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcli/internal/config"
	"flowcli/internal/errors"
	"flowcli/internal/reports"
	"flowcli/internal/shared/testutil"
	"flowcli/pkg/contracts/domain"
)

func newTestRenderer(t *testing.T) (*Renderer, *config.Paths, *testutil.BufferedSlogHandler) {
	t.Helper()
	paths, err := config.NewPaths(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	logger, handler := testutil.NewTestLogger(t)
	out := config.OutputConfig{ChartWidth: 400, ChartHeight: 300}
	return NewRenderer(paths, out, logger), paths, handler
}

func assertPNG(t *testing.T, paths *config.Paths, file string) {
	t.Helper()
	data, err := os.ReadFile(paths.GetChartPath(file))
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}

func day(d, h int) time.Time {
	return time.Date(2017, 2, d, h, 0, 0, 0, time.UTC)
}

func TestRenderBar(t *testing.T) {
	r, paths, _ := newTestRenderer(t)

	file, err := r.RenderBar(context.Background(), "Totals 2017-02-01", "Totals", "bytes", []Bar{
		{Label: "192.168.1.5", Value: 375},
		{Label: "192.168.1.9", Value: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, "totals-2017-02-01.png", file)
	assertPNG(t, paths, file)
}

func TestRenderBar_AllZero(t *testing.T) {
	r, paths, _ := newTestRenderer(t)

	file, err := r.RenderBar(context.Background(), "zero", "Zero", "share", []Bar{{Label: "a", Value: 0}})
	require.NoError(t, err)
	assertPNG(t, paths, file)
}

func TestRenderBar_NoData(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	_, err := r.RenderBar(context.Background(), "empty", "Empty", "bytes", nil)
	assert.ErrorIs(t, err, ErrNoData)
	assert.True(t, errors.IsType(err, errors.ErrTypeRender))
}

func TestRenderLines(t *testing.T) {
	tests := []struct {
		name       string
		lines      []Line
		legendLeft bool
	}{
		{
			name: "two lines legend left",
			lines: []Line{
				{Name: "a", Times: []time.Time{day(1, 0), day(1, 4), day(1, 8)}, Values: []float64{1, 5, 2}},
				{Name: "b", Times: []time.Time{day(1, 0), day(1, 4), day(1, 8)}, Values: []float64{0, 3, 9}},
			},
			legendLeft: true,
		},
		{
			name:  "single point",
			lines: []Line{{Name: "a", Times: []time.Time{day(1, 0)}, Values: []float64{7}}},
		},
		{
			name:  "all zero",
			lines: []Line{{Name: "a", Times: []time.Time{day(1, 0), day(2, 0)}, Values: []float64{0, 0}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, paths, _ := newTestRenderer(t)

			file, err := r.RenderLines(context.Background(), "lines", "Lines", "bytes", tt.lines, tt.legendLeft)
			require.NoError(t, err)
			assert.Equal(t, "lines.png", file)
			assertPNG(t, paths, file)
		})
	}
}

func TestRenderLines_NoData(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	_, err := r.RenderLines(context.Background(), "empty", "Empty", "bytes", nil, false)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = r.RenderLines(context.Background(), "mismatch", "Mismatch", "bytes",
		[]Line{{Name: "a", Times: []time.Time{day(1, 0)}, Values: nil}}, false)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDailyClientTotals_OneChartPerDate(t *testing.T) {
	r, paths, _ := newTestRenderer(t)
	d := &reports.DailyTotals{
		Groups: []reports.Group{
			{Date: "2017-02-01", Client: "192.168.1.5", Bytes: 375},
			{Date: "2017-02-02", Client: "192.168.1.9", Bytes: 20},
		},
		Matrix: &reports.Matrix{
			Index:   []string{"2017-02-01", "2017-02-02"},
			Times:   []time.Time{day(1, 0), day(2, 0)},
			Columns: []string{"192.168.1.5", "192.168.1.9"},
			Values:  [][]int64{{375, 0}, {0, 20}},
		},
	}

	infos, err := r.DailyClientTotals(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "daily-client-totals-2017-02-01.png", infos[0].File)
	assert.Equal(t, "Total bytes per client on 2017-02-02", infos[1].Title)
	for _, info := range infos {
		assert.Equal(t, domain.ReportDailyClientTotals, info.Report)
		assertPNG(t, paths, info.File)
	}
}

func TestExternalPerClient_CollidingSlugs(t *testing.T) {
	m := &reports.Matrix{
		Index:   []string{"2017-02-01"},
		Times:   []time.Time{day(1, 0)},
		Columns: []string{"C1", "c1", "per-client"},
		Values:  [][]int64{{75, 10, 5}},
	}

	r, paths, _ := newTestRenderer(t)
	infos, err := r.ExternalPerClient(context.Background(), m, true)
	require.NoError(t, err)
	require.Len(t, infos, 4)

	files := make(map[string]bool)
	for _, info := range infos {
		assert.False(t, files[info.File], "duplicate chart file %s", info.File)
		files[info.File] = true
		assertPNG(t, paths, info.File)
	}
	assert.True(t, files["external-per-client.png"])
	assert.True(t, files["external-01-c1.png"])
	assert.True(t, files["external-02-c1.png"])
	assert.True(t, files["external-03-per-client.png"])
}

func TestExternalPerClient(t *testing.T) {
	m := &reports.Matrix{
		Index:   []string{"2017-02-01", "2017-02-02"},
		Times:   []time.Time{day(1, 0), day(2, 0)},
		Columns: []string{"c1", "c2"},
		Values:  [][]int64{{75, 0}, {0, 10}},
	}

	t.Run("combined only", func(t *testing.T) {
		r, _, _ := newTestRenderer(t)
		infos, err := r.ExternalPerClient(context.Background(), m, false)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "external-per-client.png", infos[0].File)
	})

	t.Run("per client", func(t *testing.T) {
		r, paths, _ := newTestRenderer(t)
		infos, err := r.ExternalPerClient(context.Background(), m, true)
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, "external-01-c1.png", infos[1].File)
		assert.Equal(t, "external-02-c2.png", infos[2].File)
		for _, info := range infos {
			assertPNG(t, paths, info.File)
		}
	})
}

func TestFieldPerBucket(t *testing.T) {
	r, paths, _ := newTestRenderer(t)
	s := &reports.Series{
		Name:   "total_bytes",
		Times:  []time.Time{day(1, 8), day(1, 12)},
		Values: []int64{300, 75},
	}

	infos, err := r.FieldPerBucket(context.Background(), s, reports.MustParseWindow("4H"))
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "total_bytes per 4H window", infos[0].Title)
	assertPNG(t, paths, infos[0].File)
}

func TestFieldPerBucketPerClient(t *testing.T) {
	r, paths, _ := newTestRenderer(t)
	m := &reports.Matrix{
		Index:   []string{"2017-02-01 00:00:00"},
		Times:   []time.Time{day(1, 0)},
		Columns: []string{"c1", "c2"},
		Values:  [][]int64{{375, 0}},
	}

	infos, err := r.FieldPerBucketPerClient(context.Background(), m, "total_bytes", reports.MustParseWindow("D"))
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, domain.ReportFieldPerBucketPerClient, infos[0].Report)
	assertPNG(t, paths, infos[0].File)
}

func TestExternalShare(t *testing.T) {
	r, paths, _ := newTestRenderer(t)

	infos, err := r.ExternalShare(context.Background(), []reports.ClientShare{
		{Client: "192.168.1.5", TotalBytes: 375, ExternalBytes: 75, Share: 0.2},
		{Client: "192.168.1.9", TotalBytes: 20, Share: 0},
	})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "external-share.png", infos[0].File)
	assertPNG(t, paths, infos[0].File)
}

func TestEmptyReportsAreSkipped(t *testing.T) {
	r, paths, logs := newTestRenderer(t)
	ctx := context.Background()
	w := reports.MustParseWindow("D")

	for name, render := range map[string]func() ([]domain.ChartInfo, error){
		"daily":      func() ([]domain.ChartInfo, error) { return r.DailyClientTotals(ctx, &reports.DailyTotals{}) },
		"external":   func() ([]domain.ChartInfo, error) { return r.ExternalPerClient(ctx, &reports.Matrix{}, true) },
		"bucket":     func() ([]domain.ChartInfo, error) { return r.FieldPerBucket(ctx, &reports.Series{}, w) },
		"per client": func() ([]domain.ChartInfo, error) { return r.FieldPerBucketPerClient(ctx, nil, "total_bytes", w) },
		"share":      func() ([]domain.ChartInfo, error) { return r.ExternalShare(ctx, nil) },
	} {
		infos, err := render()
		require.NoError(t, err, name)
		assert.Empty(t, infos, name)
	}

	entries, err := os.ReadDir(paths.ChartsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.True(t, logs.ContainsMessage("chart skipped, no data"))
}
