package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcli/internal/config"
	"flowcli/internal/dataprocessing"
	"flowcli/internal/errors"
	"flowcli/pkg/contracts/domain"
)

func flow(client, server string, clientBytes, serverBytes int64, start string) domain.FlowRecord {
	return domain.FlowRecord{
		Client:      client,
		Server:      server,
		ClientBytes: clientBytes,
		ServerBytes: serverBytes,
		Start:       start,
		Stop:        start,
	}
}

func enrichedTable(t *testing.T, rows ...domain.FlowRecord) *dataprocessing.Table {
	t.Helper()
	table := dataprocessing.NewTable(config.DefaultSchema(), rows)
	_, err := dataprocessing.NewTransformer(nil).Enrich(context.Background(), table)
	require.NoError(t, err)
	return table
}

func TestDailyClientTotals_TwoByTwo(t *testing.T) {
	table := enrichedTable(t,
		flow("C1", "192.168.1.1", 100, 50, "10:00:00 01/02/17"),
		flow("C1", "8.8.8.8", 10, 5, "11:00:00 01/02/17"),
		flow("C2", "192.168.1.1", 1, 1, "12:00:00 01/02/17"),
		flow("C2", "192.168.1.1", 20, 20, "01:00:00 02/02/17"),
		flow("C1", "192.168.1.1", 3, 4, "02/02/2017 09:00"),
	)

	got, err := DailyClientTotals(table)
	require.NoError(t, err)

	m := got.Matrix
	assert.Equal(t, []string{"2017-02-01", "2017-02-02"}, m.Index)
	assert.Equal(t, []string{"C1", "C2"}, m.Columns)
	assert.Equal(t, [][]int64{{165, 2}, {7, 40}}, m.Values)
	assert.Equal(t, time.Date(2017, 2, 2, 0, 0, 0, 0, time.UTC), m.Times[1])
	assert.Equal(t, []float64{172, 42}, m.ColumnTotals())
	assert.Equal(t, float64(165), m.Max())

	assert.Equal(t, []string{"2017-02-01", "2017-02-02"}, got.Dates())
	assert.Len(t, got.Groups, 4)
}

func TestDailyClientTotals_AbsentClientIsZeroAndNotGrouped(t *testing.T) {
	table := enrichedTable(t,
		flow("C1", "192.168.1.1", 100, 50, "10:00:00 01/02/17"),
		flow("C2", "192.168.1.1", 20, 20, "01:00:00 02/02/17"),
		flow("C3", "192.168.1.1", 9, 9, "not a time"),
	)

	got, err := DailyClientTotals(table)
	require.NoError(t, err)

	assert.Equal(t, []string{"C1", "C2"}, got.Matrix.Columns, "rows without a date are excluded")
	assert.Equal(t, int64(0), got.Matrix.Get("2017-02-01", "C2"))
	assert.Equal(t, []Group{{Date: "2017-02-01", Client: "C1", Bytes: 150}}, got.ForDate("2017-02-01"))
	assert.Equal(t, []Group{{Date: "2017-02-02", Client: "C2", Bytes: 40}}, got.ForDate("2017-02-02"))
}

func TestExternalTrafficPerClient(t *testing.T) {
	table := enrichedTable(t,
		flow("C1", "8.8.8.8", 10, 5, "11:00:00 01/02/17"),
		flow("C1", "1.1.1.1", 1, 1, "12:00:00 01/02/17"),
		flow("C1", "192.168.1.1", 1000, 1000, "12:00:00 01/02/17"),
		flow("C2", "10.0.0.2", 3, 3, "01:00:00 03/02/17"),
	)

	m, err := ExternalTrafficPerClient(table)
	require.NoError(t, err)

	assert.Equal(t, []string{"2017-02-01", "2017-02-03"}, m.Index)
	assert.Equal(t, []string{"C1", "C2"}, m.Columns)
	assert.Equal(t, []int64{17, 0}, m.Column("C1"))
	assert.Equal(t, []int64{0, 6}, m.Column("C2"))
	assert.Nil(t, m.Column("C9"))
}

func TestFieldPerBucket_AlignmentAndGaps(t *testing.T) {
	table := enrichedTable(t,
		flow("C1", "192.168.1.1", 10, 0, "10:30:00 01/02/17"),
		flow("C1", "192.168.1.1", 5, 0, "11:59:59 01/02/17"),
		flow("C2", "192.168.1.1", 7, 0, "02/02/2017 01:00"),
		flow("C2", "192.168.1.1", 100, 0, "bad"),
	)

	s, err := FieldPerBucket(table, "client_bytes", MustParseWindow("4H"))
	require.NoError(t, err)

	day := time.Date(2017, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []time.Time{
		day.Add(8 * time.Hour),
		day.Add(12 * time.Hour),
		day.Add(16 * time.Hour),
		day.Add(20 * time.Hour),
		day.Add(24 * time.Hour),
	}, s.Times)
	assert.Equal(t, []int64{15, 0, 0, 0, 7}, s.Values)
	assert.Equal(t, "client_bytes", s.Name)
}

func TestFieldPerBucket_Fields(t *testing.T) {
	table := enrichedTable(t, flow("C1", "192.168.1.1", 10, 4, "10:30:00 01/02/17"))

	total, err := FieldPerBucket(table, "total_bytes", MustParseWindow("D"))
	require.NoError(t, err)
	assert.Equal(t, []int64{14}, total.Values)

	server, err := FieldPerBucket(table, "server_bytes", MustParseWindow("D"))
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, server.Values)

	_, err = FieldPerBucket(table, "packets", MustParseWindow("D"))
	assert.True(t, errors.IsValidation(err))
}

func TestFieldPerBucketPerClient(t *testing.T) {
	table := enrichedTable(t,
		flow("C1", "192.168.1.1", 10, 0, "10:30:00 01/02/17"),
		flow("C2", "192.168.1.1", 7, 1, "02/02/2017 01:00"),
		flow("C1", "192.168.1.1", 1, 1, "23:00:00 03/02/17"),
	)

	m, err := FieldPerBucketPerClient(table, "total_bytes", MustParseWindow("D"))
	require.NoError(t, err)

	assert.Equal(t, []string{"2017-02-01 00:00:00", "2017-02-02 00:00:00", "2017-02-03 00:00:00"}, m.Index)
	assert.Equal(t, []string{"C1", "C2"}, m.Columns)
	assert.Equal(t, [][]int64{{10, 0}, {0, 8}, {2, 0}}, m.Values)
}

func TestExternalShare(t *testing.T) {
	table := enrichedTable(t,
		flow("C2", "8.8.8.8", 30, 10, "10:30:00 01/02/17"),
		flow("C2", "192.168.1.1", 50, 10, "10:30:00 01/02/17"),
		flow("C1", "192.168.1.1", 0, 0, "10:30:00 01/02/17"),
	)

	got, err := ExternalShare(table)
	require.NoError(t, err)

	assert.Equal(t, []ClientShare{
		{Client: "C1", TotalBytes: 0, ExternalBytes: 0, Share: 0},
		{Client: "C2", TotalBytes: 100, ExternalBytes: 40, Share: 0.4},
	}, got)
}

func TestReports_EmptyTable(t *testing.T) {
	table := enrichedTable(t)
	w := MustParseWindow("4H")

	daily, err := DailyClientTotals(table)
	require.NoError(t, err)
	assert.True(t, daily.Matrix.Empty())
	assert.Empty(t, daily.Groups)

	external, err := ExternalTrafficPerClient(table)
	require.NoError(t, err)
	assert.True(t, external.Empty())

	perBucket, err := FieldPerBucket(table, "total_bytes", w)
	require.NoError(t, err)
	assert.True(t, perBucket.Empty())

	perClient, err := FieldPerBucketPerClient(table, "total_bytes", w)
	require.NoError(t, err)
	assert.True(t, perClient.Empty())
	assert.Equal(t, float64(0), perClient.Max())

	share, err := ExternalShare(table)
	require.NoError(t, err)
	assert.Empty(t, share)
}

func TestReports_RequireEnrichment(t *testing.T) {
	table := dataprocessing.NewTable(config.DefaultSchema(), []domain.FlowRecord{
		flow("C1", "192.168.1.1", 1, 1, "10:30:00 01/02/17"),
	})

	_, err := DailyClientTotals(table)
	assert.ErrorIs(t, err, ErrNotEnriched)
	_, err = FieldPerBucket(table, "total_bytes", MustParseWindow("D"))
	assert.ErrorIs(t, err, ErrNotEnriched)
}

func TestReports_DoNotMutateTable(t *testing.T) {
	table := enrichedTable(t,
		flow("C2", "8.8.8.8", 30, 10, "10:30:00 01/02/17"),
		flow("C1", "192.168.1.1", 5, 5, "02/02/2017 01:00"),
	)
	before := append([]domain.FlowRecord(nil), table.Records()...)

	_, _ = DailyClientTotals(table)
	_, _ = ExternalTrafficPerClient(table)
	_, _ = FieldPerBucketPerClient(table, "total_bytes", MustParseWindow("D"))
	_, _ = ExternalShare(table)

	assert.Equal(t, before, table.Records())
}

func TestRun_EnabledReportsOnly(t *testing.T) {
	table := enrichedTable(t,
		flow("C1", "192.168.1.1", 100, 50, "10:00:00 01/02/17"),
		flow("C1", "8.8.8.8", 10, 5, "11:00:00 01/02/17"),
	)
	cfg := config.Default().Reports
	cfg.Enabled = []string{"field_per_bucket", "external_share"}

	res, err := Run(table, cfg)
	require.NoError(t, err)

	assert.True(t, res.Has(domain.ReportFieldPerBucket))
	assert.True(t, res.Has(domain.ReportExternalShare))
	assert.False(t, res.Has(domain.ReportDailyClientTotals))
	assert.False(t, res.Has(domain.ReportExternalPerClient))
	assert.False(t, res.Has(domain.ReportFieldPerBucketPerClient))
	assert.Equal(t, []int64{165}, res.FieldPerBucket.Values)
	require.Len(t, res.ExternalShares, 1)
	assert.Equal(t, "4H", res.Window.String())
}

func TestRun_AllReports(t *testing.T) {
	table := enrichedTable(t, flow("C1", "8.8.8.8", 1, 2, "10:00:00 01/02/17"))

	res, err := Run(table, config.Default().Reports)
	require.NoError(t, err)
	for _, kind := range domain.AllReports() {
		assert.True(t, res.Has(kind), kind)
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	table := enrichedTable(t)

	tests := []struct {
		name   string
		mutate func(*config.ReportsConfig)
	}{
		{"unknown field", func(c *config.ReportsConfig) { c.Field = "bogus" }},
		{"bad bucket window", func(c *config.ReportsConfig) { c.BucketWindow = "fortnight" }},
		{"bad client window", func(c *config.ReportsConfig) { c.ClientBucketWindow = "0H" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Reports
			tt.mutate(&cfg)
			_, err := Run(table, cfg)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestRun_RequiresEnrichment(t *testing.T) {
	table := dataprocessing.NewTable(config.DefaultSchema(), nil)

	_, err := Run(table, config.Default().Reports)
	assert.ErrorIs(t, err, ErrNotEnriched)
}
