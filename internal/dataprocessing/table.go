package dataprocessing

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"flowcli/internal/config"
	"flowcli/pkg/contracts/domain"
)

// Table holds the flow records of one input file. It is enriched once by a
// Transformer and only read afterwards.
type Table struct {
	schema   config.SchemaConfig
	header   []string
	frame    dataframe.DataFrame
	records  []domain.FlowRecord
	enriched bool
}

func newTable(schema config.SchemaConfig, header []string, frame dataframe.DataFrame, records []domain.FlowRecord) *Table {
	return &Table{
		schema:  schema,
		header:  header,
		frame:   frame,
		records: records,
	}
}

// NewTable builds a table directly from records, as if loaded from a file
// with the default header.
func NewTable(schema config.SchemaConfig, records []domain.FlowRecord) *Table {
	header := schema.InputColumns()

	clients := make([]string, len(records))
	servers := make([]string, len(records))
	clientBytes := make([]int, len(records))
	serverBytes := make([]int, len(records))
	starts := make([]string, len(records))
	stops := make([]string, len(records))
	for i, r := range records {
		clients[i] = r.Client
		servers[i] = r.Server
		clientBytes[i] = int(r.ClientBytes)
		serverBytes[i] = int(r.ServerBytes)
		starts[i] = r.Start
		stops[i] = r.Stop
	}

	frame := dataframe.New(
		series.New(clients, series.String, schema.Client),
		series.New(servers, series.String, schema.Server),
		series.New(clientBytes, series.Int, schema.ClientBytes),
		series.New(serverBytes, series.Int, schema.ServerBytes),
		series.New(starts, series.String, schema.Start),
		series.New(stops, series.String, schema.Stop),
	)

	loaded := make([]domain.FlowRecord, len(records))
	for i, r := range records {
		loaded[i] = domain.FlowRecord{
			Client:      r.Client,
			Server:      r.Server,
			ClientBytes: r.ClientBytes,
			ServerBytes: r.ServerBytes,
			Start:       r.Start,
			Stop:        r.Stop,
		}
	}
	return newTable(schema, header, frame, loaded)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.records)
}

// Schema returns the column names of the table
func (t *Table) Schema() config.SchemaConfig {
	return t.schema
}

// Header returns the columns of the input file in file order
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// Enriched reports whether the derived columns have been computed
func (t *Table) Enriched() bool {
	return t.enriched
}

// Records returns the rows in file order. Callers must not modify them.
func (t *Table) Records() []domain.FlowRecord {
	return t.records
}

// Frame returns the loaded columns, followed by the derived columns once the
// table is enriched. Null timestamps and dates are empty strings.
func (t *Table) Frame() dataframe.DataFrame {
	if !t.enriched {
		return t.frame.Copy()
	}

	n := len(t.records)
	startTS := make([]string, n)
	stopTS := make([]string, n)
	outside := make([]bool, n)
	total := make([]int, n)
	dates := make([]string, n)
	for i, r := range t.records {
		startTS[i] = r.StartTS.Format(domain.TimestampLayout)
		stopTS[i] = r.StopTS.Format(domain.TimestampLayout)
		outside[i] = r.IsOutside
		total[i] = int(r.TotalBytes)
		dates[i] = r.Date
	}

	return t.frame.
		Mutate(series.New(startTS, series.String, t.schema.StartTS)).
		Mutate(series.New(stopTS, series.String, t.schema.StopTS)).
		Mutate(series.New(outside, series.Bool, t.schema.IsOutside)).
		Mutate(series.New(total, series.Int, t.schema.TotalBytes)).
		Mutate(series.New(dates, series.String, t.schema.Date))
}

// DerivedColumns returns the names Enrich adds, in export order
func (t *Table) DerivedColumns() []string {
	return []string{t.schema.StartTS, t.schema.StopTS, t.schema.IsOutside, t.schema.TotalBytes, t.schema.Date}
}
