package reports

import (
	"fmt"
	"sort"
	"time"

	"flowcli/internal/config"
	"flowcli/internal/dataprocessing"
	"flowcli/internal/errors"
	"flowcli/pkg/contracts/domain"
)

// ErrNotEnriched is returned when a report runs on a table without derived columns
var ErrNotEnriched = errors.NewStateError("table must be enriched before reporting")

// Group is the summed bytes of one client on one date
type Group struct {
	Date   string
	Client string
	Bytes  int64
}

// DailyTotals is the (date, client) group-by. Groups holds only combinations
// present in the data; Matrix zero-fills the rest.
type DailyTotals struct {
	Groups []Group
	Matrix *Matrix
}

// Dates returns the distinct dates in order
func (d *DailyTotals) Dates() []string {
	if d.Matrix == nil {
		return nil
	}
	return d.Matrix.Index
}

// ForDate returns the groups of date ordered by client
func (d *DailyTotals) ForDate(date string) []Group {
	var out []Group
	for _, g := range d.Groups {
		if g.Date == date {
			out = append(out, g)
		}
	}
	return out
}

// ClientShare is the external part of one client's traffic
type ClientShare struct {
	Client        string  `json:"client"`
	TotalBytes    int64   `json:"total_bytes"`
	ExternalBytes int64   `json:"external_bytes"`
	Share         float64 `json:"share"`
}

// FieldFunc extracts a numeric field from a record
type FieldFunc func(domain.FlowRecord) int64

// Field resolves a numeric column name of schema to its accessor
func Field(schema config.SchemaConfig, name string) (FieldFunc, error) {
	switch name {
	case schema.ClientBytes:
		return func(r domain.FlowRecord) int64 { return r.ClientBytes }, nil
	case schema.ServerBytes:
		return func(r domain.FlowRecord) int64 { return r.ServerBytes }, nil
	case schema.TotalBytes:
		return func(r domain.FlowRecord) int64 { return r.TotalBytes }, nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown numeric field %q, expected one of %s, %s, %s",
			name, schema.ClientBytes, schema.ServerBytes, schema.TotalBytes))
	}
}

func records(t *dataprocessing.Table) ([]domain.FlowRecord, error) {
	if !t.Enriched() {
		return nil, ErrNotEnriched
	}
	return t.Records(), nil
}

// DailyClientTotals sums total bytes per (date, client). Rows without a
// date are left out.
func DailyClientTotals(t *dataprocessing.Table) (*DailyTotals, error) {
	rows, err := records(t)
	if err != nil {
		return nil, err
	}

	p := newPivot()
	for _, r := range rows {
		if r.Date == "" {
			continue
		}
		p.add(r.Date, dayOf(r), r.Client, r.TotalBytes)
	}

	m := p.matrix()
	out := &DailyTotals{Matrix: m}
	for _, date := range m.Index {
		for _, client := range m.Columns {
			if p.has(date, client) {
				out.Groups = append(out.Groups, Group{Date: date, Client: client, Bytes: m.Get(date, client)})
			}
		}
	}
	return out, nil
}

// ExternalTrafficPerClient pivots the total bytes of external rows into a
// date by client matrix.
func ExternalTrafficPerClient(t *dataprocessing.Table) (*Matrix, error) {
	rows, err := records(t)
	if err != nil {
		return nil, err
	}

	p := newPivot()
	for _, r := range rows {
		if !r.IsOutside || r.Date == "" {
			continue
		}
		p.add(r.Date, dayOf(r), r.Client, r.TotalBytes)
	}
	return p.matrix(), nil
}

// FieldPerBucket sums field over fixed windows of the start timestamp.
// Buckets are counted from midnight UTC of the earliest day; every bucket
// between the first and last non-empty one is present.
func FieldPerBucket(t *dataprocessing.Table, field string, w Window) (*Series, error) {
	rows, err := records(t)
	if err != nil {
		return nil, err
	}
	get, err := Field(t.Schema(), field)
	if err != nil {
		return nil, err
	}

	series := &Series{Name: field}
	origin, first, last, ok := bucketRange(rows, w)
	if !ok {
		return series, nil
	}

	n := last - first + 1
	series.Times = make([]time.Time, n)
	series.Values = make([]int64, n)
	for i := range series.Times {
		series.Times[i] = origin.Add(time.Duration(first+int64(i)) * w.Width)
	}
	for _, r := range rows {
		if !r.StartTS.Valid {
			continue
		}
		series.Values[bucketIndex(origin, r.StartTS.Time, w.Width)-first] += get(r)
	}
	return series, nil
}

// FieldPerBucketPerClient pivots field into a bucket by client matrix with
// the same bucket layout as FieldPerBucket.
func FieldPerBucketPerClient(t *dataprocessing.Table, field string, w Window) (*Matrix, error) {
	rows, err := records(t)
	if err != nil {
		return nil, err
	}
	get, err := Field(t.Schema(), field)
	if err != nil {
		return nil, err
	}

	origin, first, last, ok := bucketRange(rows, w)
	if !ok {
		return &Matrix{}, nil
	}

	clients := make(map[string]bool)
	for _, r := range rows {
		if r.StartTS.Valid {
			clients[r.Client] = true
		}
	}

	m := &Matrix{Columns: sortedKeys(clients)}
	n := int(last - first + 1)
	m.Index = make([]string, n)
	m.Times = make([]time.Time, n)
	m.Values = make([][]int64, n)
	for i := 0; i < n; i++ {
		m.Times[i] = origin.Add(time.Duration(first+int64(i)) * w.Width)
		m.Index[i] = m.Times[i].Format(domain.TimestampLayout)
		m.Values[i] = make([]int64, len(m.Columns))
	}

	col := make(map[string]int, len(m.Columns))
	for i, c := range m.Columns {
		col[c] = i
	}
	for _, r := range rows {
		if !r.StartTS.Valid {
			continue
		}
		m.Values[bucketIndex(origin, r.StartTS.Time, w.Width)-first][col[r.Client]] += get(r)
	}
	return m, nil
}

// ExternalShare returns, per client, the total and external bytes and the
// external proportion. Clients are ordered by name.
func ExternalShare(t *dataprocessing.Table) ([]ClientShare, error) {
	rows, err := records(t)
	if err != nil {
		return nil, err
	}

	byClient := make(map[string]*ClientShare)
	for _, r := range rows {
		s, ok := byClient[r.Client]
		if !ok {
			s = &ClientShare{Client: r.Client}
			byClient[r.Client] = s
		}
		s.TotalBytes += r.TotalBytes
		if r.IsOutside {
			s.ExternalBytes += r.TotalBytes
		}
	}

	out := make([]ClientShare, 0, len(byClient))
	for _, s := range byClient {
		if s.TotalBytes > 0 {
			s.Share = float64(s.ExternalBytes) / float64(s.TotalBytes)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out, nil
}

// bucketRange finds the origin and the first and last bucket holding a
// valid start timestamp. ok is false when no row has one.
func bucketRange(rows []domain.FlowRecord, w Window) (origin time.Time, first, last int64, ok bool) {
	var earliest time.Time
	for _, r := range rows {
		if r.StartTS.Valid && (!ok || r.StartTS.Time.Before(earliest)) {
			earliest = r.StartTS.Time
			ok = true
		}
	}
	if !ok {
		return time.Time{}, 0, 0, false
	}

	origin = bucketOrigin(earliest)
	first = bucketIndex(origin, earliest, w.Width)
	last = first
	for _, r := range rows {
		if !r.StartTS.Valid {
			continue
		}
		if b := bucketIndex(origin, r.StartTS.Time, w.Width); b > last {
			last = b
		}
	}
	return origin, first, last, true
}

func dayOf(r domain.FlowRecord) time.Time {
	return bucketOrigin(r.StartTS.Time)
}
