package reports

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Matrix is a pivot of summed bytes. Rows are the index (dates or bucket
// starts), columns are clients. Absent combinations hold 0.
type Matrix struct {
	Index   []string
	Times   []time.Time
	Columns []string
	Values  [][]int64
}

// Empty reports whether the matrix has no cells
func (m *Matrix) Empty() bool {
	return m == nil || len(m.Index) == 0 || len(m.Columns) == 0
}

// Get returns the cell at (row, col), or 0 if either label is absent
func (m *Matrix) Get(row, col string) int64 {
	r, c := indexOf(m.Index, row), indexOf(m.Columns, col)
	if r < 0 || c < 0 {
		return 0
	}
	return m.Values[r][c]
}

// Column returns the values of col in index order, or nil if absent
func (m *Matrix) Column(col string) []int64 {
	c := indexOf(m.Columns, col)
	if c < 0 {
		return nil
	}
	out := make([]int64, len(m.Index))
	for r := range m.Index {
		out[r] = m.Values[r][c]
	}
	return out
}

// ColumnFloats is Column converted for plotting
func (m *Matrix) ColumnFloats(col string) []float64 {
	return toFloats(m.Column(col))
}

// ColumnTotals returns the sum of every column
func (m *Matrix) ColumnTotals() []float64 {
	totals := make([]float64, len(m.Columns))
	for c, col := range m.Columns {
		totals[c] = floats.Sum(m.ColumnFloats(col))
	}
	return totals
}

// Max returns the largest cell, or 0 for an empty matrix
func (m *Matrix) Max() float64 {
	if m.Empty() {
		return 0
	}
	peak := 0.0
	for _, row := range m.Values {
		if v := floats.Max(toFloats(row)); v > peak {
			peak = v
		}
	}
	return peak
}

// Series is one line of bucketed sums
type Series struct {
	Name   string
	Times  []time.Time
	Values []int64
}

// Empty reports whether the series has no points
func (s *Series) Empty() bool {
	return s == nil || len(s.Times) == 0
}

// Floats returns the values converted for plotting
func (s *Series) Floats() []float64 {
	return toFloats(s.Values)
}

// pivot accumulates sums keyed by (row, column)
type pivot struct {
	cells map[string]map[string]int64
	rows  map[string]time.Time
	cols  map[string]bool
}

func newPivot() *pivot {
	return &pivot{
		cells: make(map[string]map[string]int64),
		rows:  make(map[string]time.Time),
		cols:  make(map[string]bool),
	}
}

func (p *pivot) add(row string, at time.Time, col string, v int64) {
	if p.cells[row] == nil {
		p.cells[row] = make(map[string]int64)
		p.rows[row] = at
	}
	p.cells[row][col] += v
	p.cols[col] = true
}

func (p *pivot) has(row, col string) bool {
	_, ok := p.cells[row][col]
	return ok
}

// matrix materializes the pivot with rows sorted by time and columns by name
func (p *pivot) matrix() *Matrix {
	m := &Matrix{
		Index:   make([]string, 0, len(p.rows)),
		Columns: sortedKeys(p.cols),
	}
	for row := range p.rows {
		m.Index = append(m.Index, row)
	}
	sort.Slice(m.Index, func(i, j int) bool {
		ti, tj := p.rows[m.Index[i]], p.rows[m.Index[j]]
		if ti.Equal(tj) {
			return m.Index[i] < m.Index[j]
		}
		return ti.Before(tj)
	})

	m.Times = make([]time.Time, len(m.Index))
	m.Values = make([][]int64, len(m.Index))
	for r, row := range m.Index {
		m.Times[r] = p.rows[row]
		m.Values[r] = make([]int64, len(m.Columns))
		for c, col := range m.Columns {
			m.Values[r][c] = p.cells[row][col]
		}
	}
	return m
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}

func toFloats(values []int64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
