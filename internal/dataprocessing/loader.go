package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"flowcli/internal/config"
	"flowcli/internal/errors"
	"flowcli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Loader reads flow exports into tables
type Loader struct {
	logger    *slog.Logger
	schema    config.SchemaConfig
	delimiter rune
}

// NewLoader creates a loader for files described by input and schema
func NewLoader(logger *slog.Logger, input config.InputConfig, schema config.SchemaConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	delimiter := ','
	if input.Delimiter != "" {
		delimiter = []rune(input.Delimiter)[0]
	}

	return &Loader{
		logger:    logger.With(slog.String("component", "loader")),
		schema:    schema,
		delimiter: delimiter,
	}
}

// Load reads the file at path. A missing file is reported as NOT_FOUND so the
// caller can print its diagnostic and exit.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		notFound := errors.NewNotFoundError(fmt.Sprintf("file %s", path)).WithContext("path", path)
		notFound.Cause = err
		return nil, notFound
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	l.logger.InfoContext(ctx, "loading flow records",
		slog.String("path", path),
		slog.Int64("size_bytes", info.Size()))

	table, err := l.Read(ctx, file)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "flow records loaded",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.header)))

	return table, nil
}

// Read parses a flow export from r
func (l *Loader) Read(ctx context.Context, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewStorageError("failed to read input", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = l.delimiter
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("malformed delimited input", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError("input is empty, expected a header row", nil)
	}

	header := rows[0]
	if err := l.checkHeader(header); err != nil {
		return nil, err
	}

	if len(rows) == 1 {
		l.logger.WarnContext(ctx, "input has a header but no rows")
		return newTable(l.schema, header, emptyFrame(header, l.columnTypes()), nil), nil
	}

	frame := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{}),
		dataframe.WithTypes(l.columnTypes()),
	)
	if frame.Err != nil {
		return nil, errors.NewParsingError("failed to load flow records", frame.Err)
	}

	records, err := l.extractRecords(frame)
	if err != nil {
		return nil, err
	}

	return newTable(l.schema, header, frame, records), nil
}

// columnTypes pins the types of the six input columns
func (l *Loader) columnTypes() map[string]series.Type {
	return map[string]series.Type{
		l.schema.Client:      series.String,
		l.schema.Server:      series.String,
		l.schema.ClientBytes: series.Int,
		l.schema.ServerBytes: series.Int,
		l.schema.Start:       series.String,
		l.schema.Stop:        series.String,
	}
}

func (l *Loader) checkHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}

	for _, required := range l.schema.InputColumns() {
		if !present[required] {
			return errors.NewParsingError(fmt.Sprintf("missing required column %q", required), nil).
				WithContext("column", required)
		}
	}
	return nil
}

func (l *Loader) extractRecords(frame dataframe.DataFrame) ([]domain.FlowRecord, error) {
	clientBytes, err := intColumn(frame, l.schema.ClientBytes)
	if err != nil {
		return nil, err
	}
	serverBytes, err := intColumn(frame, l.schema.ServerBytes)
	if err != nil {
		return nil, err
	}

	clients := frame.Col(l.schema.Client).Records()
	servers := frame.Col(l.schema.Server).Records()
	starts := frame.Col(l.schema.Start).Records()
	stops := frame.Col(l.schema.Stop).Records()

	records := make([]domain.FlowRecord, frame.Nrow())
	for i := range records {
		records[i] = domain.FlowRecord{
			Client:      clients[i],
			Server:      servers[i],
			ClientBytes: clientBytes[i],
			ServerBytes: serverBytes[i],
			Start:       starts[i],
			Stop:        stops[i],
		}
	}
	return records, nil
}

// intColumn reads a byte column; any non-integer cell fails the load
func intColumn(frame dataframe.DataFrame, name string) ([]int64, error) {
	col := frame.Col(name)
	if col.Err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("column %q unavailable", name), col.Err)
	}

	ints, err := col.Int()
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("column %q contains a non-integer value", name), err).
			WithContext("column", name)
	}

	out := make([]int64, len(ints))
	for i, v := range ints {
		out[i] = int64(v)
	}
	return out, nil
}

// emptyFrame builds a zero-row frame that still carries the header
func emptyFrame(header []string, types map[string]series.Type) dataframe.DataFrame {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		t, ok := types[name]
		if !ok {
			t = series.String
		}
		cols[i] = series.New([]string{}, t, name)
	}
	return dataframe.New(cols...)
}
