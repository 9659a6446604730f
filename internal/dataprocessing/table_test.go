package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcli/internal/config"
	"flowcli/internal/shared/testutil"
)

func TestTable_Frame(t *testing.T) {
	path := testutil.WriteFlowsCSV(t, testutil.SampleFlows())
	table, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 6, table.Frame().Ncol())

	_, err = NewTransformer(nil).Enrich(context.Background(), table)
	require.NoError(t, err)

	frame := table.Frame()
	assert.Equal(t, 11, frame.Ncol())
	assert.Equal(t, 3, frame.Nrow())
	assert.Equal(t, append(table.Header(), table.DerivedColumns()...), frame.Names())

	assert.Equal(t, []string{"2017-02-01 10:00:00", "2017-02-01 11:00:00", "2017-02-02 00:30:00"},
		frame.Col("start_ts").Records())
	assert.Equal(t, []string{"false", "true", "false"}, frame.Col("is_outside").Records())
	assert.Equal(t, []string{"300", "75", "20"}, frame.Col("total_bytes").Records())
	assert.Equal(t, []string{"2017-02-01", "2017-02-01", "2017-02-02"}, frame.Col("date").Records())
}

func TestTable_FrameEmpty(t *testing.T) {
	table := NewTable(config.DefaultSchema(), nil)
	_, err := NewTransformer(nil).Enrich(context.Background(), table)
	require.NoError(t, err)

	frame := table.Frame()
	assert.Equal(t, 0, frame.Nrow())
	assert.Equal(t, 11, frame.Ncol())
}
