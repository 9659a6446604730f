package exporter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWriter_CreateStreamWriter(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		expected []string
	}{
		{
			name:     "create stream with headers",
			headers:  []string{"bucket", "total_bytes"},
			expected: []string{"bucket,total_bytes"},
		},
		{
			name:     "create stream without headers",
			headers:  nil,
			expected: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer, _ := setupTestEnv(t)

			stream, err := writer.CreateStreamWriter(context.Background(), "stream.csv", tt.headers)
			require.NoError(t, err)
			require.NoError(t, stream.Close())

			content, err := os.ReadFile(stream.Path())
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(content, utf8BOM))
			assert.Equal(t, tt.expected, readLines(t, stream.Path()))
		})
	}
}

func TestStreamWriter_WriteRecord(t *testing.T) {
	writer, _ := setupTestEnv(t)

	stream, err := writer.CreateStreamWriter(context.Background(), "records.csv", []string{"client", "bytes"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, stream.WriteRecord([]string{fmt.Sprintf("c%d", i), fmt.Sprint(i * 10)}))
	}
	require.NoError(t, stream.Close())

	assert.Equal(t, []string{"client,bytes", "c0,0", "c1,10", "c2,20"}, readLines(t, stream.Path()))
}

func TestStreamWriter_LargeDataset(t *testing.T) {
	writer, _ := setupTestEnv(t)

	stream, err := writer.CreateStreamWriter(context.Background(), "large.csv", []string{"n"})
	require.NoError(t, err)

	const rows = 10000
	for i := 0; i < rows; i++ {
		require.NoError(t, stream.WriteRecord([]string{fmt.Sprint(i)}))
	}
	require.NoError(t, stream.Close())

	lines := readLines(t, stream.Path())
	assert.Len(t, lines, rows+1)
	assert.Equal(t, fmt.Sprint(rows-1), lines[rows])
}
