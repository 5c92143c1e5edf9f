package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "violations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestChunkReaderStreamsInChunks(t *testing.T) {
	csv := "Summons Number,Issue Date,Violation Code\n"
	for i := 0; i < 7; i++ {
		csv += "100" + string(rune('0'+i)) + ",06/24/2017,21\n"
	}
	path := writeTempCSV(t, csv)

	reader, err := Open(path, 3)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []string{"Summons Number", "Issue Date", "Violation Code"}, reader.Headers())

	ctx := context.Background()
	var sizes []int
	for {
		chunk, more, err := reader.Next(ctx)
		require.NoError(t, err)
		if !more {
			break
		}
		sizes = append(sizes, len(chunk))
	}

	assert.Equal(t, []int{3, 3, 1}, sizes)
}

func TestChunkReaderRaggedRowsSurvive(t *testing.T) {
	path := writeTempCSV(t, "A,B,C\n1,2\n3,4,5,6\n")

	reader, err := Open(path, 10)
	require.NoError(t, err)
	defer reader.Close()

	chunk, more, err := reader.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, more)
	require.Len(t, chunk, 2)
	assert.Len(t, chunk[0], 2)
	assert.Len(t, chunk[1], 4)
}

func TestOpenEmptyFileFails(t *testing.T) {
	path := writeTempCSV(t, "")
	_, err := Open(path, 10)
	assert.Error(t, err)
}

func TestOpenMissingFileFails(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"), 10)
	assert.Error(t, err)
}

func TestNextHonorsCancellation(t *testing.T) {
	path := writeTempCSV(t, "A,B\n1,2\n3,4\n")

	reader, err := Open(path, 10)
	require.NoError(t, err)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = reader.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadSample(t *testing.T) {
	path := writeTempCSV(t, "A,B\n1,2\n3,4\n5,6\n")

	headers, rows, err := ReadSample(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, headers)
	assert.Len(t, rows, 2)
}
