// Package csvfile reads the raw violations export in bounded chunks so a
// multi-gigabyte file never has to fit in memory.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"parkclean/internal/errors"
)

// DefaultChunkSize is the number of data rows per chunk
const DefaultChunkSize = 50000

// ChunkReader streams a CSV file as header + fixed-size row chunks
type ChunkReader struct {
	filePath  string
	chunkSize int

	file    *os.File
	reader  *csv.Reader
	headers []string
}

// Open opens the file and consumes the header row
func Open(filePath string, chunkSize int) (*ChunkReader, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", filePath)
	}

	reader := csv.NewReader(file)
	// Ragged rows are repaired by the pipeline, not fatal to the read
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	headers, err := reader.Read()
	if err == io.EOF {
		file.Close()
		return nil, errors.ParseError(fmt.Sprintf("%s is empty: no header row", filePath))
	}
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "failed to read header row")
	}
	if len(headers) == 0 {
		file.Close()
		return nil, errors.ParseError(fmt.Sprintf("%s has an empty header row", filePath))
	}

	return &ChunkReader{
		filePath:  filePath,
		chunkSize: chunkSize,
		file:      file,
		reader:    reader,
		headers:   headers,
	}, nil
}

// Headers returns the raw header row as read from the file
func (r *ChunkReader) Headers() []string {
	return r.headers
}

// Next returns the next chunk of up to chunkSize rows. The second return
// is false once the file is exhausted; a non-empty final chunk still
// returns true. Context cancellation is honored between rows.
func (r *ChunkReader) Next(ctx context.Context) ([][]string, bool, error) {
	chunk := make([][]string, 0, r.chunkSize)

	for len(chunk) < r.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		row, err := r.reader.Read()
		if err == io.EOF {
			return chunk, len(chunk) > 0, nil
		}
		if err != nil {
			return nil, false, errors.Wrapf(err, "failed reading %s", r.filePath)
		}
		chunk = append(chunk, row)
	}

	return chunk, true, nil
}

// ReadSample reads up to maxRows data rows from the start of the file,
// for the profiling pass
func ReadSample(filePath string, maxRows int) (headers []string, rows [][]string, err error) {
	reader, err := Open(filePath, maxRows)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	chunk, _, err := reader.Next(context.Background())
	if err != nil {
		return nil, nil, err
	}
	return reader.Headers(), chunk, nil
}

// Close releases the underlying file
func (r *ChunkReader) Close() error {
	return r.file.Close()
}
