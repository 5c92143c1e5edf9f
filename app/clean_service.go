// Package app wires the profiling pass, the chunked cleaning pass, the
// summary report, and the exports into one run.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"parkclean/adapters/csvfile"
	"parkclean/adapters/excel"
	"parkclean/domain/violation"
	"parkclean/internal/cleaner"
	"parkclean/internal/config"
	"parkclean/internal/errors"
	"parkclean/internal/logging"
	"parkclean/internal/profile"
	"parkclean/internal/report"
)

// Loader is the optional database load stage
type Loader interface {
	EnsureSchema(ctx context.Context) error
	InsertBatch(ctx context.Context, schema *violation.Schema, records []violation.Record) error
	Close() error
}

// RunResult is what one complete cleaning run produced
type RunResult struct {
	RunID      string           `json:"run_id"`
	OutputPath string           `json:"output_path"`
	Stats      cleaner.RunStats `json:"stats"`
	Run        *report.Run      `json:"-"`
	Duration   time.Duration    `json:"duration"`
}

// CleanService orchestrates a cleaning run
type CleanService struct {
	config *config.Config
	loader Loader
	log    *logging.Logger
}

// NewCleanService creates the service; loader may be nil to skip the
// database stage
func NewCleanService(cfg *config.Config, loader Loader) *CleanService {
	return &CleanService{
		config: cfg,
		loader: loader,
		log:    logging.NewDefault("CleanService"),
	}
}

// Profile runs only the profiling pass and returns the table profile
// plus the schema the cleaning pass would use
func (s *CleanService) Profile(ctx context.Context) (*profile.TableProfile, *violation.Schema, error) {
	if s.config.Input.File == "" {
		return nil, nil, errors.ConfigInvalid("INPUT_FILE is required")
	}

	headers, rows, err := csvfile.ReadSample(s.config.Input.File, s.config.Input.ProfileRowCap)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.ParseError("input has a header but no data rows")
	}

	coercer := cleaner.NewCoercer(cleaner.DefaultCoercionConfig())
	profiler := profile.NewProfiler(profile.DefaultConfig(), coercer)
	tableProfile := profiler.Table(headers, rows)

	types := tableProfile.Types()
	// Summons numbers are identifiers, not quantities, whatever the
	// digits make inference believe
	types[violation.ColSummonsNumber] = violation.ValueTypeString

	schema, err := violation.BuildSchema(headers, types, tableProfile.NullRatios(), s.config.Cleaning.NullRatioThreshold)
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("Profiled %d rows across %d columns (%d dropped for null ratio)",
		tableProfile.RowsSampled, len(tableProfile.Columns), len(schema.DroppedColumns()))
	return tableProfile, schema, nil
}

// Run executes the full pipeline: profile, clean, report, export, and
// the optional database load
func (s *CleanService) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	runID := uuid.NewString()
	s.log.Info("Starting run %s on %s", runID, s.config.Input.File)

	_, schema, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}

	pipe := cleaner.NewPipeline(schema, cleaner.NewCoercer(cleaner.DefaultCoercionConfig()))
	agg := report.NewAggregator(schema, report.Config{
		TopN:             s.config.Output.TopN,
		SampleRowCap:     s.config.Output.SampleRowCap,
		NumericSampleCap: report.DefaultConfig().NumericSampleCap,
		UniqueTrackCap:   report.DefaultConfig().UniqueTrackCap,
	})

	if s.loader != nil {
		if err := s.loader.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.cleanPass(ctx, schema, pipe, agg); err != nil {
		return nil, err
	}

	run := agg.Finish(pipe.Stats())

	writer := excel.NewSummaryWriter(excel.WriterConfig{SheetRowCap: s.config.Output.SheetRowCap})
	if err := writer.Write(s.config.Output.File, run); err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:      runID,
		OutputPath: s.config.Output.File,
		Stats:      pipe.Stats(),
		Run:        run,
		Duration:   time.Since(started),
	}
	s.log.Info("Run %s finished: %d/%d rows kept in %s",
		runID, result.Stats.RowsKept, result.Stats.RowsRead, result.Duration.Round(time.Millisecond))
	return result, nil
}

// cleanPass streams the file chunk by chunk: one goroutine reads, one
// cleans and folds, so parsing overlaps with coercion on large files
func (s *CleanService) cleanPass(ctx context.Context, schema *violation.Schema, pipe *cleaner.Pipeline, agg *report.Aggregator) error {
	reader, err := csvfile.Open(s.config.Input.File, s.config.Input.ChunkSize)
	if err != nil {
		return err
	}
	defer reader.Close()

	chunks := make(chan [][]string, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chunks)
		for {
			chunk, more, err := reader.Next(gctx)
			if err != nil {
				return err
			}
			if len(chunk) > 0 {
				select {
				case chunks <- chunk:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			if !more {
				return nil
			}
		}
	})

	g.Go(func() error {
		for chunk := range chunks {
			records := pipe.Apply(chunk)
			agg.Add(records)
			if s.loader != nil {
				if err := s.loader.InsertBatch(gctx, schema, records); err != nil {
					return err
				}
			}
			s.log.Debug("Cleaned chunk: %d in, %d out", len(chunk), len(records))
		}
		return nil
	})

	return g.Wait()
}
