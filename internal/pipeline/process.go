package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nydb/internal"
	"nydb/internal/config"
	"nydb/internal/storage"
)

type ProcessingService struct {
	db     *storage.DB
	cfg    config.Config
	logger *zap.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, logger *zap.Logger) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, logger: logger}
}

type RunOptions struct {
	Root     string
	XLSXPath string
	CSVPath  string
}

type RunResult struct {
	RunID   int64
	TraceID string
	Summary Summary
	Stats   CleanStats
	Rows    []internal.Row
}

// OptionsFromConfig fills every empty option from the configuration.
func (s *ProcessingService) OptionsFromConfig(opts RunOptions) RunOptions {
	if opts.Root == "" {
		opts.Root = s.cfg.InputDir
	}
	if opts.XLSXPath == "" {
		opts.XLSXPath = s.cfg.OutputXLSX
	}
	if opts.CSVPath == "" {
		opts.CSVPath = s.cfg.OutputCSV
	}
	return opts
}

// Run aggregates every document under opts.Root, cleans the table, writes both output
// files and records the run in the ledger.
func (s *ProcessingService) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	opts = s.OptionsFromConfig(opts)
	trace := traceID()
	logger := s.logger.With(zap.String("trace", trace))
	start := time.Now()

	table, summary, err := NewAggregator(logger).Aggregate(ctx, opts.Root)
	if err != nil {
		return RunResult{}, err
	}
	aggregated := time.Now()

	rows, stats := NewCleaner(logger).Clean(table)
	cleaned := time.Now()

	if err := ExportRowsToXLSX(rows, opts.XLSXPath, s.cfg.XLSXSheet); err != nil {
		return RunResult{}, fmt.Errorf("write %s: %w", opts.XLSXPath, err)
	}
	if err := ExportRowsToCSV(rows, opts.CSVPath); err != nil {
		return RunResult{}, fmt.Errorf("write %s: %w", opts.CSVPath, err)
	}
	written := time.Now()

	timings := map[string]float64{
		"aggregateMs": float64(aggregated.Sub(start).Milliseconds()),
		"cleanMs":     float64(cleaned.Sub(aggregated).Milliseconds()),
		"writeMs":     float64(written.Sub(cleaned).Milliseconds()),
		"totalMs":     float64(written.Sub(start).Milliseconds()),
	}
	counts := map[string]int{
		"files":            len(summary.Files),
		"skipped":          summary.Skipped,
		"matched":          summary.Matched,
		"extracted":        stats.Input,
		"deceased":         stats.Deceased,
		"addressMalformed": stats.AddressMalformed,
		"codesRepaired":    stats.CodesRepaired,
		"codesOutOfShape":  stats.CodesOutOfShape,
		"rows":             stats.Output,
	}

	runID, err := s.db.InsertRun(trace, opts.Root, timings, counts)
	if err != nil {
		return RunResult{}, err
	}
	if err := s.db.InsertDocuments(runID, summary.Documents); err != nil {
		return RunResult{}, err
	}
	if err := s.db.InsertRows(runID, rows); err != nil {
		return RunResult{}, err
	}

	logger.Info("run complete",
		zap.Int64("run", runID),
		zap.Int("files", len(summary.Files)),
		zap.Int("records", stats.Input),
		zap.Int("rows", stats.Output),
		zap.String("xlsx", opts.XLSXPath),
		zap.String("csv", opts.CSVPath),
		zap.Duration("took", written.Sub(start)))

	return RunResult{RunID: runID, TraceID: trace, Summary: summary, Stats: stats, Rows: rows}, nil
}

// ExportRun rewrites both output files from the rows stored for runID. A zero runID
// selects the latest run.
func (s *ProcessingService) ExportRun(runID int64, xlsxPath, csvPath string) (int64, int, error) {
	runID, err := s.resolveRun(runID)
	if err != nil {
		return 0, 0, err
	}

	rows, err := s.db.GetRows(runID)
	if err != nil {
		return 0, 0, err
	}
	if err := ExportRowsToXLSX(rows, xlsxPath, s.cfg.XLSXSheet); err != nil {
		return 0, 0, fmt.Errorf("write %s: %w", xlsxPath, err)
	}
	if err := ExportRowsToCSV(rows, csvPath); err != nil {
		return 0, 0, fmt.Errorf("write %s: %w", csvPath, err)
	}
	return runID, len(rows), nil
}

// Documents lists what runID visited, in walk order. A zero runID selects the latest run.
func (s *ProcessingService) Documents(runID int64) (int64, []internal.DocumentRow, error) {
	runID, err := s.resolveRun(runID)
	if err != nil {
		return 0, nil, err
	}
	docs, err := s.db.ListDocuments(runID)
	if err != nil {
		return 0, nil, err
	}
	return runID, docs, nil
}

func (s *ProcessingService) resolveRun(runID int64) (int64, error) {
	if runID == 0 {
		latest, err := s.db.LatestRunID()
		if err != nil {
			return 0, err
		}
		if latest == 0 {
			return 0, fmt.Errorf("no runs recorded")
		}
		return latest, nil
	}
	if err := s.db.MustRun(runID); err != nil {
		return 0, err
	}
	return runID, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
