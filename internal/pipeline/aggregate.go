package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"nydb/internal"
)

// Table is the aggregated collection of raw records across all documents of a run.
type Table struct {
	Columns []string
	Records []internal.Record
}

// NewTable returns an empty table with the raw schema.
func NewTable() Table {
	return Table{Columns: slices.Clone(internal.RawColumns), Records: []internal.Record{}}
}

type Summary struct {
	// Files lists every visited file relative to the root, in walk order.
	Files     []string
	Documents []internal.DocumentRow
	Skipped   int
	Matched   int
	Records   int
}

type Aggregator struct {
	logger *zap.Logger
}

func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate walks root in lexical order and extracts the records of every readable
// document. Any read failure aborts the walk.
func (a *Aggregator) Aggregate(ctx context.Context, root string) (Table, Summary, error) {
	table := NewTable()
	summary := Summary{Files: []string{}, Documents: []internal.DocumentRow{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		summary.Files = append(summary.Files, rel)

		row, records, err := a.readFile(path, rel)
		if err != nil {
			return err
		}
		switch row.Status {
		case internal.DocumentUnsupported:
			summary.Skipped++
		case internal.DocumentMatched:
			summary.Matched++
		}
		summary.Documents = append(summary.Documents, row)
		table.Records = append(table.Records, records...)
		return nil
	})
	if err != nil {
		return Table{}, Summary{}, fmt.Errorf("aggregate %s: %w", root, err)
	}

	summary.Records = len(table.Records)
	return table, summary, nil
}

func (a *Aggregator) readFile(path, rel string) (internal.DocumentRow, []internal.Record, error) {
	row := internal.DocumentRow{Path: rel, Status: internal.DocumentUnsupported}
	if !Supported(rel) {
		a.logger.Debug("skipping unsupported file", zap.String("path", rel))
		return row, nil, nil
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return row, nil, err
	}
	sum := sha256.Sum256(blob)
	row.Hash = hex.EncodeToString(sum[:])
	row.Size = int64(len(blob))

	docs, err := ReadDocument(rel, blob, a.logger)
	if errors.Is(err, ErrUnsupported) {
		return row, nil, nil
	}
	if err != nil {
		return row, nil, err
	}

	records := []internal.Record{}
	for _, doc := range docs {
		found := 0
		for rec := range ExtractRecords(doc.Text) {
			rec.Source = doc.Name
			records = append(records, rec)
			found++
		}

		detect := DetectLayout(doc.Text)
		row.LayoutScore = max(row.LayoutScore, detect.Score)
		if found > 0 {
			continue
		}
		if detect.LooksLikeLayout {
			a.logger.Warn("document looks like a claim report but no record matched",
				zap.String("document", doc.Name), zap.Float64("score", detect.Score))
		} else {
			a.logger.Debug("document has no claim records",
				zap.String("document", doc.Name), zap.Float64("score", detect.Score))
		}
	}

	row.Records = len(records)
	row.Status = internal.DocumentNoMatch
	if row.Records > 0 {
		row.Status = internal.DocumentMatched
	}
	return row, records, nil
}
