package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap"

	"nydb/internal"
)

func writeFile(t *testing.T, path string, blob []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAggregate(t *testing.T) {
	root := t.TempDir()
	claims := mkDOCX(t, paragraphsOf(
		claimFixture{Claim: "ABC1234567 XY123456", Street: "1 MAIN ST", Locality: "QUEENS, NY  11432-0001"},
		claimFixture{Claim: "DEF1234567 ZZ123456", Name: "GONE", Death: "  01/02/2020", Street: "2 MAIN ST", Locality: "QUEENS, NY  11432-0002"},
	))
	writeFile(t, filepath.Join(root, "a", "claims.docx"), claims)
	writeFile(t, filepath.Join(root, "a", "~$claims.docx"), []byte("lock"))
	writeFile(t, filepath.Join(root, "b", "notes.txt"), []byte("nothing to see"))
	writeFile(t, filepath.Join(root, "image.png"), []byte{0x89, 'P', 'N', 'G'})

	table, summary, err := NewAggregator(zap.NewNop()).Aggregate(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(table.Columns, internal.RawColumns) {
		t.Fatalf("columns=%v", table.Columns)
	}
	if len(table.Records) != 2 {
		t.Fatalf("records=%d", len(table.Records))
	}
	if table.Records[0].Name != "  PEDRO I PEREZ" || table.Records[1].DeathDate != "  01/02/2020" {
		t.Fatalf("records=%+v", table.Records)
	}
	if table.Records[0].Source != filepath.Join("a", "claims.docx") {
		t.Fatalf("source=%q", table.Records[0].Source)
	}

	wantFiles := []string{
		filepath.Join("a", "claims.docx"),
		filepath.Join("a", "~$claims.docx"),
		filepath.Join("b", "notes.txt"),
		"image.png",
	}
	if !slices.Equal(summary.Files, wantFiles) {
		t.Fatalf("files=%v", summary.Files)
	}
	if summary.Skipped != 2 || summary.Matched != 1 || summary.Records != 2 {
		t.Fatalf("summary=%+v", summary)
	}

	statuses := map[string]internal.DocumentStatus{}
	for _, doc := range summary.Documents {
		statuses[doc.Path] = doc.Status
	}
	if statuses[filepath.Join("b", "notes.txt")] != internal.DocumentNoMatch {
		t.Fatalf("statuses=%v", statuses)
	}
	if statuses["image.png"] != internal.DocumentUnsupported {
		t.Fatalf("statuses=%v", statuses)
	}
}

func TestAggregateEmptyRoot(t *testing.T) {
	table, summary, err := NewAggregator(zap.NewNop()).Aggregate(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Records) != 0 || len(table.Columns) != len(internal.RawColumns) {
		t.Fatalf("table=%+v", table)
	}
	if len(summary.Files) != 0 {
		t.Fatalf("files=%v", summary.Files)
	}
}

func TestAggregateMissingRoot(t *testing.T) {
	_, _, err := NewAggregator(zap.NewNop()).Aggregate(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestAggregateCorruptDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "claims.docx"), []byte("not a zip"))
	if _, _, err := NewAggregator(zap.NewNop()).Aggregate(context.Background(), root); err == nil {
		t.Fatal("expected error")
	}
}

func TestAggregateCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewAggregator(zap.NewNop()).Aggregate(ctx, root); err == nil {
		t.Fatal("expected error")
	}
}
