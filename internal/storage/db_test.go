package storage

import (
	"path/filepath"
	"testing"

	"nydb/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(v string) *string { return &v }

func TestRunLedger(t *testing.T) {
	db := openTestDB(t)

	latest, err := db.LatestRunID()
	if err != nil {
		t.Fatal(err)
	}
	if latest != 0 {
		t.Fatalf("latest=%d", latest)
	}

	first, err := db.InsertRun("t1", "/in", map[string]float64{"totalMs": 1}, map[string]int{"rows": 0})
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.InsertRun("t2", "/in", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if latest, _ = db.LatestRunID(); latest != second || second <= first {
		t.Fatalf("first=%d second=%d latest=%d", first, second, latest)
	}
	if err := db.MustRun(second); err != nil {
		t.Fatal(err)
	}
	if err := db.MustRun(second + 10); err == nil {
		t.Fatal("expected missing run error")
	}

	rows := []internal.Row{
		{Index: 4, Name: strPtr("B"), Code1: strPtr("DEF1234567")},
		{Index: 1, Name: strPtr("A"), Code1: strPtr("ABC1234567"), Code2: strPtr("XY123456"), State: strPtr("NY")},
	}
	if err := db.InsertRows(second, rows); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetRows(second)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 4 {
		t.Fatalf("rows=%+v", got)
	}
	if got[0].Code2 == nil || *got[0].Code2 != "XY123456" || got[1].Code2 != nil || got[1].State != nil {
		t.Fatalf("absent values not preserved: %+v", got)
	}

	empty, err := db.GetRows(first)
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("empty=%v", empty)
	}
}

func TestDocuments(t *testing.T) {
	db := openTestDB(t)
	runID, err := db.InsertRun("t", "/in", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	docs := []internal.DocumentRow{
		{Path: "a.docx", Hash: "abc", Size: 10, Status: internal.DocumentMatched, Records: 3, LayoutScore: 1},
		{Path: "b.png", Status: internal.DocumentUnsupported},
	}
	if err := db.InsertDocuments(runID, docs); err != nil {
		t.Fatal(err)
	}
	got, err := db.ListDocuments(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != docs[0] || got[1] != docs[1] {
		t.Fatalf("docs=%+v", got)
	}
}

func TestEmailsAndMetadata(t *testing.T) {
	db := openTestDB(t)

	row, err := db.UpsertEmail("imap", "<m1@x>", "first", "a@x", "2024-01-01T00:00:00Z", "h1", "/mail/h1.eml", "stored")
	if err != nil {
		t.Fatal(err)
	}
	again, err := db.UpsertEmail("imap", "<m1@x>", "second", "a@x", "2024-01-01T00:00:00Z", "h2", "/mail/h2.eml", "stored")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != row.ID || again.Subject != "second" || again.Hash != "h2" {
		t.Fatalf("row=%+v again=%+v", row, again)
	}

	missing, err := db.GetEmailByProviderMessageID("gmail", "<m1@x>")
	if err != nil || missing != nil {
		t.Fatalf("missing=%+v err=%v", missing, err)
	}

	value, err := db.GetMetadata("k")
	if err != nil || value != nil {
		t.Fatalf("value=%v err=%v", value, err)
	}
	for _, v := range []string{"v1", "v2"} {
		if err := db.SetMetadata("k", v); err != nil {
			t.Fatal(err)
		}
	}
	value, err = db.GetMetadata("k")
	if err != nil || value == nil || *value != "v2" {
		t.Fatalf("value=%v err=%v", value, err)
	}
}
