package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"nydb/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  rootDir TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  path TEXT NOT NULL,
  hash TEXT,
  size INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  records INTEGER NOT NULL DEFAULT 0,
  layoutScore REAL NOT NULL DEFAULT 0,
  UNIQUE(runId, path),
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  rowIndex INTEGER NOT NULL,
  name TEXT,
  birthDate TEXT,
  sex TEXT,
  code1 TEXT,
  code2 TEXT,
  streetAddress TEXT,
  county TEXT,
  state TEXT,
  zipCode TEXT,
  UNIQUE(runId, rowIndex),
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_records_code1 ON records(code1);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(traceID, rootDir string, timings map[string]float64, counts map[string]int) (int64, error) {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	result, err := d.conn.Exec(`INSERT INTO runs (traceId, rootDir, timingsJson, countsJson) VALUES (?, ?, ?, ?)`,
		traceID, rootDir, string(timingsJSON), string(countsJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LatestRunID returns the newest run, or 0 when none was recorded.
func (d *DB) LatestRunID() (int64, error) {
	var id sql.NullInt64
	if err := d.conn.QueryRow(`SELECT MAX(id) FROM runs`).Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

func (d *DB) InsertDocuments(runID int64, docs []internal.DocumentRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO documents (runId, path, hash, size, status, records, layoutScore)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, doc := range docs {
		var hash *string
		if doc.Hash != "" {
			hash = &doc.Hash
		}
		if _, err := stmt.Exec(runID, doc.Path, hash, doc.Size, string(doc.Status), doc.Records, doc.LayoutScore); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListDocuments(runID int64) ([]internal.DocumentRow, error) {
	rows, err := d.conn.Query(`
SELECT path, COALESCE(hash, ''), size, status, records, layoutScore
FROM documents WHERE runId = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.DocumentRow
	for rows.Next() {
		var doc internal.DocumentRow
		var status string
		if err := rows.Scan(&doc.Path, &doc.Hash, &doc.Size, &status, &doc.Records, &doc.LayoutScore); err != nil {
			return nil, err
		}
		doc.Status = internal.DocumentStatus(status)
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (d *DB) InsertRows(runID int64, records []internal.Row) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO records (runId, rowIndex, name, birthDate, sex, code1, code2, streetAddress, county, state, zipCode)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			runID, r.Index, r.Name, r.BirthDate, r.Sex, r.Code1, r.Code2,
			r.StreetAddress, r.County, r.State, r.ZipCode,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) GetRows(runID int64) ([]internal.Row, error) {
	rows, err := d.conn.Query(`
SELECT rowIndex, name, birthDate, sex, code1, code2, streetAddress, county, state, zipCode
FROM records WHERE runId = ? ORDER BY rowIndex ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.Row{}
	for rows.Next() {
		var r internal.Row
		if err := rows.Scan(
			&r.Index, &r.Name, &r.BirthDate, &r.Sex, &r.Code1, &r.Code2,
			&r.StreetAddress, &r.County, &r.State, &r.ZipCode,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) RunExists(runID int64) (bool, error) {
	var n int
	if err := d.conn.QueryRow(`SELECT COUNT(1) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustRun(runID int64) error {
	ok, err := d.RunExists(runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run not found: id=%d", runID)
	}
	return nil
}
