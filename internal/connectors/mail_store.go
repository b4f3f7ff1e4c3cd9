package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"nydb/internal"
	"nydb/internal/storage"
)

// MailStoreService drops raw messages into the mail directory under the input root, where
// the next run reads them like any other document.
type MailStoreService struct {
	db      *storage.DB
	mailDir string
}

func NewMailStoreService(db *storage.DB, mailDir string) *MailStoreService {
	return &MailStoreService{db: db, mailDir: mailDir}
}

// Store writes msg as <sha256>.eml unless that file already exists and reports
// whether it was new.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.EmailRow, bool, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.mailDir, 0o755); err != nil {
		return internal.EmailRow{}, false, err
	}

	created := false
	rawPath := filepath.Join(s.mailDir, hash+".eml")
	if _, err := os.Stat(rawPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.EmailRow{}, false, err
		}
		created = true
	}

	row, err := s.db.UpsertEmail(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "stored")
	return row, created, err
}
