package listener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"nydb/internal/config"
	"nydb/internal/connectors"
	gmailconnector "nydb/internal/connectors/gmail"
	imapconnector "nydb/internal/connectors/imap"
	"nydb/internal/pipeline"
	"nydb/internal/storage"
)

const fingerprintKey = "input_fingerprint"

// Service polls the mailbox (when a provider is configured) and re-runs the pipeline
// whenever the input directory changes.
type Service struct {
	db     *storage.DB
	cfg    config.Config
	logger *zap.Logger

	// connector overrides the configured provider; tests set it.
	connector connectors.MailConnector
}

func NewService(db *storage.DB, cfg config.Config, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, logger: logger.Named("watch")}
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(max(s.cfg.WatchIntervalSec, 1)) * time.Second
	for {
		if _, err := s.runCycle(ctx); err != nil {
			s.logger.Error("watch cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

type cycleResult struct {
	Fetched int
	Stored  int
	Ran     bool
	Rows    int
}

func (s *Service) runCycle(ctx context.Context) (cycleResult, error) {
	var res cycleResult

	mailConnector, err := s.mailConnector()
	if err != nil {
		return res, err
	}
	if mailConnector != nil {
		fetch := connectors.NewFetchService(s.db, s.cfg.MailDir(), mailConnector, s.logger)
		fetched, err := fetch.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
		if err != nil {
			return res, err
		}
		res.Fetched, res.Stored = fetched.Fetched, fetched.Stored
	}

	fingerprint, err := Fingerprint(s.cfg.InputDir)
	if err != nil {
		return res, err
	}
	previous, err := s.db.GetMetadata(fingerprintKey)
	if err != nil {
		return res, err
	}
	if previous != nil && *previous == fingerprint {
		s.logger.Debug("input unchanged", zap.String("fingerprint", fingerprint))
		return res, nil
	}

	processor := pipeline.NewProcessingService(s.db, s.cfg, s.logger)
	run, err := processor.Run(ctx, pipeline.RunOptions{})
	if err != nil {
		return res, err
	}
	if err := s.db.SetMetadata(fingerprintKey, fingerprint); err != nil {
		return res, err
	}
	res.Ran = true
	res.Rows = len(run.Rows)

	s.logger.Info("watch cycle done",
		zap.Int("fetched", res.Fetched), zap.Int("stored", res.Stored),
		zap.Int64("run", run.RunID), zap.Int("rows", res.Rows))
	return res, nil
}

func (s *Service) mailConnector() (connectors.MailConnector, error) {
	if s.connector != nil {
		return s.connector, nil
	}
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	if provider == "" || provider == "none" {
		return nil, nil
	}
	return MakeConnector(s.cfg, provider)
}

// MakeConnector builds the mail connector for provider.
func MakeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg, pipeline.Supported)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}

// Fingerprint hashes the relative path, size and modification time of every file under
// root.
func Fingerprint(root string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", root, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
