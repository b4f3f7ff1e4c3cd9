package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INPUT_DIR", "/srv/docs")
	t.Setenv("OUTPUT_CSV", "/srv/out/nydb.csv")
	t.Setenv("WATCH_INTERVAL_SEC", "15")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("IMAP_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputDir != "/srv/docs" {
		t.Fatalf("InputDir=%q", cfg.InputDir)
	}
	if cfg.OutputCSV != "/srv/out/nydb.csv" {
		t.Fatalf("OutputCSV=%q", cfg.OutputCSV)
	}
	if cfg.WatchIntervalSec != 15 {
		t.Fatalf("WatchIntervalSec=%d", cfg.WatchIntervalSec)
	}
	if cfg.IMAPSecure {
		t.Fatal("IMAPSecure should be false")
	}
	if cfg.IMAPPort != 993 {
		t.Fatalf("IMAPPort fallback=%d", cfg.IMAPPort)
	}
	if cfg.MailDir() != filepath.Join("/srv/docs", "mail") {
		t.Fatalf("MailDir=%q", cfg.MailDir())
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("IMAP_HOST", "  "); err == nil {
		t.Fatal("expected error for blank value")
	}
	if err := cfg.Require("IMAP_HOST", "mail.example.com"); err != nil {
		t.Fatal(err)
	}
}
