package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	InputDir   string
	OutputXLSX string
	OutputCSV  string
	XLSXSheet  string
	DBPath     string

	LogLevel  string
	LogFormat string

	WatchIntervalSec int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
	GmailQuery        string
	GmailRateLimitRPS int

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider string
	MailListenerLabel    string
	MailListenerFetchMax int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		InputDir:   getEnv("INPUT_DIR", filepath.Join(cwd, "data", "docs")),
		OutputXLSX: getEnv("OUTPUT_XLSX", filepath.Join(cwd, "nydb.xlsx")),
		OutputCSV:  getEnv("OUTPUT_CSV", filepath.Join(cwd, "nydb.csv")),
		XLSXSheet:  getEnv("XLSX_SHEET", ""),
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 60),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailQuery:        getEnv("GMAIL_QUERY", "has:attachment"),
		GmailRateLimitRPS: getEnvInt("GMAIL_RATE_LIMIT_RPS", 5),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider: getEnv("MAIL_LISTENER_PROVIDER", ""),
		MailListenerLabel:    getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerFetchMax: getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
	}

	return cfg, nil
}

// MailDir is where fetched messages are dropped so the next run picks them up.
func (c Config) MailDir() string {
	return filepath.Join(c.InputDir, "mail")
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
