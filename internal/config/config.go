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
	DBPath        string
	RawMailDir    string
	StatementsDir string
	OutputDir     string

	MatchThreshold      float64
	MatchSubstringBonus float64
	MatchEngine         string

	Concurrency        int
	FetchLimit         int
	FinancialKeywords  []string
	LocalExport        bool
	UnmatchedSheetName string

	SheetsFolderID      string
	AttachmentsFolderID string
	UnmatchedFolderID   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailProvider string
	MailLabel    string

	WatchIntervalSec int

	LogLevel string
}

var defaultKeywords = []string{
	"receipt", "invoice", "bill", "statement", "payment", "order",
	"confirmation", "transaction", "paid", "amount due", "total paid",
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:        getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawMailDir:    getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		StatementsDir: getEnv("STATEMENTS_DIR", filepath.Join(cwd, "statements")),
		OutputDir:     getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		MatchThreshold:      getEnvFloat("MATCH_THRESHOLD", 0.7),
		MatchSubstringBonus: getEnvFloat("MATCH_SUBSTRING_BONUS", 0.3),
		MatchEngine:         getEnv("MATCH_ENGINE", "heuristic"),

		Concurrency:        getEnvInt("PROCESS_CONCURRENCY", 1),
		FetchLimit:         getEnvInt("MAIL_FETCH_LIMIT", 500),
		FinancialKeywords:  getEnvList("FINANCIAL_KEYWORDS", defaultKeywords),
		LocalExport:        getEnvBool("LOCAL_EXPORT", false),
		UnmatchedSheetName: getEnv("UNMATCHED_SHEET_NAME", "other_email"),

		SheetsFolderID:      getEnv("DRIVE_FOLDER_ID", ""),
		AttachmentsFolderID: getEnv("ATTACH_FILES_FOLDER_ID", ""),
		UnmatchedFolderID:   getEnv("OTHER_EMAIL_FOLDER_ID", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", "imap.gmail.com"),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailProvider: getEnv("MAIL_PROVIDER", "imap"),
		MailLabel:    getEnv("MAIL_LABEL", "INBOX"),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 300),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.AttachmentsFolderID == "" {
		cfg.AttachmentsFolderID = cfg.SheetsFolderID
	}
	if cfg.UnmatchedFolderID == "" {
		cfg.UnmatchedFolderID = cfg.SheetsFolderID
	}

	return cfg, nil
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

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
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

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
