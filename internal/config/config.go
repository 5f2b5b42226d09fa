package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"

	"github.com/ca-srg/kwsearch/internal/scanner"
	"github.com/ca-srg/kwsearch/internal/types"
)

// Type alias for Config
type Config = types.Config

const (
	DefaultKeywords   = "Python,programming,test"
	DefaultExtensions = ".txt,.csv,.md,.log,.json,.xml,.yml,.yaml"
)

// ReportFormats lists the accepted KWSEARCH_REPORT_FORMAT values
var ReportFormats = []string{"text", "json", "yaml"}

// Load loads configuration from a .env file (if present) and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if strings.TrimSpace(config.KeywordsStr) == "" {
		config.KeywordsStr = DefaultKeywords
	}
	config.Keywords = types.ParseKeywords(config.KeywordsStr)

	if strings.TrimSpace(config.ExtensionsStr) == "" {
		config.ExtensionsStr = DefaultExtensions
	}
	config.Extensions = ParseExtensions(config.ExtensionsStr)

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// ParseExtensions splits a comma-separated extension list, lowercasing each
// entry and adding the leading dot when missing
func ParseExtensions(s string) []string {
	parts := strings.Split(s, ",")
	exts := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		ext := strings.ToLower(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	return exts
}

// Validate checks configuration values and normalizes them where a safe
// default exists. The worker count is left as given: the search engine
// rejects non-positive values itself.
func Validate(config *Config) error {
	if len(config.Keywords) == 0 {
		return fmt.Errorf("KWSEARCH_KEYWORDS must contain at least one keyword")
	}

	if len(config.Extensions) == 0 {
		return fmt.Errorf("KWSEARCH_EXTENSIONS must contain at least one extension")
	}

	config.Encoding = strings.TrimSpace(config.Encoding)
	if config.Encoding == "" {
		config.Encoding = scanner.DefaultEncoding
	}
	if _, err := scanner.LookupEncoding(config.Encoding); err != nil {
		return fmt.Errorf("KWSEARCH_ENCODING: %w", err)
	}

	config.ReportFormat = strings.ToLower(strings.TrimSpace(config.ReportFormat))
	if config.ReportFormat == "" {
		config.ReportFormat = "text"
	}
	if !isValidReportFormat(config.ReportFormat) {
		return fmt.Errorf("KWSEARCH_REPORT_FORMAT must be one of %s, got %q",
			strings.Join(ReportFormats, ", "), config.ReportFormat)
	}

	if config.ReportDir == "" {
		config.ReportDir = "."
	}

	if config.ReportS3Prefix != "" && config.ReportS3Bucket == "" {
		return fmt.Errorf("KWSEARCH_REPORT_S3_PREFIX requires KWSEARCH_REPORT_S3_BUCKET")
	}

	return nil
}

func isValidReportFormat(format string) bool {
	for _, f := range ReportFormats {
		if f == format {
			return true
		}
	}
	return false
}
