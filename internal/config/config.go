package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "docingest"

	// DefaultUserAgent identifies docingest in HTTP requests so that site
	// operators can recognize the traffic in their logs.
	DefaultUserAgent = "docingest/0.1 (+https://github.com/nao1215/docingest)"

	// DefaultRateLimit is the minimum delay between two outbound requests.
	DefaultRateLimit = 1 * time.Second

	// DefaultTimeout bounds one request including redirects and body read.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps a downloaded document. Larger bodies fail the fetch.
	DefaultMaxBodySize = 512 * 1024 * 1024 // 512MB

	// DefaultBatchSize is the number of chunk records sent per search request.
	DefaultBatchSize = 500

	// DefaultNERLimit is the number of chunks read per ner invocation.
	DefaultNERLimit = 1000

	// DefaultNERWorkers is the number of concurrent recognizer calls.
	DefaultNERWorkers = 1

	// DefaultIndexName is the search index receiving chunk records.
	DefaultIndexName = "chunks"
)

// Work directory layout.
const (
	URLsFileName     = "urls.json"
	StateFileName    = "state.json"
	DownloadsDirName = "downloads"
	ProcessedDirName = "processed"
	DatabaseFileName = "docingest.db"
)

// Environment variables read by ApplyEnv.
const (
	EnvMeiliHost = "MEILI_HOST"
	EnvMeiliKey  = "MEILI_MASTER_KEY"
	EnvDatabase  = "DOCINGEST_DATABASE"
)

// Config holds every option of a docingest invocation.
// It is built once by the CLI from defaults, the config file, the
// environment and flags, in that order, and then passed down explicitly.
type Config struct {
	// WorkDir holds the URL list, the ledger, downloads, processed
	// outputs and the corpus database.
	WorkDir string

	// ConfigFilePath is the explicit configuration file. When empty,
	// .docingest is searched in the current and home directories.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// MetricsFile is a node-exporter textfile written when a command ends.
	// Empty disables metrics output.
	MetricsFile string

	UserAgent   string
	RateLimit   time.Duration
	Timeout     time.Duration
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// Headers are added to every outbound request.
	Headers map[string]string

	// SeedsFile lists one listing page URL per line.
	SeedsFile string

	// Seeds are listing page URLs given on the command line. They take
	// precedence over SeedsFile.
	Seeds []string

	AllowedHosts          []string
	BlockedPathSubstrings []string
	AllowedExtensions     []string

	// AgeVerifyMarkers are final URL substrings that mark an age gate.
	AgeVerifyMarkers []string

	// Force reprocesses documents whose output is already current.
	Force bool

	// DatabasePath overrides the corpus database location.
	DatabasePath string

	// MaxDocs limits load-db and index to the first N documents. Zero means no limit.
	MaxDocs int

	MeiliHost   string
	MeiliAPIKey string
	IndexName   string
	BatchSize   int

	NERLimit     int
	NEROffset    int
	NERWorkers   int
	AllLanguages bool

	// JSONReport and MarkdownReport select the status output format.
	// They are mutually exclusive.
	JSONReport     bool
	MarkdownReport bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		WorkDir:               XDGDataDir(),
		UserAgent:             DefaultUserAgent,
		RateLimit:             DefaultRateLimit,
		Timeout:               DefaultTimeout,
		MaxBodySize:           DefaultMaxBodySize,
		AllowedHosts:          []string{"www.justice.gov", "justice.gov"},
		BlockedPathSubstrings: []string{"/epstein/search"},
		AllowedExtensions:     []string{".pdf", ".zip"},
		AgeVerifyMarkers:      []string{"/age-verify"},
		IndexName:             DefaultIndexName,
		BatchSize:             DefaultBatchSize,
		NERLimit:              DefaultNERLimit,
		NERWorkers:            DefaultNERWorkers,
	}
}

// XDGDataDir returns the default work directory.
// On Linux: ~/.local/share/docingest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// URLsPath returns the path of the crawled URL list.
func (c *Config) URLsPath() string {
	return filepath.Join(c.WorkDir, URLsFileName)
}

// StatePath returns the path of the run state ledger.
func (c *Config) StatePath() string {
	return filepath.Join(c.WorkDir, StateFileName)
}

// DownloadDir returns the content store directory.
func (c *Config) DownloadDir() string {
	return filepath.Join(c.WorkDir, DownloadsDirName)
}

// ProcessedDir returns the directory holding processed document outputs.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.WorkDir, ProcessedDirName)
}

// DBPath returns the corpus database path.
func (c *Config) DBPath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.WorkDir, DatabaseFileName)
}

// SearchConfigured reports whether both search credentials are present.
func (c *Config) SearchConfigured() bool {
	return c.MeiliHost != "" && c.MeiliAPIKey != ""
}

// Validate checks the options shared by every command and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return ErrNoWorkDir
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxDocs < 0 {
		return ErrInvalidMaxDocs
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.NERLimit <= 0 || c.NEROffset < 0 {
		return ErrInvalidChunkWindow
	}
	if c.NERWorkers <= 0 {
		return ErrInvalidWorkers
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// ValidateCrawl checks that the crawl stage has seeds to visit.
// Seeds must already be resolved from SeedsFile.
func (c *Config) ValidateCrawl() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	return nil
}

// ValidateIndex checks the search credentials.
func (c *Config) ValidateIndex() error {
	if c.MeiliHost == "" {
		return ErrMissingSearchHost
	}
	if c.MeiliAPIKey == "" {
		return ErrMissingSearchKey
	}
	return nil
}
