package config

import (
	"strings"
	"time"
)

// File represents the structure of the .docingest configuration file.
// Every field is optional; a zero value keeps the current setting.
type File struct {
	WorkDir     string `yaml:"work_dir,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty"`

	HTTP     HTTPSection     `yaml:"http,omitempty"`
	Crawl    CrawlSection    `yaml:"crawl,omitempty"`
	Download DownloadSection `yaml:"download,omitempty"`
	Index    IndexSection    `yaml:"index,omitempty"`
	NER      NERSection      `yaml:"ner,omitempty"`

	// Database overrides the corpus database path.
	Database string `yaml:"database,omitempty"`
}

// HTTPSection configures outbound requests.
type HTTPSection struct {
	UserAgent   string            `yaml:"user_agent,omitempty"`
	RateLimit   time.Duration     `yaml:"rate_limit,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"`
	MaxBodySize int64             `yaml:"max_body_size,omitempty"`
	Proxy       string            `yaml:"proxy,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
}

// CrawlSection configures link discovery.
type CrawlSection struct {
	Seeds                 []string `yaml:"seeds,omitempty"`
	SeedsFile             string   `yaml:"seeds_file,omitempty"`
	AllowedHosts          []string `yaml:"allowed_hosts,omitempty"`
	BlockedPathSubstrings []string `yaml:"blocked_path_substrings,omitempty"`
	AllowedExtensions     []string `yaml:"allowed_extensions,omitempty"`
}

// DownloadSection configures the download policy checks.
type DownloadSection struct {
	AgeVerifyMarkers []string `yaml:"age_verify_markers,omitempty"`
}

// IndexSection configures the search index.
type IndexSection struct {
	Host      string `yaml:"host,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Name      string `yaml:"name,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
}

// NERSection configures entity extraction.
type NERSection struct {
	Limit        int  `yaml:"limit,omitempty"`
	Workers      int  `yaml:"workers,omitempty"`
	AllLanguages bool `yaml:"all_languages,omitempty"`
}

// ApplyFile overlays the values set in f onto c.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	setString(&c.WorkDir, f.WorkDir)
	setString(&c.MetricsFile, f.MetricsFile)
	setString(&c.DatabasePath, f.Database)

	setString(&c.UserAgent, f.HTTP.UserAgent)
	setString(&c.ProxyAddress, f.HTTP.Proxy)
	if f.HTTP.RateLimit != 0 {
		c.RateLimit = f.HTTP.RateLimit
	}
	if f.HTTP.Timeout != 0 {
		c.Timeout = f.HTTP.Timeout
	}
	if f.HTTP.MaxBodySize != 0 {
		c.MaxBodySize = f.HTTP.MaxBodySize
	}
	if len(f.HTTP.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.HTTP.Headers))
		}
		for k, v := range f.HTTP.Headers {
			c.Headers[k] = v
		}
	}

	setStrings(&c.Seeds, f.Crawl.Seeds)
	setString(&c.SeedsFile, f.Crawl.SeedsFile)
	setStrings(&c.AllowedHosts, f.Crawl.AllowedHosts)
	setStrings(&c.BlockedPathSubstrings, f.Crawl.BlockedPathSubstrings)
	setStrings(&c.AllowedExtensions, f.Crawl.AllowedExtensions)
	setStrings(&c.AgeVerifyMarkers, f.Download.AgeVerifyMarkers)

	setString(&c.MeiliHost, f.Index.Host)
	setString(&c.MeiliAPIKey, f.Index.APIKey)
	setString(&c.IndexName, f.Index.Name)
	if f.Index.BatchSize != 0 {
		c.BatchSize = f.Index.BatchSize
	}

	if f.NER.Limit != 0 {
		c.NERLimit = f.NER.Limit
	}
	if f.NER.Workers != 0 {
		c.NERWorkers = f.NER.Workers
	}
	if f.NER.AllLanguages {
		c.AllLanguages = true
	}
}

// ApplyEnv overlays values from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setString(&c.MeiliHost, strings.TrimSpace(getenv(EnvMeiliHost)))
	setString(&c.MeiliAPIKey, strings.TrimSpace(getenv(EnvMeiliKey)))
	setString(&c.DatabasePath, strings.TrimSpace(getenv(EnvDatabase)))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setStrings(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = append([]string(nil), v...)
	}
}
