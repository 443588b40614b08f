package config

import "errors"

// Configuration validation errors returned by Validate and the stage validators.
var (
	// ErrNoWorkDir is returned when no work directory is configured.
	ErrNoWorkDir = errors.New("no work directory: set --workdir or work_dir in the config file")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRateLimit is returned when the delay between requests is negative.
	// Use 0 to disable throttling.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxDocs is returned when --max-docs is negative.
	ErrInvalidMaxDocs = errors.New("invalid max docs: must be non-negative")

	// ErrInvalidBatchSize is returned when the index batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidChunkWindow is returned for a non-positive --limit or a negative --offset.
	ErrInvalidChunkWindow = errors.New("invalid chunk window: limit must be positive and offset non-negative")

	// ErrInvalidWorkers is returned when the NER worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoSeeds is returned when crawl has neither seed arguments nor a seeds file.
	ErrNoSeeds = errors.New("no seeds specified: pass seed URLs or use --seeds")

	// ErrMissingSearchHost is returned when the search host is not configured.
	ErrMissingSearchHost = errors.New("search host is required: set --meili-host or " + EnvMeiliHost)

	// ErrMissingSearchKey is returned when the search API key is not configured.
	ErrMissingSearchKey = errors.New("search API key is required: set --meili-key or " + EnvMeiliKey)
)
