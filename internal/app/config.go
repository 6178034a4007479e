package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Comparison target
	URL       string
	Timestamp string // YYYYMMDD or YYYYMMDDHHMMSS; empty means most recent snapshot

	// Output
	OutputPath    string // empty means stdout
	OutputPDFPath string

	// Matcher
	Matcher             string // "strict" (default) or "pairwise"
	SimilarityThreshold float64

	// Fetching
	UserAgent string

	// Optional LLM summary
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Cache
	CacheDir    string
	CacheMaxAge time.Duration
	CacheClear  bool

	// Web mode
	Serve bool
	Addr  string

	Verbose bool
}
