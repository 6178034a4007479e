package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally to the dotted flag names.
type FileConfig struct {
	URL       string `yaml:"url" json:"url"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`

	Matcher struct {
		Mode                string  `yaml:"mode" json:"mode"`
		SimilarityThreshold float64 `yaml:"similarityThreshold" json:"similarityThreshold"`
	} `yaml:"matcher" json:"matcher"`

	Fetch struct {
		UA string `yaml:"ua" json:"ua"`
	} `yaml:"fetch" json:"fetch"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Cache struct {
		Dir    string        `yaml:"dir" json:"dir"`
		MaxAge time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear  bool          `yaml:"clear" json:"clear"`
	} `yaml:"cache" json:"cache"`

	Server struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"server" json:"server"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Defaults from flag parsing that file config may override when the flags
// were left unset.
const (
	MatcherDefault  = "strict"
	AddrDefault     = ":8080"
	CacheDirDefault = ".pagediff-cache"
	UserAgentDefault = "pagediff/1.0 (+https://github.com/hyperifyio/pagediff)"
)

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// currently unset or at their flag defaults. Flags should already have been
// parsed; this lets file config supply defaults while preserving explicit
// flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}

	if cfg.URL == "" && fc.URL != "" {
		cfg.URL = fc.URL
	}
	if cfg.Timestamp == "" && fc.Timestamp != "" {
		cfg.Timestamp = fc.Timestamp
	}
	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.OutputPDFPath == "" && fc.OutputPDF != "" {
		cfg.OutputPDFPath = fc.OutputPDF
	}

	if (cfg.Matcher == "" || cfg.Matcher == MatcherDefault) && fc.Matcher.Mode != "" {
		cfg.Matcher = fc.Matcher.Mode
	}
	if cfg.SimilarityThreshold == 0 && fc.Matcher.SimilarityThreshold > 0 {
		cfg.SimilarityThreshold = fc.Matcher.SimilarityThreshold
	}

	if (cfg.UserAgent == "" || cfg.UserAgent == UserAgentDefault) && fc.Fetch.UA != "" {
		cfg.UserAgent = fc.Fetch.UA
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == CacheDirDefault) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}

	if (cfg.Addr == "" || cfg.Addr == AddrDefault) && fc.Server.Addr != "" {
		cfg.Addr = fc.Server.Addr
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
// In serve mode the URL comes from each request instead of configuration.
func ValidateConfig(cfg Config) error {
	if !cfg.Serve && strings.TrimSpace(cfg.URL) == "" {
		return errors.New("config: url is required (or use -serve)")
	}
	switch cfg.Matcher {
	case "", "strict", "pairwise":
	default:
		return fmt.Errorf("config: unknown matcher %q (want strict or pairwise)", cfg.Matcher)
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return errors.New("config: similarity threshold must be within [0, 1]")
	}
	if cfg.Serve && strings.TrimSpace(cfg.Addr) == "" {
		return errors.New("config: listen address is required in serve mode")
	}
	return nil
}
