package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagediff/internal/app"
	"github.com/hyperifyio/pagediff/internal/archive"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		rawURL        string
		timestamp     string
		outputPath    string
		outputPDFPath string
		matcher       string
		threshold     float64
		userAgent     string
		llmBaseURL    string
		llmModel      string
		llmKey        string
		cacheDir      string
		cacheMaxAge   time.Duration
		cacheClear    bool
		serve         bool
		addr          string
		configPath    string
		verbose       bool
	)

	flag.StringVar(&rawURL, "url", "", "Page URL to compare against its archived snapshot")
	flag.StringVar(&timestamp, "timestamp", "", "Snapshot timestamp, YYYYMMDD or YYYYMMDDHHMMSS; empty picks the most recent")
	flag.StringVar(&outputPath, "output", "", "Path to write the Markdown report (default stdout)")
	flag.StringVar(&outputPDFPath, "output.pdf", "", "Optional path to also write a PDF report")
	flag.StringVar(&matcher, "matcher", app.MatcherDefault, "Matching mode: strict or pairwise")
	flag.Float64Var(&threshold, "matcher.threshold", 0.7, "Pairwise similarity threshold in [0, 1]")
	flag.StringVar(&userAgent, "fetch.ua", app.UserAgentDefault, "Custom User-Agent for page and archive requests")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL for the optional change summary")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name; empty disables the summary")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.StringVar(&cacheDir, "cache.dir", app.CacheDirDefault, "Cache directory path; empty disables caching")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&serve, "serve", false, "Run the web front end instead of a one-shot comparison")
	flag.StringVar(&addr, "addr", app.AddrDefault, "Listen address in serve mode")
	flag.StringVar(&configPath, "config", os.Getenv("PAGEDIFF_CONFIG"), "Optional YAML or JSON config file; explicit flags win")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		URL:                 rawURL,
		Timestamp:           timestamp,
		OutputPath:          outputPath,
		OutputPDFPath:       outputPDFPath,
		Matcher:             matcher,
		SimilarityThreshold: threshold,
		UserAgent:           userAgent,
		LLMBaseURL:          llmBaseURL,
		LLMModel:            llmModel,
		LLMAPIKey:           llmKey,
		CacheDir:            cacheDir,
		CacheMaxAge:         cacheMaxAge,
		CacheClear:          cacheClear,
		Serve:               serve,
		Addr:                addr,
		Verbose:             verbose,
	}

	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
		if cfg.Verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// No snapshot and fetch failures get a distinct exit code so
		// monitoring scripts can tell them from configuration errors.
		if errors.Is(err, archive.ErrNoSnapshot) || errors.Is(err, app.ErrFetchFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if cfg.Serve {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		return http.ListenAndServe(cfg.Addr, a.Handler())
	}
	return a.Run(ctx)
}
