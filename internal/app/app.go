package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/pagediff/internal/archive"
	"github.com/hyperifyio/pagediff/internal/cache"
	"github.com/hyperifyio/pagediff/internal/extract"
	"github.com/hyperifyio/pagediff/internal/fetch"
	"github.com/hyperifyio/pagediff/internal/match"
	"github.com/hyperifyio/pagediff/internal/report"
	"github.com/hyperifyio/pagediff/internal/summary"
)

// App wires the snapshot locator, the fetcher, the matcher, and the
// optional summarizer behind the two entry points: one-shot Run for the
// CLI and Handler for the web front end.
type App struct {
	cfg        Config
	locator    *archive.Locator
	fetcher    *fetch.Client
	summarizer *summary.Summarizer
}

// ErrFetchFailed wraps retrieval failures on either side of a comparison.
// The comparison is not attempted; callers surface the reason to the user.
var ErrFetchFailed = errors.New("could not compare pages due to fetch error")

func New(cfg Config) (*App, error) {
	a := &App{cfg: cfg}

	var httpCache *cache.HTTPCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				return nil, fmt.Errorf("clear cache: %w", err)
			}
		}
		if cfg.CacheMaxAge > 0 {
			// Purge both caches by age; ignore errors to avoid failing startup.
			_, _ = cache.PurgeHTTPCacheByAge(cfg.CacheDir, cfg.CacheMaxAge)
			_, _ = cache.PurgeSummaryCacheByAge(cfg.CacheDir, cfg.CacheMaxAge)
		}
		httpCache = &cache.HTTPCache{Dir: cfg.CacheDir}
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = UserAgentDefault
	}
	a.locator = &archive.Locator{HTTPClient: newPageHTTPClient(), UserAgent: ua}
	a.fetcher = &fetch.Client{
		HTTPClient:        newPageHTTPClient(),
		UserAgent:         ua,
		PerRequestTimeout: 15 * time.Second,
		Cache:             httpCache,
		RedirectMaxHops:   5,
	}

	if strings.TrimSpace(cfg.LLMModel) != "" {
		transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			transportCfg.BaseURL = cfg.LLMBaseURL
		}
		transportCfg.HTTPClient = newPageHTTPClient()
		var summaryCache *cache.SummaryCache
		if cfg.CacheDir != "" {
			summaryCache = &cache.SummaryCache{Dir: cfg.CacheDir}
		}
		a.summarizer = &summary.Summarizer{
			Client: openai.NewClientWithConfig(transportCfg),
			Cache:  summaryCache,
			Model:  cfg.LLMModel,
		}
	}

	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

// Comparison is the full outcome of comparing one URL against its archived
// snapshot. JSON field names match the API response shape.
type Comparison struct {
	ArchiveURL string        `json:"wayback_url"`
	LiveURL    string        `json:"live_url"`
	Changes    report.Report `json:"changes"`
	Summary    string        `json:"summary,omitempty"`
}

// Compare locates an archived snapshot for rawURL, fetches both versions,
// and classifies the content differences. Each call is independent; there
// is no shared mutable state, so callers may compare concurrently.
func (a *App) Compare(ctx context.Context, rawURL string, timestamp string) (*Comparison, error) {
	return a.compare(ctx, rawURL, timestamp, a.matchOptions())
}

func (a *App) compare(ctx context.Context, rawURL string, timestamp string, opts match.Options) (*Comparison, error) {
	archiveURL, err := a.locator.SnapshotURL(ctx, rawURL, timestamp)
	if err != nil {
		return nil, err
	}
	liveURL, err := archive.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("archive", archiveURL).Str("live", liveURL).Msg("comparing versions")

	archived, _, err := a.fetcher.Get(ctx, archiveURL)
	if err != nil {
		return nil, fmt.Errorf("%w: archived version: %v", ErrFetchFailed, err)
	}
	live, _, err := a.fetcher.Get(ctx, liveURL)
	if err != nil {
		return nil, fmt.Errorf("%w: live version: %v", ErrFetchFailed, err)
	}

	oldBlocks := extract.Blocks(string(archived))
	newBlocks := extract.Blocks(string(live))
	changes := match.Changes(oldBlocks, newBlocks, opts)

	cmp := &Comparison{
		ArchiveURL: archiveURL,
		LiveURL:    liveURL,
		Changes:    changes,
	}
	if a.summarizer != nil {
		s, err := a.summarizer.Summarize(ctx, changes, archiveURL, liveURL)
		switch {
		case err == nil:
			cmp.Summary = s
		case errors.Is(err, summary.ErrNotConfigured):
		default:
			log.Warn().Err(err).Msg("summary failed; continuing without it")
		}
	}

	added, removed, modified := changes.Counts()
	log.Info().Int("added", added).Int("removed", removed).Int("modified", modified).Msg("comparison done")
	return cmp, nil
}

func (a *App) matchOptions() match.Options {
	opts := match.Options{Mode: match.ModeStrict}
	if a.cfg.Matcher == string(match.ModePairwise) {
		opts.Mode = match.ModePairwise
		opts.SimilarityThreshold = a.cfg.SimilarityThreshold
	}
	return opts
}

// Run performs the one-shot CLI comparison and writes the report.
func (a *App) Run(ctx context.Context) error {
	cmp, err := a.Compare(ctx, a.cfg.URL, a.cfg.Timestamp)
	if err != nil {
		return err
	}

	md := cmp.Markdown()
	if a.cfg.OutputPath != "" {
		if err := os.WriteFile(a.cfg.OutputPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputPath).Msg("wrote report")
	} else {
		fmt.Print(md)
	}

	if a.cfg.OutputPDFPath != "" {
		if err := writeReportPDF(md, a.cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.OutputPDFPath).Msg("wrote pdf report")
	}
	return nil
}

// Markdown renders the full comparison, report included, as a Markdown
// document.
func (c *Comparison) Markdown() string {
	var b strings.Builder
	b.WriteString("# Page Content Changes\n\n")
	fmt.Fprintf(&b, "- Archived version: %s\n", c.ArchiveURL)
	fmt.Fprintf(&b, "- Live version: %s\n\n", c.LiveURL)
	if c.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", c.Summary)
	}
	b.WriteString(c.Changes.Markdown())
	return b.String()
}
