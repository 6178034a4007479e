package app

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagediff/internal/archive"
	"github.com/hyperifyio/pagediff/internal/match"
)

var formTmpl = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><title>Page Diff</title></head>
<body>
<h1>Compare a page against its archived snapshot</h1>
<form method="post" action="/compare">
  <label>URL: <input type="text" name="url" size="60" placeholder="example.com"></label><br>
  <label>Snapshot date (optional): <input type="date" name="date"></label><br>
  <button type="submit">Compare</button>
</form>
</body>
</html>
`))

var resultTmpl = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><title>Page Diff Result</title></head>
<body>
<h1>Page Content Changes</h1>
<p>Archived version: <a href="{{.ArchiveURL}}">{{.ArchiveURL}}</a></p>
<p>Live version: <a href="{{.LiveURL}}">{{.LiveURL}}</a></p>
{{if .Summary}}<h2>Summary</h2><p>{{.Summary}}</p>{{end}}

<h2>New Content ({{len .Changes.Added}})</h2>
{{range .Changes.Added}}<p><b>{{.Kind.Label}}</b>: {{.Text}}</p>{{else}}<p>No new content detected.</p>{{end}}

<h2>Removed Content ({{len .Changes.Removed}})</h2>
{{range .Changes.Removed}}<p><b>{{.Kind.Label}}</b>: {{.Text}}</p>{{else}}<p>No removed content detected.</p>{{end}}

<h2>Modified Content ({{len .Changes.Modified}})</h2>
{{range .Changes.Modified}}<p>Before <b>{{.Old.Kind.Label}}</b>: {{.Old.Text}}<br>After <b>{{.New.Kind.Label}}</b>: {{.New.Text}}</p>{{else}}<p>No modified content detected.</p>{{end}}

<p><a href="/">Compare another page</a></p>
</body>
</html>
`))

// Handler returns the web front end: an HTML form, its submit target, and
// a JSON API. Handlers are stateless; each request runs its own comparison.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", a.handleIndex)
	mux.HandleFunc("/compare", a.handleCompare)
	mux.HandleFunc("/api/compare", a.handleAPICompare)

	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(mux)
	h = requestIDHandler(h)
	return hlog.NewHandler(log.Logger)(h)
}

// requestIDHandler assigns each request an id and stamps it on the request
// logger and the response.
func requestIDHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := xid.New().String()
		logger := hlog.FromRequest(r).With().Str("req_id", id).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTmpl.Execute(w, nil); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render form")
	}
}

func (a *App) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	rawURL := strings.TrimSpace(r.PostFormValue("url"))
	if rawURL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	timestamp := dateToTimestamp(r.PostFormValue("date"))

	cmp, err := a.Compare(r.Context(), rawURL, timestamp)
	if err != nil {
		writeCompareError(w, r, err, false)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := resultTmpl.Execute(w, cmp); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render result")
	}
}

type compareRequest struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	// Matcher optionally overrides the configured matching mode per request.
	Matcher string `json:"matcher"`
}

func (a *App) handleAPICompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSONError(w, http.StatusBadRequest, "url is required")
		return
	}
	opts := a.matchOptions()
	switch req.Matcher {
	case "":
	case string(match.ModeStrict):
		opts = match.Options{Mode: match.ModeStrict}
	case string(match.ModePairwise):
		opts = match.Options{Mode: match.ModePairwise, SimilarityThreshold: a.cfg.SimilarityThreshold}
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown matcher (want strict or pairwise)")
		return
	}

	cmp, err := a.compare(r.Context(), req.URL, req.Timestamp, opts)
	if err != nil {
		writeCompareError(w, r, err, true)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cmp); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("encode response")
	}
}

func writeCompareError(w http.ResponseWriter, r *http.Request, err error, asJSON bool) {
	status := http.StatusInternalServerError
	msg := "comparison failed"
	switch {
	case errors.Is(err, archive.ErrNoSnapshot):
		status = http.StatusNotFound
		msg = "no archived snapshot for that url"
	case errors.Is(err, ErrFetchFailed):
		status = http.StatusBadGateway
		msg = "could not fetch one of the page versions"
	}
	zerolog.Ctx(r.Context()).Warn().Err(err).Int("status", status).Msg("compare failed")
	if asJSON {
		writeJSONError(w, status, msg)
		return
	}
	http.Error(w, msg, status)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// dateToTimestamp converts an HTML date input (YYYY-MM-DD) to the archive's
// YYYYMMDD form. Anything else passes through untouched so API-style
// timestamps still work.
func dateToTimestamp(date string) string {
	date = strings.TrimSpace(date)
	if len(date) == 10 && date[4] == '-' && date[7] == '-' {
		return date[:4] + date[5:7] + date[8:]
	}
	return date
}
