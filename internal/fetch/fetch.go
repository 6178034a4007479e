package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/pagediff/internal/cache"
)

// Client issues the page GETs behind a comparison. It sets a browser-ish
// User-Agent, bounds each request with a timeout, caps redirects, accepts
// only HTML content types, and decodes the body to UTF-8. There is no retry
// or rate-limit policy here: a failed retrieval surfaces to the caller.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds each request. Zero means no extra bound
	// beyond the underlying http.Client.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for GET bodies and revalidation headers.
	Cache *cache.HTTPCache
	// BypassCache skips conditional headers and always fetches fresh,
	// still saving the latest response to cache.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
}

// Get fetches url and returns the UTF-8 body and content type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var meta *cache.HTTPEntry
	if c.Cache != nil && !c.BypassCache {
		if m, err := c.Cache.LoadMeta(ctx, rawURL); err == nil {
			meta = m
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return nil, "", fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if meta != nil {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && c.Cache != nil {
		cached, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("304 without cached body: %w", err)
		}
		ct := resp.Header.Get("Content-Type")
		if ct == "" && meta != nil {
			ct = meta.ContentType
		}
		body, err := decodeToUTF8(cached, ct)
		return body, ct, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if !isAllowedHTMLContentType(ct) {
		return nil, "", fmt.Errorf("unsupported content type: %s", ct)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if c.Cache != nil {
		_ = c.Cache.Save(ctx, rawURL, ct, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), raw)
	}
	body, err := decodeToUTF8(raw, ct)
	return body, ct, err
}

// decodeToUTF8 converts a body to UTF-8 based on the content-type charset
// and any in-document meta declarations. Archived pages are frequently in
// legacy encodings. An unrecognized charset falls back to the raw bytes.
func decodeToUTF8(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body, nil
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body, nil
	}
	return decoded, nil
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
