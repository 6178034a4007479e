package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default endpoints for the Internet Archive's Wayback Machine.
const (
	defaultAvailabilityURL = "https://archive.org/wayback/available"
	defaultSnapshotBase    = "https://web.archive.org/web"
)

// ErrNoSnapshot indicates the archive holds no snapshot for the URL.
var ErrNoSnapshot = errors.New("no archived snapshot for url")

// Locator resolves a page URL to an archived snapshot URL, either by
// constructing a timestamped Wayback URL directly or by asking the
// availability API for the closest snapshot.
type Locator struct {
	// AvailabilityURL overrides the availability API endpoint, mainly for tests.
	AvailabilityURL string
	// SnapshotBase overrides the snapshot URL prefix, mainly for tests.
	SnapshotBase string
	HTTPClient   *http.Client
	UserAgent    string
}

// SnapshotURL returns the archive URL for rawURL. With a timestamp in
// YYYYMMDD or YYYYMMDDHHMMSS form the URL is constructed directly; without
// one the availability API picks the most recent snapshot. A URL with no
// scheme defaults to http.
func (l *Locator) SnapshotURL(ctx context.Context, rawURL string, timestamp string) (string, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	if ts := strings.TrimSpace(timestamp); ts != "" {
		if err := validateTimestamp(ts); err != nil {
			return "", err
		}
		base := l.SnapshotBase
		if base == "" {
			base = defaultSnapshotBase
		}
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), ts, target), nil
	}

	return l.closestSnapshot(ctx, target)
}

func (l *Locator) closestSnapshot(ctx context.Context, target string) (string, error) {
	endpoint := l.AvailabilityURL
	if endpoint == "" {
		endpoint = defaultAvailabilityURL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}
	hc := l.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("availability status: %d", resp.StatusCode)
	}
	var ar availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", err
	}
	closest := ar.ArchivedSnapshots.Closest
	if closest.URL == "" {
		return "", ErrNoSnapshot
	}
	return closest.URL, nil
}

// validateTimestamp accepts YYYYMMDD or YYYYMMDDHHMMSS.
func validateTimestamp(ts string) error {
	var layout string
	switch len(ts) {
	case 8:
		layout = "20060102"
	case 14:
		layout = "20060102150405"
	default:
		return fmt.Errorf("timestamp %q: want YYYYMMDD or YYYYMMDDHHMMSS", ts)
	}
	if _, err := time.Parse(layout, ts); err != nil {
		return fmt.Errorf("timestamp %q: %w", ts, err)
	}
	return nil
}

// NormalizeURL defaults bare hostnames to http so users can paste
// "example.com" as-is.
func NormalizeURL(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		s = "http://" + s
		if _, err := url.Parse(s); err != nil {
			return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
		}
	}
	return s, nil
}

type availabilityResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			URL       string `json:"url"`
			Available bool   `json:"available"`
			Timestamp string `json:"timestamp"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}
