// Package water downloads and caches the OSM-derived water polygons
// shapefile bundle published at osmdata.openstreetmap.de.
package water

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/anaskhan96/soup"
	"github.com/dustin/go-humanize"
)

const (
	// PolygonsURL is the canonical location of the split WGS84 water
	// polygons bundle.
	PolygonsURL = "https://osmdata.openstreetmap.de/download/water-polygons-split-4326.zip"

	// pageURL lists the published water polygon downloads; scraped to pick
	// up relocations of the bundle.
	pageURL = "https://osmdata.openstreetmap.de/data/water-polygons.html"

	filename = "water-polygons-split-4326.zip"
)

// Store manages the local copy of the water polygons bundle.
type Store struct {
	dir        string
	srcURL     string
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDir overrides the cache directory.
func WithDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.dir = dir
		}
	}
}

// WithSourceURL pins the bundle URL, skipping download page resolution.
func WithSourceURL(u string) Option {
	return func(s *Store) {
		if u != "" {
			s.srcURL = u
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Store) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// WithUserAgent overrides the User-Agent string.
func WithUserAgent(ua string) Option {
	return func(s *Store) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store rooted in the user cache directory.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		httpClient: &http.Client{Timeout: 30 * time.Minute},
		userAgent:  "osmextract/0.1.0",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine cache directory: %w", err)
		}
		s.dir = filepath.Join(base, "osmextract")
	}
	return s, nil
}

// Path returns the local path of the bundle, downloaded or not.
func (s *Store) Path() string {
	return filepath.Join(s.dir, filename)
}

// IsDownloaded reports whether the bundle is already cached.
func (s *Store) IsDownloaded() bool {
	info, err := os.Stat(s.Path())
	return err == nil && info.Mode().IsRegular()
}

// Clean removes the cache directory and everything in it.
func (s *Store) Clean() error {
	return os.RemoveAll(s.dir)
}

// resolveURL scrapes the download page for the bundle link, falling back to
// the canonical URL when the page cannot be read or parsed.
func (s *Store) resolveURL(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return PolygonsURL
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug("download page unreachable, using canonical URL", "error", err)
		return PolygonsURL
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PolygonsURL
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PolygonsURL
	}

	doc := soup.HTMLParse(string(body))
	for _, link := range doc.FindAll("a") {
		href, ok := link.Attrs()["href"]
		if !ok || !strings.HasSuffix(href, filename) {
			continue
		}
		resolved, err := url.Parse(pageURL)
		if err != nil {
			break
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		return resolved.ResolveReference(ref).String()
	}
	return PolygonsURL
}

// contentLength asks the server for the bundle size via a HEAD request.
// Returns 0 when the size is unknown.
func (s *Store) contentLength(ctx context.Context, srcURL string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, srcURL, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()

	n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Download fetches the bundle into the cache directory, replacing any
// existing copy. Progress is logged at 64 MiB intervals.
func (s *Store) Download(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create cache directory: %w", err)
	}

	srcURL := s.srcURL
	if srcURL == "" {
		srcURL = s.resolveURL(ctx)
	}
	total := s.contentLength(ctx, srcURL)

	s.logger.Info("downloading water polygons",
		"url", srcURL,
		"size", humanize.Bytes(uint64(total)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(s.dir, filename+".*")
	if err != nil {
		return fmt.Errorf("cannot create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, &progressReader{
		r:      resp.Body,
		total:  total,
		logger: s.logger,
	})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("download interrupted: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("cannot move bundle into place: %w", err)
	}

	s.logger.Info("water polygons downloaded",
		"path", s.Path(),
		"size", humanize.Bytes(uint64(written)),
	)
	return nil
}

// progressReader logs cumulative download progress as data flows through.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	next   int64
	logger *slog.Logger
}

const progressStep = 64 << 20

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.read >= p.next {
		p.next = p.read + progressStep
		if p.total > 0 {
			p.logger.Info("download progress",
				"received", humanize.Bytes(uint64(p.read)),
				"total", humanize.Bytes(uint64(p.total)),
			)
		} else {
			p.logger.Info("download progress", "received", humanize.Bytes(uint64(p.read)))
		}
	}
	return n, err
}
