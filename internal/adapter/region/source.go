// Package region loads the target region polygon from a GeoJSON file or URL and
// turns it into grid masks and boundary rings.
package region

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/ctessum/geom"
)

// maxBodyBytes caps a downloaded region document.
const maxBodyBytes = 64 << 20

// Source implements domain.RegionSource over a GeoJSON document addressed by
// a local path or an http(s) URL. The polygon is fetched on first use and kept
// for the lifetime of the source; failures are not cached.
type Source struct {
	location   string
	name       string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	polygon geom.MultiPolygon
}

// NewSource creates a region source. timeout bounds each HTTP fetch.
func NewSource(location, name string, timeout time.Duration, logger *slog.Logger) *Source {
	return &Source{
		location: location,
		name:     name,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Mask returns the cell-membership grid for axes.
func (s *Source) Mask(ctx context.Context, axes domain.Axes) (domain.RegionMask, error) {
	mp, err := s.load(ctx)
	if err != nil {
		return domain.RegionMask{}, err
	}
	return ComputeMask(mp, axes), nil
}

// Boundary returns the exterior ring of the region's largest part.
func (s *Source) Boundary(ctx context.Context) ([]domain.Vertex, error) {
	mp, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return ExteriorRing(mp), nil
}

func (s *Source) load(ctx context.Context) (geom.MultiPolygon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.polygon != nil {
		return s.polygon, nil
	}
	if s.location == "" {
		return nil, fmt.Errorf("region %q: no source configured", s.name)
	}

	var (
		b   []byte
		err error
	)
	if isURL(s.location) {
		b, err = s.fetch(ctx)
	} else {
		b, err = os.ReadFile(s.location)
	}
	if err != nil {
		return nil, fmt.Errorf("load region %q: %w", s.name, err)
	}

	mp, err := Parse(b, s.name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("region loaded",
		"region", s.name,
		"source", s.location,
		"parts", len(mp),
	)
	s.polygon = mp
	return mp, nil
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("region request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("region source error: status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}
