package region

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = `{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}`

const collection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"NAME": "Fiji"},
     "geometry": {"type": "Polygon", "coordinates": [[[177,-18],[179,-18],[179,-16],[177,-16],[177,-18]]]}},
    {"type": "Feature", "properties": {"ADMIN": "Australia"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[113,-39],[153,-39],[153,-11],[113,-11],[113,-39]]],
       [[[144,-44],[149,-44],[149,-40],[144,-40],[144,-44]]]
     ]}}
  ]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse_Geometry(t *testing.T) {
	mp, err := Parse([]byte(square), "anything")
	require.NoError(t, err)
	require.Len(t, mp, 1)
	assert.Len(t, mp[0][0], 5)
}

func TestParse_Feature(t *testing.T) {
	mp, err := Parse([]byte(`{"type":"Feature","properties":{"name":"Box"},"geometry":`+square+`}`), "other")
	require.NoError(t, err)
	assert.Len(t, mp, 1)
}

func TestParse_FeatureCollection(t *testing.T) {
	mp, err := Parse([]byte(collection), "australia")
	require.NoError(t, err)
	assert.Len(t, mp, 2)

	mp, err = Parse([]byte(collection), "Fiji")
	require.NoError(t, err)
	assert.Len(t, mp, 1)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(collection), "Atlantis")
	assert.ErrorIs(t, err, ErrRegionNotFound)

	_, err = Parse([]byte(`{"type":"Point","coordinates":[1,2]}`), "x")
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)

	_, err = Parse([]byte(`{"type":"Feature","properties":{}}`), "x")
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)

	_, err = Parse([]byte(`not json`), "x")
	assert.Error(t, err)
}

func TestComputeMask(t *testing.T) {
	mp, err := Parse([]byte(square), "")
	require.NoError(t, err)
	axes := domain.Axes{Lat: []float64{-5, 2.5, 7.5, 15}, Lon: []float64{-2.5, 5, 12.5}}

	mask := ComputeMask(mp, axes)

	assert.Equal(t, 4, mask.H)
	assert.Equal(t, 3, mask.W)
	assert.True(t, mask.Contains(1, 1))
	assert.True(t, mask.Contains(2, 1))
	assert.False(t, mask.Contains(0, 1))
	assert.False(t, mask.Contains(3, 1))
	assert.False(t, mask.Contains(1, 0))
	assert.False(t, mask.Contains(1, 2))
	assert.Equal(t, 2, mask.Count())
}

func TestComputeMask_MultiPart(t *testing.T) {
	mp, err := Parse([]byte(collection), "Australia")
	require.NoError(t, err)
	axes := domain.Axes{Lat: []float64{-42, -30}, Lon: []float64{120, 146.5}}

	mask := ComputeMask(mp, axes)

	assert.False(t, mask.Contains(0, 0), "ocean south-west of the mainland")
	assert.True(t, mask.Contains(0, 1), "island part")
	assert.True(t, mask.Contains(1, 0))
	assert.True(t, mask.Contains(1, 1))
}

func TestExteriorRing_LargestPart(t *testing.T) {
	mp, err := Parse([]byte(collection), "Australia")
	require.NoError(t, err)

	ring := ExteriorRing(mp)
	require.Len(t, ring, 5)
	assert.Equal(t, domain.Vertex{Lon: 113, Lat: -39}, ring[0])
	assert.Equal(t, domain.Vertex{Lon: 153, Lat: -11}, ring[2])
	assert.Nil(t, ExteriorRing(nil))
}

func TestSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.geojson")
	require.NoError(t, os.WriteFile(path, []byte(collection), 0o644))
	src := NewSource(path, "Australia", time.Second, testLogger())

	mask, err := src.Mask(context.Background(), domain.Axes{Lat: []float64{-30}, Lon: []float64{130}})
	require.NoError(t, err)
	assert.True(t, mask.Contains(0, 0))

	ring, err := src.Boundary(context.Background())
	require.NoError(t, err)
	assert.Len(t, ring, 5)
}

func TestSource_URL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/geo+json")
		fmt.Fprint(w, collection)
	}))
	defer srv.Close()
	src := NewSource(srv.URL+"/countries.geojson", "Australia", time.Second, testLogger())

	_, err := src.Mask(context.Background(), domain.Axes{Lat: []float64{-30}, Lon: []float64{130}})
	require.NoError(t, err)
	_, err = src.Boundary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load(), "polygon should be fetched once")
}

func TestSource_HTTPError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	src := NewSource(srv.URL, "Australia", time.Second, testLogger())

	_, err := src.Mask(context.Background(), domain.Axes{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")

	_, err = src.Boundary(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load(), "failures are not cached")
}

func TestSource_Unconfigured(t *testing.T) {
	src := NewSource("", "Australia", time.Second, testLogger())
	_, err := src.Mask(context.Background(), domain.Axes{})
	assert.Error(t, err)
}

func TestSource_MissingFile(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "nope.geojson"), "Australia", time.Second, testLogger())
	_, err := src.Boundary(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// --- CachedSource tests ---

type countingSource struct {
	maskCalls int
	err       error
}

func (s *countingSource) Mask(_ context.Context, axes domain.Axes) (domain.RegionMask, error) {
	s.maskCalls++
	if s.err != nil {
		return domain.RegionMask{}, s.err
	}
	h, w := axes.Shape()
	return domain.NewRegionMask(h, w), nil
}

func (s *countingSource) Boundary(context.Context) ([]domain.Vertex, error) {
	return []domain.Vertex{{Lon: 1, Lat: 2}}, s.err
}

func TestCachedSource_Hit(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 4)
	axes := domain.Axes{Lat: []float64{1, 2}, Lon: []float64{3}}

	m1, err := cached.Mask(context.Background(), axes)
	require.NoError(t, err)
	m2, err := cached.Mask(context.Background(), domain.Axes{Lat: []float64{1, 2}, Lon: []float64{3}})
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
	assert.Equal(t, 1, inner.maskCalls, "should only call inner once")
}

func TestCachedSource_DifferentAxesMiss(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 4)

	_, _ = cached.Mask(context.Background(), domain.Axes{Lat: []float64{1}, Lon: []float64{3}})
	_, _ = cached.Mask(context.Background(), domain.Axes{Lat: []float64{1.5}, Lon: []float64{3}})

	assert.Equal(t, 2, inner.maskCalls)
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	inner := &countingSource{err: ErrRegionNotFound}
	cached := NewCachedSource(inner, 4)
	axes := domain.Axes{Lat: []float64{1}, Lon: []float64{3}}

	_, err := cached.Mask(context.Background(), axes)
	assert.ErrorIs(t, err, ErrRegionNotFound)
	_, err = cached.Mask(context.Background(), axes)
	assert.ErrorIs(t, err, ErrRegionNotFound)

	assert.Equal(t, 2, inner.maskCalls)
	assert.Equal(t, 0, cached.cache.size())
}

func TestCachedSource_BoundaryPassThrough(t *testing.T) {
	cached := NewCachedSource(&countingSource{}, 1)
	ring, err := cached.Boundary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Vertex{{Lon: 1, Lat: 2}}, ring)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.NewRegionMask(1, 1))
	c.put("b", domain.NewRegionMask(2, 2))

	m, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, m.H)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.NewRegionMask(1, 1))
	c.put("b", domain.NewRegionMask(2, 2))
	c.put("c", domain.NewRegionMask(3, 3)) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	m, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, m.W)
	assert.Equal(t, 2, c.size())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.NewRegionMask(1, 1))
	c.put("b", domain.NewRegionMask(2, 2))
	c.get("a")
	c.put("c", domain.NewRegionMask(3, 3))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestAxesKey(t *testing.T) {
	a := domain.Axes{Lat: []float64{1, 2}, Lon: []float64{3}}
	b := domain.Axes{Lat: []float64{1}, Lon: []float64{2, 3}}
	assert.Equal(t, axesKey(a), axesKey(domain.Axes{Lat: []float64{1, 2}, Lon: []float64{3}}))
	assert.NotEqual(t, axesKey(a), axesKey(b))
}
