// Package location resolves the bounding box of an extraction from an
// address, a point with a buffer, or the bounds of a local file.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/osmextract/pkg/coords"
	"github.com/NERVsystems/osmextract/pkg/geo"
)

// NominatimBaseURL is the public Nominatim geocoding endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org"

// ErrUnreadableFile is returned when bounds cannot be read from an input
// file, whatever the underlying format failure was.
var ErrUnreadableFile = errors.New("unable to read bounds from input file")

// ErrNoResults is returned when geocoding an address yields nothing.
var ErrNoResults = errors.New("no geocoding result for address")

// Geocoder resolves free-text addresses with the Nominatim search API.
// Requests are rate limited to one per second per Nominatim's usage policy.
type Geocoder struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// GeocoderOption configures a Geocoder.
type GeocoderOption func(*Geocoder)

// WithBaseURL overrides the Nominatim endpoint.
func WithBaseURL(u string) GeocoderOption {
	return func(g *Geocoder) {
		if u != "" {
			g.baseURL = u
		}
	}
}

// WithUserAgent overrides the User-Agent string. Nominatim requires a
// meaningful one.
func WithUserAgent(ua string) GeocoderOption {
	return func(g *Geocoder) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) GeocoderOption {
	return func(g *Geocoder) {
		if hc != nil {
			g.httpClient = hc
		}
	}
}

// WithLogger sets the geocoder logger.
func WithLogger(logger *slog.Logger) GeocoderOption {
	return func(g *Geocoder) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGeocoder creates a Nominatim geocoder.
func NewGeocoder(opts ...GeocoderOption) *Geocoder {
	g := &Geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    NominatimBaseURL,
		userAgent:  "osmextract/0.1.0",
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// nominatimResult is the subset of a Nominatim search result we consume.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves an address to a location using the first search result.
func (g *Geocoder) Geocode(ctx context.Context, address string) (geo.Location, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return geo.Location{}, err
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	reqURL := g.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return geo.Location{}, fmt.Errorf("failed to create geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	g.logger.Debug("geocoding address", "address", address)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return geo.Location{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Location{}, fmt.Errorf("geocoding service returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.Location{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(results) == 0 {
		return geo.Location{}, fmt.Errorf("%w: %q", ErrNoResults, address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("invalid latitude in geocoding response: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("invalid longitude in geocoding response: %w", err)
	}

	g.logger.Debug("geocoded address",
		"address", address,
		"match", results[0].DisplayName,
		"lat", lat,
		"lon", lon,
	)

	return geo.Location{Latitude: lat, Longitude: lon}, nil
}

// FromBuffer builds a bounding box around a point by applying a square
// buffer of the given size in meters. The buffer is computed in the point's
// UTM zone so the size is metric, then the corners are projected back to
// decimal degrees.
func FromBuffer(lat, lon, meters float64) (geo.BoundingBox, error) {
	if err := geo.ValidateCoords(lat, lon); err != nil {
		return geo.BoundingBox{}, err
	}
	if meters <= 0 {
		return geo.BoundingBox{}, fmt.Errorf("buffer size must be positive, got %f", meters)
	}

	zone, easting, northing, northern := coords.LatLonToUTM(lat, lon)

	// Northwest and southeast corners of the buffered square.
	maxLat, minLon := coords.UTMToLatLon(zone, easting-meters, northing+meters, northern)
	minLat, maxLon := coords.UTMToLatLon(zone, easting+meters, northing-meters, northern)

	bbox := geo.BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	if err := bbox.Validate(); err != nil {
		return geo.BoundingBox{}, fmt.Errorf("buffer out of range: %w", err)
	}
	return bbox, nil
}

// FromFile reads the bounding box of a local vector file. GeoJSON
// (.geojson/.json) and OSM PBF (.osm.pbf/.pbf) inputs are supported; both
// already carry WGS84 coordinates.
func FromFile(path string) (geo.BoundingBox, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".geojson", ".json":
		return geojsonBounds(path)
	case ".pbf":
		return pbfBounds(path)
	default:
		return geo.BoundingBox{}, fmt.Errorf("%w: unsupported extension %q", ErrUnreadableFile, ext)
	}
}

func geojsonBounds(path string) (geo.BoundingBox, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return geo.BoundingBox{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return geo.BoundingBox{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(fc.Features) == 0 {
		return geo.BoundingBox{}, fmt.Errorf("%w: no features in %s", ErrUnreadableFile, path)
	}

	bound := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		bound = bound.Union(f.Geometry.Bound())
	}
	return boundToBBox(bound)
}

func pbfBounds(path string) (geo.BoundingBox, error) {
	f, err := os.Open(path)
	if err != nil {
		return geo.BoundingBox{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, 1)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	bbox := geo.NewBoundingBox()
	found := false
	for scanner.Scan() {
		if node, ok := scanner.Object().(*osm.Node); ok {
			bbox.Extend(node.Lat, node.Lon)
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return geo.BoundingBox{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if !found {
		return geo.BoundingBox{}, fmt.Errorf("%w: no nodes in %s", ErrUnreadableFile, path)
	}
	return *bbox, nil
}

// boundToBBox converts an orb bound ([lon, lat] order) to a BoundingBox.
func boundToBBox(b orb.Bound) (geo.BoundingBox, error) {
	bbox := geo.BoundingBox{
		MinLat: b.Min[1],
		MinLon: b.Min[0],
		MaxLat: b.Max[1],
		MaxLon: b.Max[0],
	}
	if err := bbox.Validate(); err != nil {
		return geo.BoundingBox{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return bbox, nil
}
