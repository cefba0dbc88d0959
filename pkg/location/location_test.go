package location

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/NERVsystems/osmextract/pkg/geo"
)

func TestGeocode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Brussels, Belgium" {
			t.Errorf("query q = %q", got)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		w.Write([]byte(`[{"lat":"50.8465573","lon":"4.351697","display_name":"Brussels, Belgium"}]`))
	}))
	defer ts.Close()

	g := NewGeocoder(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
	loc, err := g.Geocode(context.Background(), "Brussels, Belgium")
	if err != nil {
		t.Fatalf("Geocode() error: %v", err)
	}
	if math.Abs(loc.Latitude-50.8465573) > 1e-9 || math.Abs(loc.Longitude-4.351697) > 1e-9 {
		t.Errorf("Geocode() = %+v", loc)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	g := NewGeocoder(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
	_, err := g.Geocode(context.Background(), "nowhere at all")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("Geocode() error = %v, want ErrNoResults", err)
	}
}

func TestFromBuffer(t *testing.T) {
	// 10 km buffer around the ULB campus reproduces the known WGS84 box
	// (44.84, 3.94, 44.96, 4.09) scaled to Brussels: verify against the
	// metric size instead of hard-coded corners.
	bbox, err := FromBuffer(50.81, 4.38, 10000)
	if err != nil {
		t.Fatalf("FromBuffer() error: %v", err)
	}
	if err := bbox.Validate(); err != nil {
		t.Fatalf("invalid bbox: %v", err)
	}

	if bbox.MinLat >= 50.81 || bbox.MaxLat <= 50.81 {
		t.Errorf("latitude range %f..%f does not contain center", bbox.MinLat, bbox.MaxLat)
	}
	if bbox.MinLon >= 4.38 || bbox.MaxLon <= 4.38 {
		t.Errorf("longitude range %f..%f does not contain center", bbox.MinLon, bbox.MaxLon)
	}

	// North-south extent of a 10 km buffer is 20 km, about 0.18 degrees.
	height := geo.HaversineDistance(bbox.MinLat, 4.38, bbox.MaxLat, 4.38)
	if math.Abs(height-20000) > 200 {
		t.Errorf("north-south extent = %f m, want ~20000", height)
	}
}

func TestFromBufferInvalidInput(t *testing.T) {
	if _, err := FromBuffer(95, 0, 1000); err == nil {
		t.Error("expected error for invalid latitude")
	}
	if _, err := FromBuffer(50, 4, 0); err == nil {
		t.Error("expected error for zero buffer size")
	}
	if _, err := FromBuffer(50, 4, -10); err == nil {
		t.Error("expected error for negative buffer size")
	}
}

func TestFromFileGeoJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "area.geojson")
	content := `{
		"type": "FeatureCollection",
		"features": [
			{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[3.94,44.84]}},
			{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[4.09,44.96]}}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	bbox, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile() error: %v", err)
	}

	want := geo.BoundingBox{MinLat: 44.84, MinLon: 3.94, MaxLat: 44.96, MaxLon: 4.09}
	if bbox != want {
		t.Errorf("FromFile() = %+v, want %+v", bbox, want)
	}
}

func TestFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	// Missing file.
	if _, err := FromFile(filepath.Join(dir, "missing.geojson")); !errors.Is(err, ErrUnreadableFile) {
		t.Errorf("missing file error = %v, want ErrUnreadableFile", err)
	}

	// Unsupported extension.
	if _, err := FromFile(filepath.Join(dir, "area.shp")); !errors.Is(err, ErrUnreadableFile) {
		t.Errorf("unsupported extension error = %v, want ErrUnreadableFile", err)
	}

	// Corrupt GeoJSON.
	path := filepath.Join(dir, "broken.geojson")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(path); !errors.Is(err, ErrUnreadableFile) {
		t.Errorf("corrupt file error = %v, want ErrUnreadableFile", err)
	}
}
