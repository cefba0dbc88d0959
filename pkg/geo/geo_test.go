package geo

import (
	"encoding/json"
	"testing"
)

func TestValidateCoords(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"valid", 44.84, 3.94, false},
		{"equator meridian", 0, 0, false},
		{"poles", 90, 180, false},
		{"latitude too high", 90.1, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 180.5, true},
		{"longitude too low", 0, -181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoords(tt.lat, tt.lon)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoords(%f, %f) error = %v, wantErr %v", tt.lat, tt.lon, err, tt.wantErr)
			}
		})
	}
}

func TestBoundingBoxString(t *testing.T) {
	tests := []struct {
		name string
		bbox BoundingBox
		want string
	}{
		{
			"short decimals",
			BoundingBox{MinLat: 44.84, MinLon: 3.94, MaxLat: 44.96, MaxLon: 4.09},
			"(44.84,3.94,44.96,4.09)",
		},
		{
			"integers",
			BoundingBox{MinLat: -1, MinLon: -2, MaxLat: 1, MaxLon: 2},
			"(-1,-2,1,2)",
		},
		{
			"caller precision preserved",
			BoundingBox{MinLat: 50.123456, MinLon: 4.1, MaxLat: 50.2, MaxLon: 4.25},
			"(50.123456,4.1,50.2,4.25)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bbox.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBoundingBoxValidate(t *testing.T) {
	valid := BoundingBox{MinLat: 44.84, MinLon: 3.94, MaxLat: 44.96, MaxLon: 4.09}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	inverted := BoundingBox{MinLat: 44.96, MinLon: 3.94, MaxLat: 44.84, MaxLon: 4.09}
	if err := inverted.Validate(); err == nil {
		t.Error("Validate() expected error for inverted latitudes")
	}

	outOfRange := BoundingBox{MinLat: -100, MinLon: 0, MaxLat: 0, MaxLon: 1}
	if err := outOfRange.Validate(); err == nil {
		t.Error("Validate() expected error for out-of-range latitude")
	}
}

func TestBoundingBoxExtend(t *testing.T) {
	b := NewBoundingBox()
	b.Extend(44.84, 3.94)
	b.Extend(44.96, 4.09)

	want := BoundingBox{MinLat: 44.84, MinLon: 3.94, MaxLat: 44.96, MaxLon: 4.09}
	if *b != want {
		t.Errorf("Extend result = %+v, want %+v", *b, want)
	}
}

func TestBoundingBoxJSONFieldNames(t *testing.T) {
	b := BoundingBox{MinLat: 1, MinLon: 2, MaxLat: 3, MaxLon: 4}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"minLat":1,"minLon":2,"maxLat":3,"maxLon":4}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}
}

func TestHaversineDistance(t *testing.T) {
	// Paris to Brussels, roughly 264 km.
	d := HaversineDistance(48.8566, 2.3522, 50.8503, 4.3517)
	if d < 250000 || d > 280000 {
		t.Errorf("HaversineDistance = %f, want ~264000", d)
	}

	if d := HaversineDistance(50.85, 4.35, 50.85, 4.35); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}
