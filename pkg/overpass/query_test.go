package overpass

import (
	"testing"

	"github.com/NERVsystems/osmextract/pkg/geo"
)

var testBounds = geo.BoundingBox{MinLat: 44.84, MinLon: 3.94, MaxLat: 44.96, MaxLon: 4.09}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter TagFilter
		want   string
	}{
		{
			"no values",
			TagFilter{Key: "highway"},
			`[out:json][timeout:25]; nwr["highway"](44.84,3.94,44.96,4.09); out geom qt;`,
		},
		{
			"single value exact match",
			TagFilter{Key: "highway", Values: []string{"residential"}},
			`[out:json][timeout:25]; nwr["highway"="residential"](44.84,3.94,44.96,4.09); out geom qt;`,
		},
		{
			"multiple values regex",
			TagFilter{Key: "highway", Values: []string{"primary", "secondary", "tertiary"}},
			`[out:json][timeout:25]; nwr["highway"~"primary|secondary|tertiary"](44.84,3.94,44.96,4.09); out geom qt;`,
		},
		{
			"multiple values case insensitive",
			TagFilter{Key: "highway", Values: []string{"primary", "secondary", "tertiary"}, CaseInsensitive: true},
			`[out:json][timeout:25]; nwr["highway"~"[pP]rimary|[sS]econdary|[tT]ertiary"](44.84,3.94,44.96,4.09); out geom qt;`,
		},
		{
			"single value case insensitive uses regex form",
			TagFilter{Key: "highway", Values: []string{"residential"}, CaseInsensitive: true},
			`[out:json][timeout:25]; nwr["highway"~"[rR]esidential"](44.84,3.94,44.96,4.09); out geom qt;`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildQuery(testBounds, tt.filter, DefaultTimeout)
			if got != tt.want {
				t.Errorf("BuildQuery() =\n  %s\nwant:\n  %s", got, tt.want)
			}
		})
	}
}

func TestBuildQueryTimeout(t *testing.T) {
	got := BuildQuery(testBounds, TagFilter{Key: "building"}, 90)
	want := `[out:json][timeout:90]; nwr["building"](44.84,3.94,44.96,4.09); out geom qt;`
	if got != want {
		t.Errorf("BuildQuery() = %s, want %s", got, want)
	}
}

func TestFoldFirstRune(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"residential", "[rR]esidential"},
		{"Residential", "[rR]esidential"},
		{"a", "[aA]"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := foldFirstRune(tt.in); got != tt.want {
			t.Errorf("foldFirstRune(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
