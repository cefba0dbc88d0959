// Package overpass builds Overpass QL queries, dispatches them to the
// Overpass API and converts the JSON responses to GeoJSON feature
// collections.
package overpass

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/NERVsystems/osmextract/pkg/geo"
)

// DefaultTimeout is the default server-side query timeout in seconds.
const DefaultTimeout = 25

// TagFilter selects OSM elements by tag. With no values it matches any
// element carrying the tag; with a single case-sensitive value it is an
// exact match; otherwise it becomes a regex alternation over the values.
type TagFilter struct {
	Key             string
	Values          []string
	CaseInsensitive bool
}

// clause renders the tag filter as an Overpass QL filter clause.
func (f TagFilter) clause() string {
	if len(f.Values) == 0 {
		return fmt.Sprintf(`["%s"]`, f.Key)
	}
	if len(f.Values) == 1 && !f.CaseInsensitive {
		return fmt.Sprintf(`["%s"="%s"]`, f.Key, f.Values[0])
	}

	values := f.Values
	if f.CaseInsensitive {
		values = make([]string, len(f.Values))
		for i, v := range f.Values {
			values[i] = foldFirstRune(v)
		}
	}
	return fmt.Sprintf(`["%s"~"%s"]`, f.Key, strings.Join(values, "|"))
}

// foldFirstRune replaces the first rune of a value by a bracket class
// containing its lowercase and uppercase forms, e.g. "Residential" becomes
// "[rR]esidential". Only the first rune is folded; case variance deeper in
// the value is a known limitation.
func foldFirstRune(value string) string {
	runes := []rune(value)
	if len(runes) == 0 {
		return value
	}
	first := runes[0]
	return fmt.Sprintf("[%c%c]%s", unicode.ToLower(first), unicode.ToUpper(first), string(runes[1:]))
}

// BuildQuery composes an Overpass QL query selecting nodes, ways and
// relations matching the tag filter inside the bounding box. The output
// statement requests inline geometry (out geom) so ways and relations carry
// their vertex coordinates, and quadtile ordering (qt) for stable results.
//
// The query grammar consumed by the Overpass API is exact: structure,
// spacing and statement terminators must not change. Tag keys and values are
// not escaped or validated; values containing double quotes produce invalid
// queries.
func BuildQuery(bbox geo.BoundingBox, filter TagFilter, timeoutSeconds int) string {
	return fmt.Sprintf("[out:json][timeout:%d]; nwr%s%s; out geom qt;",
		timeoutSeconds, filter.clause(), bbox)
}
