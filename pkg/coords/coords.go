// Package coords parses point coordinates in common formats and converts
// between WGS84 decimal degrees and UTM.
//
// Supported input formats:
//   - Decimal degrees: "44.84, 3.94"
//   - DMS: 44°50'24"N 3°56'24"E
//   - UTM: "31N 587227 5619604"
//   - MGRS: "31TFK8722719604"
package coords

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/NERVsystems/osmextract/pkg/geo"
	"github.com/akhenakh/mgrs"
)

// Format represents a detected coordinate format.
type Format int

const (
	FormatUnknown Format = iota
	FormatDecimal
	FormatDMS
	FormatMGRS
	FormatUTM
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatDecimal:
		return "decimal"
	case FormatDMS:
		return "dms"
	case FormatMGRS:
		return "mgrs"
	case FormatUTM:
		return "utm"
	default:
		return "unknown"
	}
}

var (
	// MGRS: zone (1-60) + latitude band + 100km square ID + even digit count.
	mgrsRegex = regexp.MustCompile(`(?i)^(\d{1,2})([C-HJ-NP-X])([A-HJ-NP-Z]{2})(\d{2,10})$`)

	// UTM: zone + band letter + easting + northing.
	utmRegex = regexp.MustCompile(`(?i)^(\d{1,2})([A-Z])\s+(\d+(?:\.\d+)?)\s+(\d+(?:\.\d+)?)$`)

	// DMS with hemisphere letters.
	dmsRegex = regexp.MustCompile(`(?i)^(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([NS])[\s,]+(\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([EW])$`)

	// Decimal degrees, comma or space separated.
	decimalRegex = regexp.MustCompile(`^(-?\d+\.?\d*)[,\s]+(-?\d+\.?\d*)$`)
)

// Parse detects the coordinate format of the input and converts it to
// decimal degrees. Formats are tried from most to least specific.
func Parse(input string) (geo.Location, Format, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return geo.Location{}, FormatUnknown, fmt.Errorf("empty coordinate string")
	}

	if loc, err := parseMGRS(input); err == nil {
		return loc, FormatMGRS, nil
	}
	if loc, err := parseUTM(input); err == nil {
		return loc, FormatUTM, nil
	}
	if loc, err := parseDMS(input); err == nil {
		return loc, FormatDMS, nil
	}
	if loc, err := parseDecimal(input); err == nil {
		return loc, FormatDecimal, nil
	}

	return geo.Location{}, FormatUnknown, fmt.Errorf("unrecognized coordinate format: %q", input)
}

func parseMGRS(input string) (geo.Location, error) {
	input = strings.ToUpper(strings.TrimSpace(input))
	if !mgrsRegex.MatchString(input) {
		return geo.Location{}, fmt.Errorf("invalid MGRS format: %q", input)
	}

	lat, lon, err := mgrs.MGRSToLatLng(input)
	if err != nil {
		return geo.Location{}, fmt.Errorf("MGRS conversion failed: %w", err)
	}
	loc := geo.Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return geo.Location{}, fmt.Errorf("MGRS conversion out of range: %w", err)
	}
	return loc, nil
}

func parseUTM(input string) (geo.Location, error) {
	matches := utmRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(input)))
	if matches == nil {
		return geo.Location{}, fmt.Errorf("invalid UTM format: %q", input)
	}

	zone, err := strconv.Atoi(matches[1])
	if err != nil || zone < 1 || zone > 60 {
		return geo.Location{}, fmt.Errorf("invalid UTM zone: %s", matches[1])
	}
	easting, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("invalid UTM easting: %s", matches[3])
	}
	northing, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("invalid UTM northing: %s", matches[4])
	}

	// Bands C-M are the southern hemisphere, N-X the northern.
	northern := matches[2][0] >= 'N'

	lat, lon := UTMToLatLon(zone, easting, northing, northern)
	loc := geo.Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return geo.Location{}, fmt.Errorf("UTM conversion out of range: %w", err)
	}
	return loc, nil
}

func parseDMS(input string) (geo.Location, error) {
	matches := dmsRegex.FindStringSubmatch(strings.TrimSpace(input))
	if matches == nil {
		return geo.Location{}, fmt.Errorf("invalid DMS format: %q", input)
	}

	latDeg, _ := strconv.ParseFloat(matches[1], 64)
	latMin, _ := strconv.ParseFloat(matches[2], 64)
	latSec, _ := strconv.ParseFloat(matches[3], 64)
	lonDeg, _ := strconv.ParseFloat(matches[5], 64)
	lonMin, _ := strconv.ParseFloat(matches[6], 64)
	lonSec, _ := strconv.ParseFloat(matches[7], 64)

	if latDeg > 90 || latMin >= 60 || latSec >= 60 {
		return geo.Location{}, fmt.Errorf("invalid latitude values: %s", input)
	}
	if lonDeg > 180 || lonMin >= 60 || lonSec >= 60 {
		return geo.Location{}, fmt.Errorf("invalid longitude values: %s", input)
	}

	lat := latDeg + latMin/60 + latSec/3600
	lon := lonDeg + lonMin/60 + lonSec/3600
	if strings.EqualFold(matches[4], "S") {
		lat = -lat
	}
	if strings.EqualFold(matches[8], "W") {
		lon = -lon
	}

	return geo.Location{Latitude: lat, Longitude: lon}, nil
}

func parseDecimal(input string) (geo.Location, error) {
	matches := decimalRegex.FindStringSubmatch(strings.TrimSpace(input))
	if matches == nil {
		return geo.Location{}, fmt.Errorf("invalid decimal format: %q", input)
	}

	lat, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("invalid latitude: %s", matches[1])
	}
	lon, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("invalid longitude: %s", matches[2])
	}

	loc := geo.Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return geo.Location{}, err
	}
	return loc, nil
}

// WGS84 ellipsoid parameters shared by the UTM transforms.
const (
	wgs84A = 6378137.0         // semi-major axis (meters)
	wgs84F = 1 / 298.257223563 // flattening
	utmK0  = 0.9996            // scale factor
)

// UTMZone returns the UTM longitudinal zone (1-60) for a longitude.
func UTMZone(lon float64) int {
	return int(math.Floor((lon+180)/6))%60 + 1
}

// LatLonToUTM converts a WGS84 coordinate to UTM easting/northing within the
// point's own zone, using the standard transverse Mercator series.
func LatLonToUTM(lat, lon float64) (zone int, easting, northing float64, northern bool) {
	zone = UTMZone(lon)
	northern = lat >= 0

	b := wgs84A * (1 - wgs84F)
	e2 := (wgs84A*wgs84A - b*b) / (wgs84A * wgs84A)
	ep2 := (wgs84A*wgs84A - b*b) / (b * b)

	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	lambda0 := float64((zone-1)*6-180+3) * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := wgs84A / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * (lambda - lambda0)

	// Meridional arc length
	m := wgs84A * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))

	easting = utmK0*n*(a+(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120) + 500000.0

	northing = utmK0 * (m + n*tanPhi*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))
	if !northern {
		northing += 10000000.0
	}

	return zone, easting, northing, northern
}

// UTMToLatLon converts UTM coordinates to WGS84 decimal degrees using the
// standard inverse series.
func UTMToLatLon(zone int, easting, northing float64, northern bool) (lat, lon float64) {
	b := wgs84A * (1 - wgs84F)
	e2 := (wgs84A*wgs84A - b*b) / (wgs84A * wgs84A)
	ep2 := (wgs84A*wgs84A - b*b) / (b * b)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	x := easting - 500000.0
	y := northing
	if !northern {
		y -= 10000000.0
	}

	lon0 := float64((zone-1)*6-180+3) * math.Pi / 180

	// Footpoint latitude
	m := y / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	n1 := wgs84A / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	t1 := tanPhi1 * tanPhi1
	c1 := ep2 * cosPhi1 * cosPhi1
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * utmK0)

	lat = phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)

	lon = lon0 + (d-
		(1+2*t1+c1)*d*d*d/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120)/cosPhi1

	return lat * 180 / math.Pi, lon * 180 / math.Pi
}
