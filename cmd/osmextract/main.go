// Command osmextract extracts georeferenced features from the OpenStreetMap
// Overpass API and writes them as a GeoJSON FeatureCollection.
//
// The extraction area comes from one of three sources: the bounds of a
// local file (-from-file), a coordinate with a buffer (-latlon -buffer), or
// a geocoded address with a buffer (-address -buffer).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/NERVsystems/osmextract/pkg/config"
	"github.com/NERVsystems/osmextract/pkg/coords"
	"github.com/NERVsystems/osmextract/pkg/geo"
	"github.com/NERVsystems/osmextract/pkg/location"
	"github.com/NERVsystems/osmextract/pkg/overpass"
	"github.com/NERVsystems/osmextract/pkg/water"
)

const version = "0.1.0"

var (
	showVersion bool
	debug       bool
	configPath  string

	fromFile        string
	latlon          string
	address         string
	bufferMeters    float64
	tag             string
	values          string
	caseInsensitive bool
	geom            string

	endpoint       string
	userAgent      string
	timeoutSeconds int

	fetchWater bool
	cleanWater bool
)

func init() {
	flag.BoolVar(&showVersion, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&configPath, "config", "", "Path to an optional YAML config file")

	flag.StringVar(&fromFile, "from-file", "", "Bounding box from input file (.geojson, .json or .pbf)")
	flag.StringVar(&latlon, "latlon", "", "Center coordinates (decimal, DMS, UTM or MGRS)")
	flag.StringVar(&address, "address", "", "Address to geocode as center point")
	flag.Float64Var(&bufferMeters, "buffer", 0, "Buffer size in meters around -latlon or -address")
	flag.StringVar(&tag, "tag", "", `OSM tag of interest (e.g. "highway")`)
	flag.StringVar(&values, "values", "", `Comma-separated tag values (e.g. "primary,secondary")`)
	flag.BoolVar(&caseInsensitive, "case-insensitive", false, "Make the first character of each value case insensitive")
	flag.StringVar(&geom, "geom", "", "Output geometry type: point, linestring, polygon or multipolygon")

	flag.StringVar(&endpoint, "endpoint", "", "Overpass API endpoint (overrides config)")
	flag.StringVar(&userAgent, "user-agent", "", "User-Agent string for API requests (overrides config)")
	flag.IntVar(&timeoutSeconds, "timeout", 0, "Overpass query timeout in seconds (overrides config)")

	flag.BoolVar(&fetchWater, "fetch-water", false, "Download the water polygons bundle and exit")
	flag.BoolVar(&cleanWater, "clean-water", false, "Remove the cached water polygons bundle and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] OUTPUT\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Extract GeoJSON features from OSM with the Overpass API.\n\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("osmextract %s\n", version)
		return
	}

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(context.Background(), logger); err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}
	if timeoutSeconds > 0 {
		cfg.Timeout = timeoutSeconds
	}

	if fetchWater || cleanWater {
		return runWater(ctx, cfg, logger)
	}

	output := flag.Arg(0)
	if output == "" {
		return fmt.Errorf("an output file path must be provided")
	}
	if geom == "" {
		return fmt.Errorf("an output geometry type must be provided (-geom)")
	}
	kind, err := overpass.ParseGeometryKind(geom)
	if err != nil {
		return err
	}
	if tag == "" {
		return fmt.Errorf("an OSM tag must be provided (-tag)")
	}

	bounds, err := resolveBounds(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("resolved extraction bounds", "bbox", bounds.String())

	filter := overpass.TagFilter{
		Key:             tag,
		CaseInsensitive: caseInsensitive,
	}
	if values != "" {
		filter.Values = strings.Split(values, ",")
	}

	query := overpass.BuildQuery(bounds, filter, cfg.Timeout)

	client := overpass.NewClient(
		overpass.WithEndpoint(cfg.Endpoint),
		overpass.WithUserAgent(cfg.UserAgent),
		overpass.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		overpass.WithCacheSize(cfg.CacheSize),
		overpass.WithLogger(logger),
	)

	resp, err := client.Query(ctx, query)
	if err != nil {
		return err
	}

	fc, err := overpass.FeatureCollection(resp, kind)
	if err != nil {
		return err
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to encode feature collection: %w", err)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	logger.Info("wrote feature collection",
		"path", output,
		"features", len(fc.Features),
		"geometry", kind.String(),
	)
	return nil
}

// resolveBounds picks the location source by precedence: file bounds, then
// explicit coordinates, then geocoded address.
func resolveBounds(ctx context.Context, cfg config.Config, logger *slog.Logger) (geo.BoundingBox, error) {
	switch {
	case fromFile != "":
		return location.FromFile(fromFile)

	case latlon != "":
		loc, format, err := coords.Parse(latlon)
		if err != nil {
			return geo.BoundingBox{}, err
		}
		logger.Debug("parsed coordinates", "format", format.String(), "lat", loc.Latitude, "lon", loc.Longitude)
		if bufferMeters <= 0 {
			return geo.BoundingBox{}, fmt.Errorf("a positive -buffer is required with -latlon")
		}
		return location.FromBuffer(loc.Latitude, loc.Longitude, bufferMeters)

	case address != "":
		if bufferMeters <= 0 {
			return geo.BoundingBox{}, fmt.Errorf("a positive -buffer is required with -address")
		}
		geocoder := location.NewGeocoder(
			location.WithUserAgent(cfg.UserAgent),
			location.WithLogger(logger),
		)
		loc, err := geocoder.Geocode(ctx, address)
		if err != nil {
			return geo.BoundingBox{}, err
		}
		return location.FromBuffer(loc.Latitude, loc.Longitude, bufferMeters)

	default:
		return geo.BoundingBox{}, fmt.Errorf("a location must be provided (-from-file, -latlon or -address)")
	}
}

// runWater handles the water polygons cache commands.
func runWater(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := water.NewStore(
		water.WithUserAgent(cfg.UserAgent),
		water.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if cleanWater {
		if err := store.Clean(); err != nil {
			return err
		}
		logger.Info("water polygons cache removed")
		return nil
	}

	if store.IsDownloaded() {
		logger.Info("water polygons already downloaded", "path", store.Path())
		return nil
	}
	return store.Download(ctx)
}
