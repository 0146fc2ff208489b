package clients

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
)

// MapboxOptions configures the Mapbox Directions API.
type MapboxOptions struct {
	BaseURL     string
	AccessToken string
	Language    string
}

// MapboxClient computes electric-vehicle driving routes with Mapbox Directions.
type MapboxClient struct {
	base    *BaseClient
	opts    MapboxOptions
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewMapboxClient returns client.
func NewMapboxClient(opts MapboxOptions, httpClient HTTPDoer, rec *metrics.Recorder, logger *zap.Logger) *MapboxClient {
	if opts.Language == "" {
		opts.Language = "pt"
	}
	return &MapboxClient{
		base:    NewBaseClient(opts.BaseURL, httpClient),
		opts:    opts,
		metrics: rec,
		logger:  componentLogger(logger, SourceMapbox),
	}
}

// FetchRoute routes from origin through the stations in order. The vehicle's route battery
// capacity and state of charge become the EV energy constraints of the request.
func (c *MapboxClient) FetchRoute(ctx context.Context, origin models.Coordinate, vehicle models.VehicleProfile, stations []models.RankedStation) (result models.RouteResult, err error) {
	coords, summaries, err := routeStops(stations)
	if err != nil {
		return models.RouteResult{}, err
	}

	start := time.Now()
	defer func() { observe(c.metrics, SourceMapbox, start, err) }()

	maxCharge, initialCharge := evCharge(vehicle)

	query := url.Values{}
	query.Set("alternatives", "false")
	query.Set("geometries", "geojson")
	query.Set("language", c.opts.Language)
	query.Set("overview", "full")
	query.Set("steps", "true")
	query.Set("engine", "electric")
	query.Set("ev_initial_charge", formatFloat(initialCharge))
	query.Set("ev_max_charge", formatFloat(maxCharge))
	query.Set("access_token", c.opts.AccessToken)

	path := "/directions/v5/mapbox/driving/" + waypointPath(origin, coords)

	var directions models.Directions
	if err = c.base.GetJSON(ctx, SourceMapbox, path, query, nil, &directions); err != nil {
		c.logger.Warn("route lookup failed", zap.Int("stops", len(coords)), zap.Error(err))
		return models.RouteResult{}, err
	}
	if directions.Code != "Ok" {
		err = fmt.Errorf("%w: mapbox code %q", ErrRouteNotFound, directions.Code)
		c.logger.Warn("route lookup rejected", zap.String("code", directions.Code))
		return models.RouteResult{}, err
	}

	return models.RouteResult{Directions: &directions, Stations: summaries}, nil
}

// evCharge returns the battery capacity and current charge in watt-hours, rounded to whole Wh.
func evCharge(v models.VehicleProfile) (maxWh, initialWh float64) {
	maxWh = math.Round(v.RouteBatteryKWh * 1000)
	initialWh = math.Round(v.ChargePercent / 100 * maxWh)
	return maxWh, initialWh
}

func waypointPath(origin models.Coordinate, stops []models.Coordinate) string {
	parts := make([]string, 0, len(stops)+1)
	parts = append(parts, lonLat(origin))
	for _, s := range stops {
		parts = append(parts, lonLat(s))
	}
	return strings.Join(parts, ";")
}

func lonLat(c models.Coordinate) string {
	return formatFloat(c.Longitude) + "," + formatFloat(c.Latitude)
}
