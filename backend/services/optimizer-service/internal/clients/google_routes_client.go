package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
)

// GoogleRoutesOptions configures the Google Directions back end.
type GoogleRoutesOptions struct {
	APIKey   string
	Language string
}

type directionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// GoogleRoutesClient computes driving routes with the Google Directions API. The vehicle profile
// is not used since Directions has no EV energy model.
type GoogleRoutesClient struct {
	api      directionsAPI
	language string
	metrics  *metrics.Recorder
	logger   *zap.Logger
}

// NewGoogleRoutesClient returns client.
func NewGoogleRoutesClient(opts GoogleRoutesOptions, httpClient *http.Client, rec *metrics.Recorder, logger *zap.Logger) (*GoogleRoutesClient, error) {
	api, err := maps.NewClient(maps.WithAPIKey(opts.APIKey), maps.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return newGoogleRoutesClient(api, opts.Language, rec, logger), nil
}

func newGoogleRoutesClient(api directionsAPI, language string, rec *metrics.Recorder, logger *zap.Logger) *GoogleRoutesClient {
	return &GoogleRoutesClient{
		api:      api,
		language: language,
		metrics:  rec,
		logger:   componentLogger(logger, SourceGoogle),
	}
}

// FetchRoute routes from origin through every station but the last, which is the destination.
func (c *GoogleRoutesClient) FetchRoute(ctx context.Context, origin models.Coordinate, _ models.VehicleProfile, stations []models.RankedStation) (result models.RouteResult, err error) {
	coords, summaries, err := routeStops(stations)
	if err != nil {
		return models.RouteResult{}, err
	}

	start := time.Now()
	defer func() { observe(c.metrics, SourceGoogle, start, err) }()

	req := &maps.DirectionsRequest{
		Origin:      latLng(origin),
		Destination: latLng(coords[len(coords)-1]),
		Mode:        maps.TravelModeDriving,
		Language:    c.language,
	}
	for _, s := range coords[:len(coords)-1] {
		req.Waypoints = append(req.Waypoints, latLng(s))
	}

	routes, _, err := c.api.Directions(ctx, req)
	if err != nil {
		c.logger.Warn("route lookup failed", zap.Int("stops", len(coords)), zap.Error(err))
		return models.RouteResult{}, fmt.Errorf("%s: directions: %w", SourceGoogle, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		err = fmt.Errorf("%w: google returned no legs", ErrRouteNotFound)
		return models.RouteResult{}, err
	}

	directions := toDirections(routes[0], origin, coords)
	return models.RouteResult{Directions: &directions, Stations: summaries}, nil
}

func toDirections(r maps.Route, origin models.Coordinate, stops []models.Coordinate) models.Directions {
	route := models.Route{
		Geometry: lineString(r.OverviewPolyline),
		Legs:     make([]models.Leg, 0, len(r.Legs)),
	}
	for _, leg := range r.Legs {
		if leg == nil {
			continue
		}
		out := models.Leg{
			Summary:  legSummary(leg),
			Distance: float64(leg.Distance.Meters),
			Duration: leg.Duration.Seconds(),
			Steps:    make([]models.Step, 0, len(leg.Steps)),
		}
		for _, step := range leg.Steps {
			if step == nil {
				continue
			}
			geom := lineString(step.Polyline)
			out.Steps = append(out.Steps, models.Step{
				Distance: float64(step.Distance.Meters),
				Duration: step.Duration.Seconds(),
				// Directions steps carry no maneuver type, only the HTML instruction.
				Maneuver: models.Maneuver{
					Instruction: step.HTMLInstructions,
					Location:    []float64{step.StartLocation.Lng, step.StartLocation.Lat},
				},
				Geometry: &geom,
			})
		}
		route.Distance += out.Distance
		route.Duration += out.Duration
		route.Legs = append(route.Legs, out)
	}

	waypoints := make([]models.Waypoint, 0, len(stops)+1)
	waypoints = append(waypoints, models.Waypoint{Location: []float64{origin.Longitude, origin.Latitude}})
	for _, s := range stops {
		waypoints = append(waypoints, models.Waypoint{Location: []float64{s.Longitude, s.Latitude}})
	}

	return models.Directions{Code: "Ok", Routes: []models.Route{route}, Waypoints: waypoints}
}

// lineString decodes an encoded polyline into a GeoJSON LineString; an undecodable polyline
// yields an empty one.
func lineString(p maps.Polyline) models.Geometry {
	geom := models.Geometry{Type: "LineString", Coordinates: [][]float64{}}
	points, err := p.Decode()
	if err != nil {
		return geom
	}
	for _, pt := range points {
		geom.Coordinates = append(geom.Coordinates, []float64{pt.Lng, pt.Lat})
	}
	return geom
}

func legSummary(leg *maps.Leg) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{leg.StartAddress, leg.EndAddress} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " → ")
}

func latLng(c models.Coordinate) string {
	return formatFloat(c.Latitude) + "," + formatFloat(c.Longitude)
}
