package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"chargeroute/backend/services/optimizer-service/internal/models"
)

type fakeDirections struct {
	req    *maps.DirectionsRequest
	routes []maps.Route
	err    error
}

func (f *fakeDirections) Directions(_ context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	f.req = r
	return f.routes, nil, f.err
}

func TestGoogleRoutesClientRequestAndConversion(t *testing.T) {
	leg := &maps.Leg{
		Duration:     90 * time.Second,
		StartAddress: "Rua A",
		EndAddress:   "Rua B",
	}
	leg.Distance.Meters = 1200
	step := &maps.Step{
		HTMLInstructions: "Siga na <b>Rua A</b>",
		StartLocation:    maps.LatLng{Lat: -23.55, Lng: -46.63},
		Polyline:         maps.Polyline{Points: "_p~iF~ps|U_ulLnnqC"},
	}
	step.Distance.Meters = 300
	step.Duration = 30 * time.Second
	leg.Steps = []*maps.Step{step, nil}
	api := &fakeDirections{routes: []maps.Route{{
		// (38.5, -120.2), (40.7, -120.95), (43.252, -126.453)
		OverviewPolyline: maps.Polyline{Points: "_p~iF~ps|U_ulLnnqC_mqNvxq`@"},
		Legs:             []*maps.Leg{leg},
	}}}

	c := newGoogleRoutesClient(api, "pt-BR", nil, nil)
	origin := models.Coordinate{Latitude: -23.55, Longitude: -46.63}
	res, err := c.FetchRoute(context.Background(), origin, models.VehicleProfile{}, []models.RankedStation{
		rankedAt(1, -23.5, -46.6),
		rankedAt(2, -23.4, -46.5),
	})
	require.NoError(t, err)

	require.NotNil(t, api.req)
	assert.Equal(t, "-23.55,-46.63", api.req.Origin)
	assert.Equal(t, "-23.4,-46.5", api.req.Destination)
	assert.Equal(t, []string{"-23.5,-46.6"}, api.req.Waypoints)
	assert.Equal(t, maps.TravelModeDriving, api.req.Mode)
	assert.Equal(t, "pt-BR", api.req.Language)

	d := res.Directions
	require.NotNil(t, d)
	assert.Equal(t, "Ok", d.Code)
	require.Len(t, d.Routes, 1)
	assert.Equal(t, 1200.0, d.Routes[0].Distance)
	assert.Equal(t, 90.0, d.Routes[0].Duration)
	assert.Equal(t, "Rua A → Rua B", d.Routes[0].Legs[0].Summary)
	steps := d.Routes[0].Legs[0].Steps
	require.Len(t, steps, 1)
	assert.Equal(t, 300.0, steps[0].Distance)
	assert.Equal(t, 30.0, steps[0].Duration)
	assert.Equal(t, "Siga na <b>Rua A</b>", steps[0].Maneuver.Instruction)
	assert.Empty(t, steps[0].Maneuver.Type)
	assert.Equal(t, []float64{-46.63, -23.55}, steps[0].Maneuver.Location)
	require.NotNil(t, steps[0].Geometry)
	assert.Len(t, steps[0].Geometry.Coordinates, 2)
	require.Len(t, d.Routes[0].Geometry.Coordinates, 3)
	assert.InDelta(t, -120.2, d.Routes[0].Geometry.Coordinates[0][0], 1e-5)
	assert.InDelta(t, 38.5, d.Routes[0].Geometry.Coordinates[0][1], 1e-5)
	assert.Len(t, d.Waypoints, 3)
	assert.Len(t, res.Stations, 2)
}

func TestGoogleRoutesClientErrors(t *testing.T) {
	api := &fakeDirections{err: errors.New("OVER_QUERY_LIMIT")}
	c := newGoogleRoutesClient(api, "", nil, nil)
	_, err := c.FetchRoute(context.Background(), models.Coordinate{}, models.VehicleProfile{}, []models.RankedStation{rankedAt(1, 1, 1)})
	assert.ErrorContains(t, err, "OVER_QUERY_LIMIT")

	api.err = nil
	_, err = c.FetchRoute(context.Background(), models.Coordinate{}, models.VehicleProfile{}, []models.RankedStation{rankedAt(1, 1, 1)})
	assert.ErrorIs(t, err, ErrRouteNotFound)

	_, err = c.FetchRoute(context.Background(), models.Coordinate{}, models.VehicleProfile{}, nil)
	assert.ErrorIs(t, err, ErrNoRoutableStation)
}
