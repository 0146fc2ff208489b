package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"chargeroute/backend/services/optimizer-service/internal/models"
)

func ptr[T any](v T) *T { return &v }

func rankedAt(id int64, lat, lon float64) models.RankedStation {
	return models.RankedStation{
		Station: models.Station{
			ID: models.NumericIdentifier(id),
			AddressInfo: models.AddressInfo{
				Title:     "Posto",
				Latitude:  ptr(lat),
				Longitude: ptr(lon),
			},
			Connections: []models.Connection{{PowerKW: ptr(50.0)}},
		},
		Score:      12.5,
		TotalTimeH: 1.2,
		DistanceKm: 3,
		Cost:       1.5,
	}
}

func TestOpenChargeClientQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/poi/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("output"))
		assert.Equal(t, "-23.55", q.Get("latitude"))
		assert.Equal(t, "-46.63", q.Get("longitude"))
		assert.Equal(t, "100", q.Get("distance"))
		assert.Equal(t, "km", q.Get("distanceunit"))
		assert.Equal(t, "30", q.Get("maxresults"))
		assert.Equal(t, "secret", q.Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"ID": 101, "AddressInfo": {"Title": "A", "Latitude": -23.5, "Longitude": -46.6, "Distance": 2.5}, "Connections": [{"PowerKW": 22}], "UsageCost": "R$ 1,50"}]`))
	}))
	defer srv.Close()

	c := NewOpenChargeClient(OpenChargeOptions{BaseURL: srv.URL + "/v3", APIKey: "secret"}, srv.Client(), nil, zaptest.NewLogger(t))
	stations, err := c.FetchStationsNear(context.Background(), -23.55, -46.63)
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "101", stations[0].ID.String())
	assert.Equal(t, 2.5, *stations[0].AddressInfo.Distance)
	assert.Equal(t, "R$ 1,50", *stations[0].UsageCost)
}

func TestOpenChargeClientErrors(t *testing.T) {
	status := http.StatusForbidden
	body := `{"error":"bad key"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewOpenChargeClient(OpenChargeOptions{BaseURL: srv.URL, APIKey: "x"}, srv.Client(), nil, nil)

	_, err := c.FetchStationsNear(context.Background(), 1, 2)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
	assert.Equal(t, SourceOpenCharge, statusErr.Source)

	status = http.StatusOK
	_, err = c.FetchStationsNear(context.Background(), 1, 2)
	assert.ErrorContains(t, err, "decode response")
}

func TestOpenChargeClientTimeoutDoesNotLeakKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewOpenChargeClient(OpenChargeOptions{BaseURL: srv.URL, APIKey: "topsecret"}, NewDefaultHTTPClient(20*time.Millisecond), nil, nil)
	_, err := c.FetchStationsNear(context.Background(), 1, 2)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "topsecret")
}

func TestProfilesClientRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/veiculos_detalhes_completos", r.URL.Path)
		assert.Equal(t, "eq.7", r.URL.Query().Get("veiculo_id"))
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "0-9", r.Header.Get("Range"))
		_, _ = w.Write([]byte(`[{"veiculo_id": 7, "capacidade_bateria": 62.5}, {"veiculo_id": 8}]`))
	}))
	defer srv.Close()

	c := NewProfilesClient(ProfilesOptions{BaseURL: srv.URL + "/rest/v1", APIKey: "anon", AuthToken: "tok"}, srv.Client(), nil, zaptest.NewLogger(t))
	rec, err := c.FetchRecord(context.Background(), "veiculos_detalhes_completos", "7", "veiculo_id")
	require.NoError(t, err)

	vehicle, err := models.VehicleFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, 62.5, vehicle.BatteryKWh)
}

func TestProfilesClientEmptyAndFailure(t *testing.T) {
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewProfilesClient(ProfilesOptions{BaseURL: srv.URL}, srv.Client(), nil, nil)
	rec, err := c.FetchRecord(context.Background(), "users", "1", "id")
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Empty(t, rec)

	fail = true
	_, err = c.FetchRecord(context.Background(), "users", "1", "id")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
}

func TestMapboxClientRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/v5/mapbox/driving/-46.63,-23.55;-46.6,-23.5", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "electric", q.Get("engine"))
		assert.Equal(t, "60000", q.Get("ev_max_charge"))
		assert.Equal(t, "45000", q.Get("ev_initial_charge"))
		assert.Equal(t, "pt", q.Get("language"))
		assert.Equal(t, "geojson", q.Get("geometries"))
		assert.Equal(t, "full", q.Get("overview"))
		assert.Equal(t, "true", q.Get("steps"))
		assert.Equal(t, "false", q.Get("alternatives"))
		assert.Equal(t, "pk.token", q.Get("access_token"))
		_, _ = w.Write([]byte(`{"code": "Ok", "routes": [{"distance": 5400, "duration": 600, "geometry": {"type": "LineString", "coordinates": [[-46.63, -23.55], [-46.6, -23.5]]}, "legs": []}], "waypoints": []}`))
	}))
	defer srv.Close()

	c := NewMapboxClient(MapboxOptions{BaseURL: srv.URL, AccessToken: "pk.token"}, srv.Client(), nil, zaptest.NewLogger(t))
	vehicle := models.VehicleProfile{RouteBatteryKWh: 60, ChargePercent: 75}
	res, err := c.FetchRoute(context.Background(), models.Coordinate{Latitude: -23.55, Longitude: -46.63}, vehicle, []models.RankedStation{rankedAt(9, -23.5, -46.6)})
	require.NoError(t, err)
	require.NotNil(t, res.Directions)
	assert.Equal(t, 5400.0, res.Directions.Routes[0].Distance)
	require.Len(t, res.Stations, 1)
	assert.Equal(t, "9", res.Stations[0].StationID.String())
	assert.Equal(t, 50.0, *res.Stations[0].PowerKW)
	assert.Equal(t, models.Metric(12.5), res.Stations[0].Score)
}

func TestMapboxClientRejectsNonOkCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer srv.Close()

	c := NewMapboxClient(MapboxOptions{BaseURL: srv.URL}, srv.Client(), nil, nil)
	_, err := c.FetchRoute(context.Background(), models.Coordinate{}, models.VehicleProfile{}, []models.RankedStation{rankedAt(1, 1, 1)})
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestMapboxClientSkipsStationsWithoutCoordinates(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := NewMapboxClient(MapboxOptions{BaseURL: srv.URL}, srv.Client(), nil, nil)
	noCoords := models.RankedStation{Station: models.Station{ID: models.NumericIdentifier(3)}}
	_, err := c.FetchRoute(context.Background(), models.Coordinate{}, models.VehicleProfile{}, []models.RankedStation{noCoords})
	assert.ErrorIs(t, err, ErrNoRoutableStation)
	assert.Zero(t, calls)
}

func TestRouteStopsCapsDestinations(t *testing.T) {
	stations := make([]models.RankedStation, 0, 30)
	for i := int64(0); i < 30; i++ {
		stations = append(stations, rankedAt(i, float64(i), float64(i)))
	}
	coords, summaries, err := routeStops(stations)
	require.NoError(t, err)
	assert.Len(t, coords, MaxRouteStations)
	assert.Len(t, summaries, MaxRouteStations)
}

func TestEVChargeDefaults(t *testing.T) {
	maxWh, initialWh := evCharge(models.VehicleProfile{RouteBatteryKWh: models.DefaultRouteBatteryKWh, ChargePercent: models.DefaultChargePercent})
	assert.Equal(t, 40000.0, maxWh)
	assert.Equal(t, 12000.0, initialWh)
}

func TestRedactDropsURL(t *testing.T) {
	err := redact(&urlErr)
	assert.NotContains(t, err.Error(), "key=abc")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

var urlErr = url.Error{Op: "Get", URL: "https://api.example.com/poi/?key=abc", Err: context.DeadlineExceeded}
