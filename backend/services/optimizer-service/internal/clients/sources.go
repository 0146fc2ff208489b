package clients

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
)

// Source labels used in errors, logs and metrics.
const (
	SourceOpenCharge = "opencharge"
	SourceProfiles   = "profiles"
	SourceMapbox     = "mapbox"
	SourceGoogle     = "google"
)

// StationSource finds charging stations around a coordinate.
type StationSource interface {
	FetchStationsNear(ctx context.Context, lat, lon float64) ([]models.Station, error)
}

// RecordSource looks up one flat record by key.
type RecordSource interface {
	FetchRecord(ctx context.Context, table, id, idColumn string) (models.Record, error)
}

// RouteSource computes a driving route from origin through the given stations.
type RouteSource interface {
	FetchRoute(ctx context.Context, origin models.Coordinate, vehicle models.VehicleProfile, stations []models.RankedStation) (models.RouteResult, error)
}

func observe(rec *metrics.Recorder, source string, start time.Time, err error) {
	rec.ObserveUpstream(source, err, time.Since(start))
}

func componentLogger(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String("component", name))
}
