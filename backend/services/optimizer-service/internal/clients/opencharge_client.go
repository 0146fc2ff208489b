package clients

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
)

// OpenChargeOptions configures the OpenChargeMap query.
type OpenChargeOptions struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	DistanceKm float64
}

// OpenChargeClient fetches charging points from the OpenChargeMap POI API.
type OpenChargeClient struct {
	base    *BaseClient
	opts    OpenChargeOptions
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewOpenChargeClient returns client.
func NewOpenChargeClient(opts OpenChargeOptions, httpClient HTTPDoer, rec *metrics.Recorder, logger *zap.Logger) *OpenChargeClient {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 30
	}
	if opts.DistanceKm <= 0 {
		opts.DistanceKm = 100
	}
	return &OpenChargeClient{
		base:    NewBaseClient(opts.BaseURL, httpClient),
		opts:    opts,
		metrics: rec,
		logger:  componentLogger(logger, SourceOpenCharge),
	}
}

// FetchStationsNear returns up to MaxResults stations within DistanceKm of (lat, lon), distances
// in kilometres.
func (c *OpenChargeClient) FetchStationsNear(ctx context.Context, lat, lon float64) (stations []models.Station, err error) {
	start := time.Now()
	defer func() { observe(c.metrics, SourceOpenCharge, start, err) }()

	query := url.Values{}
	query.Set("output", "json")
	query.Set("latitude", formatFloat(lat))
	query.Set("longitude", formatFloat(lon))
	query.Set("distance", formatFloat(c.opts.DistanceKm))
	query.Set("distanceunit", "km")
	query.Set("maxresults", strconv.Itoa(c.opts.MaxResults))
	query.Set("key", c.opts.APIKey)

	if err = c.base.GetJSON(ctx, SourceOpenCharge, "/poi/", query, nil, &stations); err != nil {
		c.logger.Warn("station lookup failed", zap.Float64("latitude", lat), zap.Float64("longitude", lon), zap.Error(err))
		return nil, err
	}
	c.logger.Debug("stations fetched", zap.Int("count", len(stations)))
	return stations, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
