package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"chargeroute/backend/services/optimizer-service/internal/clients"
	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
)

// Cache names used in metrics and logs.
const (
	NameStations = "stations"
	NameRecords  = "records"
)

// CachedStations serves repeated station lookups for the same area from a Store.
type CachedStations struct {
	next    clients.StationSource
	store   Store
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewCachedStations wraps next.
func NewCachedStations(next clients.StationSource, store Store, rec *metrics.Recorder, logger *zap.Logger) *CachedStations {
	return &CachedStations{next: next, store: store, metrics: rec, logger: named(logger, NameStations)}
}

// StationsKey rounds the coordinate to four decimals, roughly ten metres.
func StationsKey(lat, lon float64) string {
	return fmt.Sprintf("stations:%.4f:%.4f", lat, lon)
}

// FetchStationsNear implements clients.StationSource.
func (c *CachedStations) FetchStationsNear(ctx context.Context, lat, lon float64) ([]models.Station, error) {
	key := StationsKey(lat, lon)
	var cached []models.Station
	if lookup(ctx, c.store, key, &cached, c.logger) {
		c.metrics.ObserveCache(NameStations, true)
		return cached, nil
	}
	c.metrics.ObserveCache(NameStations, false)

	stations, err := c.next.FetchStationsNear(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if len(stations) > 0 {
		store(ctx, c.store, key, stations, c.logger)
	}
	return stations, nil
}

// CachedRecords serves repeated profile lookups from a Store. Only non-empty records are kept.
type CachedRecords struct {
	next    clients.RecordSource
	store   Store
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewCachedRecords wraps next.
func NewCachedRecords(next clients.RecordSource, store Store, rec *metrics.Recorder, logger *zap.Logger) *CachedRecords {
	return &CachedRecords{next: next, store: store, metrics: rec, logger: named(logger, NameRecords)}
}

// RecordsKey identifies one keyed lookup.
func RecordsKey(table, id, idColumn string) string {
	return fmt.Sprintf("records:%s:%s:%s", table, idColumn, id)
}

// FetchRecord implements clients.RecordSource.
func (c *CachedRecords) FetchRecord(ctx context.Context, table, id, idColumn string) (models.Record, error) {
	key := RecordsKey(table, id, idColumn)
	var cached models.Record
	if lookup(ctx, c.store, key, &cached, c.logger) {
		c.metrics.ObserveCache(NameRecords, true)
		return cached, nil
	}
	c.metrics.ObserveCache(NameRecords, false)

	rec, err := c.next.FetchRecord(ctx, table, id, idColumn)
	if err != nil {
		return nil, err
	}
	// no matching row yet; the next lookup asks the source again
	if len(rec) > 0 {
		store(ctx, c.store, key, rec, c.logger)
	}
	return rec, nil
}

// lookup reports a hit only when the entry exists and decodes; store failures count as misses.
func lookup(ctx context.Context, s Store, key string, out any, logger *zap.Logger) bool {
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		logger.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func store(ctx context.Context, s Store, key string, v any, logger *zap.Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.Set(ctx, key, data); err != nil {
		logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func named(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(zap.String("component", "cache"), zap.String("cache", name))
}
