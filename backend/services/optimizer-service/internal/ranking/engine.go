package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"chargeroute/backend/services/optimizer-service/internal/models"
)

const (
	// AverageSpeedKmh converts station distance into travel time.
	AverageSpeedKmh = 80.0
	// MaxResults bounds the shortlist.
	MaxResults = 5
	// DefaultDistanceKm stands in for a distance the provider did not report.
	DefaultDistanceKm = 1.0
)

// ErrComputation wraps any failure while scoring; no partial shortlist accompanies it.
var ErrComputation = errors.New("ranking computation failed")

// Engine scores stations against user weights and keeps the best few.
type Engine struct {
	speedKmh float64
	limit    int
	logger   *zap.Logger
}

// NewEngine returns an engine with the fixed speed and shortlist size.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		speedKmh: AverageSpeedKmh,
		limit:    MaxResults,
		logger:   logger.With(zap.String("component", "ranking")),
	}
}

// Rank scores every station and returns at most MaxResults of them, lowest score first. Equal
// scores keep their input order. The input slice is left untouched.
func (e *Engine) Rank(priorities []string, stations []models.Station, vehicle models.VehicleProfile) (result models.RankedResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("ranking panicked", zap.Any("panic", r))
			result = models.RankedResult{}
			err = fmt.Errorf("%w: %v", ErrComputation, r)
		}
	}()

	capacity := vehicle.BatteryKWh
	if math.IsNaN(capacity) || math.IsInf(capacity, 0) || capacity < 0 {
		return models.RankedResult{}, fmt.Errorf("%w: invalid battery capacity %v", ErrComputation, capacity)
	}

	w := DeriveWeights(priorities)
	e.logger.Debug("derived weights",
		zap.Strings("priorities", priorities),
		zap.Float64("time", w.Time),
		zap.Float64("distance", w.Distance),
		zap.Float64("cost", w.Cost),
	)

	ranked := make([]models.RankedStation, 0, len(stations))
	for _, s := range stations {
		ranked = append(ranked, e.evaluate(s, w, capacity))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})
	if len(ranked) > e.limit {
		ranked = ranked[:e.limit]
	}
	return models.RankedResult{Stations: ranked}, nil
}

func (e *Engine) evaluate(s models.Station, w Weights, capacityKWh float64) models.RankedStation {
	distance := StationDistance(s)

	cost := 0.0
	if s.UsageCost != nil {
		parsed := ParseUsageCost(*s.UsageCost)
		switch {
		case errors.Is(parsed.Err, ErrMalformedCost):
			e.logger.Warn("invalid usage cost, using 0",
				zap.String("station_id", s.ID.String()),
				zap.String("usage_cost", *s.UsageCost),
			)
		case parsed.Err == nil:
			cost = parsed.Value
		}
	}

	charging := ChargingHours(capacityKWh, MaxPowerKW(s.Connections))
	total := distance/e.speedKmh + charging

	score := weighted(w.Time, total) + weighted(w.Distance, distance) + weighted(w.Cost, cost)

	return models.RankedStation{
		Station:    s,
		Score:      models.Metric(score),
		TotalTimeH: models.Metric(total),
		DistanceKm: models.Metric(distance),
		Cost:       models.Metric(cost),
	}
}

// weighted drops the term entirely when the criterion carries no weight, so an infinite
// metric cannot turn the score into NaN.
func weighted(weight, value float64) float64 {
	if weight == 0 {
		return 0
	}
	return weight * value
}

// StationDistance returns the provider distance, or DefaultDistanceKm when it is absent,
// negative or not finite.
func StationDistance(s models.Station) float64 {
	d := s.AddressInfo.Distance
	if d == nil || math.IsNaN(*d) || math.IsInf(*d, 0) || *d < 0 {
		return DefaultDistanceKm
	}
	return *d
}

// MaxPowerKW returns the highest connector rating, 0 when no connector reports a positive one.
func MaxPowerKW(conns []models.Connection) float64 {
	max := 0.0
	for _, c := range conns {
		if c.PowerKW != nil && *c.PowerKW > max {
			max = *c.PowerKW
		}
	}
	return max
}

// ChargingHours is the time for a full charge at maxPowerKW; +Inf when the station cannot charge.
func ChargingHours(capacityKWh, maxPowerKW float64) float64 {
	if maxPowerKW <= 0 {
		return math.Inf(1)
	}
	return capacityKWh / maxPowerKW
}
