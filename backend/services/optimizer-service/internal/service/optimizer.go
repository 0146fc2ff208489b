package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chargeroute/backend/services/optimizer-service/internal/clients"
	"chargeroute/backend/services/optimizer-service/internal/metrics"
	"chargeroute/backend/services/optimizer-service/internal/models"
	"chargeroute/backend/services/optimizer-service/internal/ranking"
)

// SuccessMessage is set on every successful envelope.
const SuccessMessage = "Nearby stations found and routes optimized successfully."

const defaultRouteConcurrency = 5

// Tables names where user and vehicle records live.
type Tables struct {
	Users           string
	UserIDColumn    string
	Vehicles        string
	VehicleIDColumn string
}

// DefaultTables matches the profile store schema.
func DefaultTables() Tables {
	return Tables{
		Users:           "users",
		UserIDColumn:    "id",
		Vehicles:        "veiculos_detalhes_completos",
		VehicleIDColumn: "veiculo_id",
	}
}

// Options tunes the pipeline.
type Options struct {
	Tables           Tables
	RouteConcurrency int
}

// Ranker orders stations for a user; *ranking.Engine implements it.
type Ranker interface {
	Rank(priorities []string, stations []models.Station, vehicle models.VehicleProfile) (models.RankedResult, error)
}

// Optimizer runs lookup, ranking and routing for one request.
type Optimizer struct {
	stations clients.StationSource
	records  clients.RecordSource
	routes   clients.RouteSource
	ranker   Ranker
	opts     Options
	metrics  *metrics.Recorder
	logger   *zap.Logger
}

// NewOptimizer wires the pipeline. A nil ranker gets the default engine.
func NewOptimizer(stations clients.StationSource, records clients.RecordSource, routes clients.RouteSource, ranker Ranker, opts Options, rec *metrics.Recorder, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ranker == nil {
		ranker = ranking.NewEngine(logger)
	}
	if opts.Tables == (Tables{}) {
		opts.Tables = DefaultTables()
	}
	if opts.RouteConcurrency <= 0 {
		opts.RouteConcurrency = defaultRouteConcurrency
	}
	return &Optimizer{
		stations: stations,
		records:  records,
		routes:   routes,
		ranker:   ranker,
		opts:     opts,
		metrics:  rec,
		logger:   logger.With(zap.String("component", "optimizer")),
	}
}

type lookups struct {
	stations    []models.Station
	stationsErr error
	user        models.Record
	userErr     error
	vehicle     models.Record
	vehicleErr  error
}

// Optimize validates req, fetches stations and both profiles concurrently, ranks the stations
// and routes to each shortlisted one. Every failure is an *OptimizeError.
func (o *Optimizer) Optimize(ctx context.Context, req OptimizeRequest) (env *models.Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("optimize panicked", zap.Any("panic", r))
			env = nil
			err = NewError(ErrInternal, fmt.Errorf("panic: %v", r))
		}
		o.metrics.ObserveRequest(kindOf(err))
	}()

	if verr := Validate(req); verr != nil {
		return nil, o.fail(NewError(ErrValidation, verr))
	}

	lat, lon := *req.Latitude, *req.Longitude
	userID, vehicleID := req.UserID.String(), req.VehicleID.String()

	res := o.fetchAll(ctx, lat, lon, userID, vehicleID)

	if res.stationsErr != nil {
		return nil, o.fail(NewError(ErrNoStations, res.stationsErr))
	}
	if len(res.stations) == 0 {
		return nil, o.fail(NewError(ErrNoStations, nil))
	}
	if res.userErr != nil {
		return nil, o.fail(NewError(ErrUserFetch, res.userErr))
	}
	if res.vehicleErr != nil {
		return nil, o.fail(NewError(ErrVehicleFetch, res.vehicleErr))
	}

	priorities, complete := models.PrioritiesFromRecord(res.user)
	if !complete {
		return nil, o.fail(NewError(ErrPrioritiesMissing, nil))
	}

	vehicle, err := models.VehicleFromRecord(res.vehicle)
	if err != nil {
		return nil, o.fail(NewError(ErrComputation, err))
	}

	ranked, err := o.ranker.Rank(priorities, res.stations, vehicle)
	if err != nil {
		return nil, o.fail(NewError(ErrComputation, err))
	}

	origin := models.Coordinate{Latitude: lat, Longitude: lon}
	routed := o.routeAll(ctx, origin, vehicle, ranked.Stations)

	return &models.Envelope{
		Message:  SuccessMessage,
		Stations: res.stations,
		User:     res.user,
		Vehicle:  res.vehicle,
		Ranking:  ranked,
		Routes:   routed,
	}, nil
}

// fetchAll waits for all three lookups; one failing does not cancel the others.
func (o *Optimizer) fetchAll(ctx context.Context, lat, lon float64, userID, vehicleID string) lookups {
	var (
		res lookups
		g   errgroup.Group
	)
	g.Go(func() error {
		res.stationsErr = guard(func() (err error) {
			res.stations, err = o.stations.FetchStationsNear(ctx, lat, lon)
			return err
		})
		return nil
	})
	g.Go(func() error {
		res.userErr = guard(func() (err error) {
			res.user, err = o.records.FetchRecord(ctx, o.opts.Tables.Users, userID, o.opts.Tables.UserIDColumn)
			return err
		})
		return nil
	})
	g.Go(func() error {
		res.vehicleErr = guard(func() (err error) {
			res.vehicle, err = o.records.FetchRecord(ctx, o.opts.Tables.Vehicles, vehicleID, o.opts.Tables.VehicleIDColumn)
			return err
		})
		return nil
	})
	_ = g.Wait()

	if res.user == nil && res.userErr == nil {
		res.user = models.Record{}
	}
	if res.vehicle == nil && res.vehicleErr == nil {
		res.vehicle = models.Record{}
	}
	return res
}

// routeAll requests one route per shortlisted station. Results keep rank order; a failed call,
// or a vehicle whose routing fields are unreadable, leaves an entry with the station metadata
// and the error text.
func (o *Optimizer) routeAll(ctx context.Context, origin models.Coordinate, vehicle models.VehicleProfile, stations []models.RankedStation) []models.RoutedStation {
	routed := make([]models.RoutedStation, len(stations))

	var g errgroup.Group
	g.SetLimit(o.opts.RouteConcurrency)
	for i, s := range stations {
		g.Go(func() error {
			entry := models.RoutedStation{StationSummary: s.Summary()}
			var res models.RouteResult
			err := vehicle.RouteErr
			if err == nil {
				err = guard(func() (err error) {
					res, err = o.routes.FetchRoute(ctx, origin, vehicle, []models.RankedStation{s})
					return err
				})
			}
			if err != nil {
				o.logger.Warn("route failed", zap.String("station_id", s.ID.String()), zap.Error(err))
				entry.Error = err.Error()
			} else {
				entry.Route = res.Directions
				if len(res.Stations) > 0 {
					entry.StationSummary = res.Stations[0]
				}
			}
			routed[i] = entry
			return nil
		})
	}
	_ = g.Wait()
	return routed
}

func (o *Optimizer) fail(e *OptimizeError) *OptimizeError {
	o.logger.Error("optimize failed", zap.String("kind", string(e.Kind)), zap.Error(e))
	return e
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
	}()
	return fn()
}

func kindOf(err error) string {
	if err == nil {
		return ""
	}
	var oe *OptimizeError
	if errors.As(err, &oe) {
		return string(oe.Kind)
	}
	return string(KindInternal)
}
