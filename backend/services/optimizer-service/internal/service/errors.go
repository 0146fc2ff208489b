package service

import (
	"errors"
	"net/http"
)

// CodeNoStations is the numeric code reported with ErrNoStations.
const CodeNoStations = 1001

// Kind classifies an optimize failure.
type Kind string

const (
	KindNoData            Kind = "no_data"
	KindInvalidBody       Kind = "invalid_body"
	KindValidation        Kind = "validation"
	KindNoStations        Kind = "no_stations"
	KindUserFetch         Kind = "user_fetch"
	KindVehicleFetch      Kind = "vehicle_fetch"
	KindPrioritiesMissing Kind = "priorities_missing"
	KindComputation       Kind = "computation"
	KindInternal          Kind = "internal"
)

var (
	ErrNoData            = errors.New("no data sent")
	ErrInvalidBody       = errors.New("invalid request body")
	ErrValidation        = errors.New("missing required parameters")
	ErrNoStations        = errors.New("no stations available for the current settings")
	ErrUserFetch         = errors.New("error fetching user data")
	ErrVehicleFetch      = errors.New("error fetching vehicle data")
	ErrPrioritiesMissing = errors.New("user priority parameters are required")
	ErrComputation       = errors.New("error computing optimized stations")
	ErrInternal          = errors.New("internal error")
)

type classification struct {
	kind   Kind
	status int
	code   int
}

var classes = map[error]classification{
	ErrNoData:            {KindNoData, http.StatusBadRequest, 0},
	ErrInvalidBody:       {KindInvalidBody, http.StatusBadRequest, 0},
	ErrValidation:        {KindValidation, http.StatusBadRequest, 0},
	ErrNoStations:        {KindNoStations, http.StatusBadRequest, CodeNoStations},
	ErrUserFetch:         {KindUserFetch, http.StatusInternalServerError, 0},
	ErrVehicleFetch:      {KindVehicleFetch, http.StatusInternalServerError, 0},
	ErrPrioritiesMissing: {KindPrioritiesMissing, http.StatusBadRequest, 0},
	ErrComputation:       {KindComputation, http.StatusInternalServerError, 0},
	ErrInternal:          {KindInternal, http.StatusInternalServerError, 0},
}

// OptimizeError is the single error type returned by Optimize. errors.Is matches it against
// its sentinel; errors.As reaches the cause through Unwrap.
type OptimizeError struct {
	Kind    Kind
	Code    int
	Status  int
	Message string
	Err     error

	sentinel error
}

// NewError classifies cause under sentinel. Unknown sentinels are treated as ErrInternal.
func NewError(sentinel, cause error) *OptimizeError {
	c, ok := classes[sentinel]
	if !ok {
		sentinel = ErrInternal
		c = classes[ErrInternal]
	}
	return &OptimizeError{
		Kind:     c.kind,
		Code:     c.code,
		Status:   c.status,
		Message:  sentinel.Error(),
		Err:      cause,
		sentinel: sentinel,
	}
}

func (e *OptimizeError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the cause.
func (e *OptimizeError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel e was classified under.
func (e *OptimizeError) Is(target error) bool { return target == e.sentinel }
