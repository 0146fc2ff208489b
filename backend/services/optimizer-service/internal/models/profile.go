package models

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

// Record is a flat row returned by the profile store.
type Record map[string]any

// Profile store columns read by the optimizer.
const (
	FieldPriority1       = "priorizacao_parametro1"
	FieldPriority2       = "priorizacao_parametro2"
	FieldPriority3       = "priorizacao_parametro3"
	FieldBatteryKWh      = "capacidade_bateria"
	FieldRouteBatteryKWh = "veiculo_capacidadebateria"
	FieldChargePercent   = "statusbateriapercentual"
)

// Defaults applied when a vehicle record omits a field.
const (
	DefaultBatteryKWh      = 50.0
	DefaultRouteBatteryKWh = 40.0
	DefaultChargePercent   = 30.0
)

// VehicleProfile holds the battery data used for charging time and route energy constraints.
type VehicleProfile struct {
	// BatteryKWh is the capacity used by the ranking engine.
	BatteryKWh float64
	// RouteBatteryKWh is the capacity sent to the routing engine.
	RouteBatteryKWh float64
	// ChargePercent is the current state of charge, 0..100.
	ChargePercent float64
	// RouteErr is set when a routing field could not be read. Routing for this vehicle
	// fails with it while ranking still runs.
	RouteErr error
}

// VehicleFromRecord reads a vehicle profile, applying defaults for absent fields. Values may be
// numbers or numeric strings. Only an unreadable ranking capacity is an error; unreadable
// routing fields keep their defaults and are reported in RouteErr.
func VehicleFromRecord(rec Record) (VehicleProfile, error) {
	battery, err := floatField(rec, FieldBatteryKWh, DefaultBatteryKWh)
	if err != nil {
		return VehicleProfile{}, err
	}
	v := VehicleProfile{BatteryKWh: battery}

	var routeErrs []error
	v.RouteBatteryKWh, err = floatField(rec, FieldRouteBatteryKWh, DefaultRouteBatteryKWh)
	if err != nil {
		v.RouteBatteryKWh = DefaultRouteBatteryKWh
		routeErrs = append(routeErrs, err)
	}
	v.ChargePercent, err = floatField(rec, FieldChargePercent, DefaultChargePercent)
	if err != nil {
		v.ChargePercent = DefaultChargePercent
		routeErrs = append(routeErrs, err)
	}
	v.RouteErr = errors.Join(routeErrs...)
	return v, nil
}

func floatField(rec Record, key string, def float64) (float64, error) {
	raw, ok := rec[key]
	if !ok || raw == nil {
		return def, nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("vehicle field %s: %w", key, err)
	}
	return v, nil
}

// PrioritiesFromRecord returns the three ranked priority labels of a user profile. complete is
// false when any slot is absent or falsy.
func PrioritiesFromRecord(rec Record) (labels []string, complete bool) {
	keys := []string{FieldPriority1, FieldPriority2, FieldPriority3}
	labels = make([]string, 0, len(keys))
	complete = true
	for _, k := range keys {
		v := rec[k]
		if !truthy(v) {
			complete = false
		}
		labels = append(labels, cast.ToString(v))
	}
	return labels, complete
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return true
		}
		return f != 0
	}
}
