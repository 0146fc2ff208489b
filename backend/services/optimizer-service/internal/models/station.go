package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Connection is one connector of a charging station as reported by OpenChargeMap.
type Connection struct {
	ConnectionTypeID *int     `json:"ConnectionTypeID,omitempty"`
	PowerKW          *float64 `json:"PowerKW"`
	Amps             *float64 `json:"Amps,omitempty"`
	Voltage          *float64 `json:"Voltage,omitempty"`
	Quantity         *int     `json:"Quantity,omitempty"`

	Extra Extra `json:"-"`
}

type connectionFields Connection

// UnmarshalJSON implements json.Unmarshaler.
func (c *Connection) UnmarshalJSON(b []byte) error {
	extra, err := decodeWithExtra(b, (*connectionFields)(c))
	c.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler.
func (c Connection) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(connectionFields(c), c.Extra)
}

// AddressInfo carries the location part of a station record. Distance is expressed in the
// unit requested from the provider (kilometres) and is absent for some records.
type AddressInfo struct {
	Title        string   `json:"Title"`
	AddressLine1 string   `json:"AddressLine1,omitempty"`
	Town         string   `json:"Town,omitempty"`
	Postcode     string   `json:"Postcode,omitempty"`
	Latitude     *float64 `json:"Latitude"`
	Longitude    *float64 `json:"Longitude"`
	Distance     *float64 `json:"Distance"`
	DistanceUnit int      `json:"DistanceUnit,omitempty"`

	Extra Extra `json:"-"`
}

type addressFields AddressInfo

// UnmarshalJSON implements json.Unmarshaler.
func (a *AddressInfo) UnmarshalJSON(b []byte) error {
	extra, err := decodeWithExtra(b, (*addressFields)(a))
	a.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler.
func (a AddressInfo) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(addressFields(a), a.Extra)
}

// Station is a charging location returned by the points-of-interest provider. Members without
// a field (OperatorInfo, StatusType, UsageType, ...) are kept in Extra and encoded back as sent.
type Station struct {
	ID             Identifier   `json:"ID"`
	UUID           string       `json:"UUID,omitempty"`
	AddressInfo    AddressInfo  `json:"AddressInfo"`
	Connections    []Connection `json:"Connections"`
	UsageCost      *string      `json:"UsageCost"`
	NumberOfPoints *int         `json:"NumberOfPoints,omitempty"`

	Extra Extra `json:"-"`
}

type stationFields Station

// UnmarshalJSON implements json.Unmarshaler.
func (s *Station) UnmarshalJSON(b []byte) error {
	extra, err := decodeWithExtra(b, (*stationFields)(s))
	s.Extra = extra
	return err
}

// MarshalJSON implements json.Marshaler.
func (s Station) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(stationFields(s), s.Extra)
}

// Coordinates returns the station position, ok is false when either axis is missing.
func (s Station) Coordinates() (Coordinate, bool) {
	if s.AddressInfo.Latitude == nil || s.AddressInfo.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *s.AddressInfo.Latitude, Longitude: *s.AddressInfo.Longitude}, true
}

// FirstPowerKW returns the rating of the first connection, nil when there is none.
func (s Station) FirstPowerKW() *float64 {
	if len(s.Connections) == 0 {
		return nil
	}
	return s.Connections[0].PowerKW
}

// Metric is a float that encodes non-finite values as JSON null.
type Metric float64

// MarshalJSON implements json.Marshaler.
func (m Metric) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// RankedStation is a station with the metrics attached by the ranking engine.
type RankedStation struct {
	Station
	Score      Metric `json:"score"`
	TotalTimeH Metric `json:"total_time_h"`
	DistanceKm Metric `json:"distance_km"`
	Cost       Metric `json:"usage_cost"`
}

// rankingKeys are the members RankedStation adds to the station record, in metricPtrs order.
var rankingKeys = []string{"score", "total_time_h", "distance_km", "usage_cost"}

func (r *RankedStation) metricPtrs() []*Metric {
	return []*Metric{&r.Score, &r.TotalTimeH, &r.DistanceKm, &r.Cost}
}

// MarshalJSON encodes the raw station with the ranking metrics added alongside.
func (r RankedStation) MarshalJSON() ([]byte, error) {
	extra := make(Extra, len(r.Extra)+len(rankingKeys))
	for k, v := range r.Extra {
		extra[k] = v
	}
	for i, m := range r.metricPtrs() {
		b, err := m.MarshalJSON()
		if err != nil {
			return nil, err
		}
		extra[rankingKeys[i]] = b
	}
	return encodeWithExtra(stationFields(r.Station), extra)
}

// UnmarshalJSON implements json.Unmarshaler. A null metric decodes as +Inf.
func (r *RankedStation) UnmarshalJSON(b []byte) error {
	if err := r.Station.UnmarshalJSON(b); err != nil {
		return err
	}
	for i, dst := range r.metricPtrs() {
		key := rankingKeys[i]
		raw := r.Extra[key]
		delete(r.Extra, key)

		var v *float64
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("ranked station %s: %w", key, err)
			}
		}
		if v == nil {
			*dst = Metric(math.Inf(1))
			continue
		}
		*dst = Metric(*v)
	}
	if len(r.Extra) == 0 {
		r.Extra = nil
	}
	return nil
}

// Summary extracts the metadata merged into routing results.
func (r RankedStation) Summary() StationSummary {
	return StationSummary{
		StationID:  r.ID,
		DistanceKm: r.DistanceKm,
		Score:      r.Score,
		TotalTimeH: r.TotalTimeH,
		UsageCost:  r.Cost,
		PowerKW:    r.FirstPowerKW(),
		Title:      r.AddressInfo.Title,
	}
}

// RankedResult is the ordered shortlist produced by the ranking engine.
type RankedResult struct {
	Stations []RankedStation `json:"stations"`
}
