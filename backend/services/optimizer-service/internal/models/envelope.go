package models

// Envelope is the success response and keeps every intermediate artefact of the pipeline.
type Envelope struct {
	Message  string          `json:"message"`
	Stations []Station       `json:"stations"`
	User     Record          `json:"user"`
	Vehicle  Record          `json:"vehicle"`
	Ranking  RankedResult    `json:"ranking"`
	Routes   []RoutedStation `json:"routes"`
}

// ErrorEnvelope is the failure response.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}
