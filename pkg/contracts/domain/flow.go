package domain

import (
	"time"
)

// FlowRecord is one observed network flow between a client and a server.
// The first six fields are loaded from the input file; the rest are derived
// once by the transformer and never change afterwards.
type FlowRecord struct {
	Client      string `json:"client"`
	Server      string `json:"server"`
	ClientBytes int64  `json:"client_bytes"`
	ServerBytes int64  `json:"server_bytes"`
	Start       string `json:"start"`
	Stop        string `json:"stop"`

	StartTS    NullTime `json:"start_ts"`
	StopTS     NullTime `json:"stop_ts"`
	IsOutside  bool     `json:"is_outside"`
	TotalBytes int64    `json:"total_bytes"`
	Date       string   `json:"date,omitempty"`
}

// NullTime is a timestamp that may be missing. Valid is false when the
// source cell matched none of the accepted layouts.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// Format returns the timestamp in layout, or "" when the value is missing.
func (n NullTime) Format(layout string) string {
	if !n.Valid {
		return ""
	}
	return n.Time.Format(layout)
}

// DateLayout is the layout of FlowRecord.Date.
const DateLayout = "2006-01-02"

// TimestampLayout is the layout used when derived timestamps are exported.
const TimestampLayout = "2006-01-02 15:04:05"
