// Package series holds the database, series and data point model of the
// time-series API, plus the timestamp formats it speaks.
package series

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Database is the credential pair returned when a database is created
type Database struct {
	Key    string `json:"id"`
	Secret string `json:"password"`
}

// Series describes a stored series
type Series struct {
	ID         string            `json:"id"`
	Key        string            `json:"key"`
	Attributes map[string]string `json:"attributes"`
	Tags       []string          `json:"tags"`
}

// DataPoint is one timestamped value. Value is nil when the API
// reports no value for the timestamp.
type DataPoint struct {
	TS    time.Time `json:"t"`
	Value *float64  `json:"v"`
}

// UnmarshalJSON accepts every timestamp layout understood by ParseTime
func (dp *DataPoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		T string   `json:"t"`
		V *float64 `json:"v"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := ParseTime(raw.T)
	if err != nil {
		return err
	}

	dp.TS = ts
	dp.Value = raw.V
	return nil
}

// MarshalJSON writes the timestamp in the API's ISO-8601 form
func (dp DataPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		T string   `json:"t"`
		V *float64 `json:"v"`
	}{FormatTime(dp.TS), dp.Value})
}

// TimeLayout is the ISO-8601 layout used for outgoing timestamps
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses the ISO-8601 variants the API emits. Timestamps
// without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp: %q", s)
}

// FormatTime renders a timestamp for query parameters
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
