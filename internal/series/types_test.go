package series

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2015, 1, 26, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"rfc3339 with millis", "2015-01-26T00:00:00.000Z", false},
		{"rfc3339", "2015-01-26T00:00:00Z", false},
		{"numeric zone", "2015-01-26T00:00:00.000+0000", false},
		{"offset zone", "2015-01-26T01:00:00+01:00", false},
		{"no zone", "2015-01-26T00:00:00", false},
		{"date only", "2015-01-26", false},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2012, 3, 27, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, "2012-03-27T05:00:00.000Z", FormatTime(ts))
}

func TestDataPointJSON(t *testing.T) {
	var points []DataPoint
	err := json.Unmarshal([]byte(`[
		{"t": "2012-03-27T00:00:00.000+0000", "v": 12.34},
		{"t": "2012-03-27T00:05:00.000+0000", "v": null}
	]`), &points)
	require.NoError(t, err)
	require.Len(t, points, 2)

	require.NotNil(t, points[0].Value)
	assert.Equal(t, 12.34, *points[0].Value)
	assert.Nil(t, points[1].Value)
	assert.Equal(t, 5, points[1].TS.Minute())

	data, err := json.Marshal(points[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"2012-03-27T00:00:00.000Z","v":12.34}`, string(data))
}

func TestDataPointBadTimestamp(t *testing.T) {
	var dp DataPoint
	assert.Error(t, json.Unmarshal([]byte(`{"t": "soon", "v": 1}`), &dp))
}
