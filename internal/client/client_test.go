package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempoiq/config"
	"tempoiq/internal/decoder"
	"tempoiq/internal/logger"
	"tempoiq/internal/metrics"
	"tempoiq/internal/rule"
	"tempoiq/internal/series"
	"tempoiq/internal/stats"
)

const ruleWrapper = `{
	"rule": {
		"name": "high temperature",
		"key": "%s",
		"actions": [{"url": "http://hooks.example.com/alert"}],
		"conditions": [{
			"trigger": {"name": "static", "arguments": ["gt", "30"]},
			"filter": {"and": [{"key": "thermostat"}, {"attributes": {"building": "A"}}]}
		}],
		"status": "enabled"
	},
	"alerts": "any"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	secure := false
	cfg := config.APIConfig{
		Host:    u.Hostname(),
		Port:    port,
		Secure:  &secure,
		Key:     "key",
		Secret:  "secret",
		Timeout: 5 * time.Second,
	}
	return New(cfg, logger.NewNop(), opts...)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestBuildURL(t *testing.T) {
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target string
		params map[string]interface{}
		want   string
	}{
		{
			name:   "no params",
			target: "/series/",
			want:   "/v1/series/",
		},
		{
			name:   "time params",
			target: "/series/key/foo/data/",
			params: map[string]interface{}{"start": start, "end": end},
			want:   "/v1/series/key/foo/data/?end=2012-01-02T00%3A00%3A00.000Z&start=2012-01-01T00%3A00%3A00.000Z",
		},
		{
			name:   "escaped segment",
			target: "/series/key/living room/data/",
			want:   "/v1/series/key/living%20room/data/",
		},
		{
			name:   "list params",
			target: "/series/",
			params: map[string]interface{}{"key": []string{"a", "b"}, "limit": 10},
			want:   "/v1/series/?key%5B%5D=a&key%5B%5D=b&limit=10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildURL(tt.target, tt.params))
		})
	}
}

func TestBuildFullURL(t *testing.T) {
	insecure := false

	tests := []struct {
		name string
		cfg  config.APIConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  config.APIConfig{},
			want: "https://api.tempo-db.com/v1/series/",
		},
		{
			name: "custom port",
			cfg:  config.APIConfig{Host: "localhost", Port: 8080, Secure: &insecure},
			want: "http://localhost:8080/v1/series/",
		},
		{
			name: "default port omitted",
			cfg:  config.APIConfig{Host: "localhost", Port: 80, Secure: &insecure},
			want: "http://localhost/v1/series/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cfg, nil)
			assert.Equal(t, tt.want, c.BuildFullURL("/series/", nil))
		})
	}
}

func TestEncodeParams(t *testing.T) {
	assert.Equal(t, "", EncodeParams(nil))
	assert.Equal(t, "a=1&b=x+y", EncodeParams(map[string]interface{}{"b": "x y", "a": 1}))
	assert.Equal(t, "tag%5B%5D=t1&tag%5B%5D=2", EncodeParams(map[string]interface{}{"tag": []interface{}{"t1", 2}}))
}

func TestRequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err)

		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/series/", r.URL.Path)
		writeJSON(w, `[{"id": "1", "key": "foo", "attributes": {"unit": "C"}, "tags": ["temp"]}]`)
	})

	list, err := c.GetSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "foo", list[0].Key)
	assert.Equal(t, map[string]string{"unit": "C"}, list[0].Attributes)
	assert.Equal(t, []string{"temp"}, list[0].Tags)
}

func TestCreateDatabase(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/database/", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "test"}, body)

		writeJSON(w, `{"id": "db-key", "password": "db-secret"}`)
	})

	db, err := c.CreateDatabase(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "db-key", db.Key)
	assert.Equal(t, "db-secret", db.Secret)
}

func TestRead(t *testing.T) {
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC)
	opts := ReadOptions{Interval: "1hour", Function: "mean"}

	tests := []struct {
		name     string
		read     func(c *Client) ([]series.DataPoint, error)
		wantPath string
	}{
		{
			name: "by key",
			read: func(c *Client) ([]series.DataPoint, error) {
				return c.ReadKey(context.Background(), "foo", start, end, opts)
			},
			wantPath: "/v1/series/key/foo/data/",
		},
		{
			name: "by id",
			read: func(c *Client) ([]series.DataPoint, error) {
				return c.ReadID(context.Background(), "abc", start, end, opts)
			},
			wantPath: "/v1/series/id/abc/data/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				q := r.URL.Query()
				assert.Equal(t, "2012-01-01T00:00:00.000Z", q.Get("start"))
				assert.Equal(t, "2012-01-02T00:00:00.000Z", q.Get("end"))
				assert.Equal(t, "1hour", q.Get("interval"))
				assert.Equal(t, "mean", q.Get("function"))

				writeJSON(w, `[
					{"t": "2012-01-01T00:00:00.000Z", "v": 1.5},
					{"t": "2012-01-01T01:00:00.000+0000", "v": null}
				]`)
			})

			points, err := tt.read(c)
			require.NoError(t, err)
			require.Len(t, points, 2)

			require.NotNil(t, points[0].Value)
			assert.Equal(t, 1.5, *points[0].Value)
			assert.True(t, points[0].TS.Equal(start))
			assert.Nil(t, points[1].Value)
			assert.True(t, points[1].TS.Equal(start.Add(time.Hour)))
		})
	}
}

func TestReadRejectsBadArguments(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	start := time.Now()
	_, err := c.Read(context.Background(), "name", "foo", start, start, ReadOptions{})
	assert.Error(t, err)

	_, err = c.ReadKey(context.Background(), "", start, start, ReadOptions{})
	assert.Error(t, err)

	_, err = c.ReadKey(context.Background(), "foo", start, start.Add(-time.Hour), ReadOptions{})
	assert.Error(t, err)

	assert.False(t, called)
}

func TestMethodNotAllowed(t *testing.T) {
	c := New(config.APIConfig{}, nil)
	_, err := c.request(context.Background(), "test", http.MethodDelete, "/series/", nil)
	assert.ErrorIs(t, err, ErrMethodNotAllowed)
}

func TestAPIError(t *testing.T) {
	collector := stats.NewStatsCollector()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/devices/missing/" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "denied", http.StatusForbidden)
	}, WithStats(collector))

	_, err := c.GetSeries(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "denied", apiErr.Body)
	assert.False(t, IsNotFound(err))

	_, err = c.GetDevice(context.Background(), "missing")
	assert.True(t, IsNotFound(err))

	assert.Equal(t, uint64(2), collector.RequestsSent)
	assert.Equal(t, uint64(2), collector.APIErrors)
	assert.Equal(t, uint64(0), collector.DecodeErrors)
}

func TestListRules(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(reg)
	require.NoError(t, err)
	collector := stats.NewStatsCollector()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rules/", r.URL.Path)
		writeJSON(w, `{"data": [`+sprintfRule("r1")+`, `+sprintfRule("r2")+`]}`)
	}, WithMetrics(m), WithStats(collector))

	rules, err := c.ListRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "r1", rules[0].Key)
	assert.Equal(t, "r2", rules[1].Key)
	assert.NoError(t, rule.Validate(rules[0]))

	assert.Equal(t, uint64(1), collector.ResponsesDecoded)
	count, err := testutil.GatherAndCount(reg, "tempoiq_client_requests_total", "tempoiq_decoder_objects_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGetRule(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rules/hot/", r.URL.Path)
		writeJSON(w, sprintfRule("hot"))
	})

	r, err := c.GetRule(context.Background(), "hot")
	require.NoError(t, err)
	assert.Equal(t, "hot", r.Key)
	assert.Equal(t, "any", r.AlertBy)
	assert.Equal(t, rule.StatusEnabled, r.Status)

	_, err = c.GetRule(context.Background(), "")
	assert.Error(t, err)
}

func TestGetRuleDecodeError(t *testing.T) {
	collector := stats.NewStatsCollector()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"rule": {"name": "r"}, "alerts": "any"}`)
	}, WithStats(collector))

	_, err := c.GetRule(context.Background(), "r")
	var de *decoder.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "rule.key", de.Field)
	assert.Equal(t, uint64(1), collector.DecodeErrors)
	assert.Equal(t, uint64(0), collector.ResponsesDecoded)
}

func TestGetRuleUsage(t *testing.T) {
	start := time.Date(2015, 1, 26, 0, 0, 0, 0, time.UTC)
	end := time.Date(2015, 1, 28, 0, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rules/hot/usage/", r.URL.Path)
		assert.Equal(t, "2015-01-26T00:00:00.000Z", r.URL.Query().Get("start"))
		writeJSON(w, `{"data": [
			{"timestamp": "2015-01-26T00:00:00.000Z", "metricType": "datapoints", "count": 27},
			{"timestamp": "2015-01-27T00:00:00.000Z", "metricType": "partitions", "count": 32}
		]}`)
	})

	usage, err := c.GetRuleUsage(context.Background(), "hot", start, end)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, int64(27), usage[0].Datapoints)
	assert.Equal(t, int64(32), usage[1].Partitions)
}

func TestGetDevice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/devices/test-dev/", r.URL.Path)
		writeJSON(w, `{"key": "test-dev", "name": "", "attributes": {"type": "blarg"},
			"sensors": [{"key": "vals", "name": "stuff", "attributes": {}}]}`)
	})

	dev, err := c.GetDevice(context.Background(), "test-dev")
	require.NoError(t, err)
	assert.Equal(t, "test-dev", dev.Key)
	assert.Equal(t, "blarg", dev.Attributes["type"])
	require.Len(t, dev.Sensors, 1)
	assert.Equal(t, "vals", dev.Sensors[0].Key)
}

func TestCanceledContext(t *testing.T) {
	collector := stats.NewStatsCollector()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `[]`)
	}, WithStats(collector))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetSeries(ctx)
	require.Error(t, err)
	assert.Equal(t, uint64(1), collector.APIErrors)
}

func sprintfRule(key string) string {
	return fmt.Sprintf(ruleWrapper, key)
}
