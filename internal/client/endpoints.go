package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tempoiq/internal/decoder"
	"tempoiq/internal/device"
	"tempoiq/internal/rule"
	"tempoiq/internal/series"
)

// Series lookup types accepted by Read
const (
	SeriesByID  = "id"
	SeriesByKey = "key"
)

// ReadOptions selects an optional rollup for Read
type ReadOptions struct {
	Interval string // e.g. "1hour"
	Function string // e.g. "mean"
}

// CreateDatabase creates a database and returns its credentials
func (c *Client) CreateDatabase(ctx context.Context, name string) (*series.Database, error) {
	body, err := c.request(ctx, "database", http.MethodPost, "/database/", map[string]interface{}{
		"name": name,
	})
	if err != nil {
		return nil, err
	}

	var db series.Database
	err = unmarshal(body, &db)
	c.decoded("typed", "database", 1, err)
	if err != nil {
		return nil, err
	}
	return &db, nil
}

// GetSeries lists all series of the database
func (c *Client) GetSeries(ctx context.Context) ([]series.Series, error) {
	body, err := c.request(ctx, "series", http.MethodGet, "/series/", nil)
	if err != nil {
		return nil, err
	}

	var list []series.Series
	err = unmarshal(body, &list)
	c.decoded("typed", "series", len(list), err)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ReadID reads data points of the series with the given id
func (c *Client) ReadID(ctx context.Context, id string, start, end time.Time, opts ReadOptions) ([]series.DataPoint, error) {
	return c.Read(ctx, SeriesByID, id, start, end, opts)
}

// ReadKey reads data points of the series with the given key
func (c *Client) ReadKey(ctx context.Context, key string, start, end time.Time, opts ReadOptions) ([]series.DataPoint, error) {
	return c.Read(ctx, SeriesByKey, key, start, end, opts)
}

// Read reads data points between start and end, looking the series up by
// id or key
func (c *Client) Read(ctx context.Context, seriesType, seriesVal string, start, end time.Time, opts ReadOptions) ([]series.DataPoint, error) {
	if seriesType != SeriesByID && seriesType != SeriesByKey {
		return nil, fmt.Errorf("invalid series type %q: must be %q or %q", seriesType, SeriesByID, SeriesByKey)
	}
	if seriesVal == "" {
		return nil, fmt.Errorf("series %s cannot be empty", seriesType)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %s is before start %s", series.FormatTime(end), series.FormatTime(start))
	}

	params := map[string]interface{}{
		"start": start,
		"end":   end,
	}
	if opts.Interval != "" {
		params["interval"] = opts.Interval
	}
	if opts.Function != "" {
		params["function"] = opts.Function
	}

	target := fmt.Sprintf("/series/%s/%s/data/", seriesType, seriesVal)
	body, err := c.request(ctx, "read", http.MethodGet, target, params)
	if err != nil {
		return nil, err
	}

	var points []series.DataPoint
	err = unmarshal(body, &points)
	c.decoded("typed", "datapoint", len(points), err)
	if err != nil {
		return nil, err
	}
	return points, nil
}

// GetDevice fetches a device with its sensors
func (c *Client) GetDevice(ctx context.Context, key string) (*device.Device, error) {
	if key == "" {
		return nil, fmt.Errorf("device key cannot be empty")
	}

	body, err := c.request(ctx, "device", http.MethodGet, "/devices/"+key+"/", nil)
	if err != nil {
		return nil, err
	}

	dev, err := c.decoder.DecodeDevice(body)
	c.decoded(decoder.ModeDevice.String(), "device", 1, err)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// ListRules fetches every rule of the database
func (c *Client) ListRules(ctx context.Context) ([]*rule.Rule, error) {
	body, err := c.request(ctx, "rules", http.MethodGet, "/rules/", nil)
	if err != nil {
		return nil, err
	}

	rules, err := c.decoder.DecodeKeyedRules(body)
	c.decoded(decoder.ModeKeyedRuleList.String(), "rule", len(rules), err)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// GetRule fetches a single rule
func (c *Client) GetRule(ctx context.Context, key string) (*rule.Rule, error) {
	if key == "" {
		return nil, fmt.Errorf("rule key cannot be empty")
	}

	body, err := c.request(ctx, "rule", http.MethodGet, "/rules/"+key+"/", nil)
	if err != nil {
		return nil, err
	}

	r, err := c.decoder.DecodeRule(body)
	c.decoded(decoder.ModeDefault.String(), "rule", 1, err)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRuleUsage fetches usage counters of a rule between start and end
func (c *Client) GetRuleUsage(ctx context.Context, key string, start, end time.Time) ([]rule.RuleUsage, error) {
	if key == "" {
		return nil, fmt.Errorf("rule key cannot be empty")
	}

	params := map[string]interface{}{
		"start": start,
		"end":   end,
	}
	body, err := c.request(ctx, "rule_usage", http.MethodGet, "/rules/"+key+"/usage/", params)
	if err != nil {
		return nil, err
	}

	usage, err := c.decoder.DecodeRuleUsage(body)
	c.decoded(decoder.ModeRuleUsage.String(), "rule_usage", len(usage), err)
	if err != nil {
		return nil, err
	}
	return usage, nil
}
