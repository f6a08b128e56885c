package client

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"tempoiq/config"
	"tempoiq/internal/series"
)

// BuildURL returns the versioned, escaped request path with its query
// string, e.g. /v1/series/key/foo/data/?end=...&start=...
func BuildURL(target string, params map[string]interface{}) string {
	segments := strings.Split(target, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	path := "/" + APIVersion + strings.Join(segments, "/")
	if len(params) == 0 {
		return path
	}
	return path + "?" + EncodeParams(params)
}

// BuildFullURL prefixes BuildURL with scheme, host and port. The port is
// left out when it is the default one.
func (c *Client) BuildFullURL(target string, params map[string]interface{}) string {
	scheme := "http"
	if c.cfg.IsSecure() {
		scheme = "https"
	}

	host := c.cfg.Host
	if c.cfg.Port != 0 && c.cfg.Port != config.DefaultPort {
		host = fmt.Sprintf("%s:%d", host, c.cfg.Port)
	}

	return scheme + "://" + host + BuildURL(target, params)
}

// EncodeParams form-encodes params in key order. Slices expand to
// repeated key[] pairs and times are written as ISO-8601.
func EncodeParams(params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	add := func(k string, v interface{}) {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(paramString(v)))
	}

	for _, k := range keys {
		switch v := params[k].(type) {
		case []string:
			for _, item := range v {
				add(k+"[]", item)
			}
		case []interface{}:
			for _, item := range v {
				add(k+"[]", item)
			}
		default:
			add(k, v)
		}
	}

	return strings.Join(parts, "&")
}

func paramString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return series.FormatTime(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
