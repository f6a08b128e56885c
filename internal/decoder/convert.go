package decoder

import (
	"encoding/json"
	"fmt"
)

func requiredString(obj map[string]interface{}, field string) (string, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return "", missingField(field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldError(field, "expected string, got %s", describe(v))
	}
	return s, nil
}

func optionalString(obj map[string]interface{}, field, fallback string) (string, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldError(field, "expected string, got %s", describe(v))
	}
	return s, nil
}

func toStringMap(v interface{}, field string) (map[string]string, error) {
	switch m := v.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return m, nil
	case map[string]interface{}:
		out := make(map[string]string, len(m))
		for k, val := range m {
			s, ok := val.(string)
			if !ok {
				return nil, fieldError(field+"."+k, "expected string, got %s", describe(val))
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fieldError(field, "expected object, got %s", describe(v))
	}
}

// toStringSlice accepts strings and numbers; numbers keep their JSON text
func toStringSlice(v interface{}, field string) ([]string, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, fieldError(field, "expected array, got %s", describe(v))
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		switch s := item.(type) {
		case string:
			out = append(out, s)
		case json.Number:
			out = append(out, s.String())
		default:
			return nil, fieldError(fmt.Sprintf("%s[%d]", field, i), "expected string, got %s", describe(item))
		}
	}
	return out, nil
}

func optionalArray(obj map[string]interface{}, field string) ([]interface{}, error) {
	v, ok := obj[field]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fieldError(field, "expected array, got %s", describe(v))
	}
	return items, nil
}

func toInt64(v interface{}, field string) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fieldError(field, "expected integer, got %s", n.String())
		}
		return i, nil
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fieldError(field, "expected integer, got %s", describe(v))
	}
}
