package decoder

import (
	"fmt"
	"time"

	"tempoiq/internal/rule"
	"tempoiq/internal/selection"
	"tempoiq/internal/series"
)

var ruleMatcher = Matcher{
	Name: "rule",
	Match: func(obj map[string]interface{}) bool {
		return has(obj, "rule")
	},
	Build: decodeRuleWrapper,
}

var conditionMatcher = Matcher{
	Name: "condition",
	Match: func(obj map[string]interface{}) bool {
		return has(obj, "trigger")
	},
	Build: decodeCondition,
}

var webhookMatcher = Matcher{
	Name: "webhook",
	Match: func(obj map[string]interface{}) bool {
		_, ok := obj["url"].(string)
		return ok
	},
	Build: decodeWebhook,
}

var triggerMatcher = Matcher{
	Name: "trigger",
	Match: func(obj map[string]interface{}) bool {
		_, named := obj["name"].(string)
		_, listed := obj["arguments"].([]interface{})
		return named && listed
	},
	Build: func(obj map[string]interface{}) (interface{}, error) {
		return decodeTrigger(obj)
	},
}

// decodeRuleWrapper builds a rule from {"rule": {...}, "search": ..., "alerts": ...}
func decodeRuleWrapper(obj map[string]interface{}) (interface{}, error) {
	body, ok := obj["rule"].(map[string]interface{})
	if !ok {
		return nil, fieldError("rule", "expected object, got %s", describe(obj["rule"]))
	}

	alertBy, err := requiredString(obj, "alerts")
	if err != nil {
		return nil, err
	}

	name, err := requiredString(body, "name")
	if err != nil {
		return nil, prefixField(err, "rule")
	}
	key, err := requiredString(body, "key")
	if err != nil {
		return nil, prefixField(err, "rule")
	}
	status, err := optionalString(body, "status", rule.StatusEnabled)
	if err != nil {
		return nil, prefixField(err, "rule")
	}

	r := &rule.Rule{
		Name:    name,
		Key:     key,
		Status:  status,
		AlertBy: alertBy,
	}

	actions, err := optionalArray(body, "actions")
	if err != nil {
		return nil, prefixField(err, "rule")
	}
	for i, item := range actions {
		action, ok := item.(rule.Action)
		if !ok {
			return nil, fieldError(fmt.Sprintf("rule.actions[%d]", i), "unrecognized action %s", describe(item))
		}
		r.Actions = append(r.Actions, action)
	}

	conditions, err := optionalArray(body, "conditions")
	if err != nil {
		return nil, prefixField(err, "rule")
	}
	for i, item := range conditions {
		cond, ok := item.(rule.Condition)
		if !ok {
			return nil, fieldError(fmt.Sprintf("rule.conditions[%d]", i), "unrecognized condition %s", describe(item))
		}
		r.Conditions = append(r.Conditions, cond)
	}

	// search is informational; shapes this client does not model are dropped
	if sel, ok := obj["search"].(selection.Selection); ok {
		r.Search = &sel
	}

	return r, nil
}

func decodeCondition(obj map[string]interface{}) (interface{}, error) {
	var trigger rule.Trigger
	switch t := obj["trigger"].(type) {
	case rule.Trigger:
		trigger = t
	case map[string]interface{}:
		decoded, err := decodeTrigger(t)
		if err != nil {
			return nil, prefixField(err, "trigger")
		}
		trigger = decoded
	case nil:
		return nil, missingField("trigger")
	default:
		return nil, fieldError("trigger", "expected object, got %s", describe(t))
	}

	filter, err := toSelection(obj["filter"], "filter")
	if err != nil {
		return nil, err
	}

	return rule.Condition{Trigger: trigger, Filter: filter}, nil
}

func decodeTrigger(obj map[string]interface{}) (rule.Trigger, error) {
	name, err := requiredString(obj, "name")
	if err != nil {
		return rule.Trigger{}, err
	}

	raw, ok := obj["arguments"]
	if !ok || raw == nil {
		return rule.Trigger{}, missingField("arguments")
	}
	args, err := toStringSlice(raw, "arguments")
	if err != nil {
		return rule.Trigger{}, err
	}

	return rule.Trigger{Name: name, Arguments: args}, nil
}

func decodeWebhook(obj map[string]interface{}) (interface{}, error) {
	u, err := requiredString(obj, "url")
	if err != nil {
		return nil, err
	}
	return rule.Webhook{URL: u}, nil
}

func rulesFromList(v interface{}, path string) ([]*rule.Rule, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("expected array of rules, got %s", describe(v))}
	}

	rules := make([]*rule.Rule, 0, len(items))
	for i, item := range items {
		r, ok := item.(*rule.Rule)
		if !ok {
			return nil, &DecodeError{
				Path:    fmt.Sprintf("%s[%d]", path, i),
				Message: fmt.Sprintf("expected rule, got %s", describe(item)),
			}
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func rulesFromKeyedList(v interface{}) ([]*rule.Rule, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, &DecodeError{Path: "$", Message: fmt.Sprintf("expected object, got %s", describe(v))}
	}
	data, ok := obj["data"]
	if !ok {
		return nil, &DecodeError{Path: "$", Field: "data", Message: "missing required field"}
	}
	return rulesFromList(data, "$.data")
}

// foldRuleUsage groups usage records by timestamp. One RuleUsage is
// emitted per distinct instant, in first-seen order; counters without a
// record stay zero.
func foldRuleUsage(v interface{}) ([]rule.RuleUsage, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, &DecodeError{Path: "$", Message: fmt.Sprintf("expected object, got %s", describe(v))}
	}
	data, ok := obj["data"].([]interface{})
	if !ok {
		if !has(obj, "data") {
			return nil, &DecodeError{Path: "$", Field: "data", Message: "missing required field"}
		}
		return nil, &DecodeError{Path: "$", Field: "data", Message: fmt.Sprintf("expected array, got %s", describe(obj["data"]))}
	}

	index := make(map[time.Time]int)
	usage := make([]rule.RuleUsage, 0)

	for i, item := range data {
		path := fmt.Sprintf("$.data[%d]", i)

		record, ok := item.(map[string]interface{})
		if !ok {
			return nil, &DecodeError{Path: path, Message: fmt.Sprintf("expected object, got %s", describe(item))}
		}

		raw, err := requiredString(record, "timestamp")
		if err != nil {
			return nil, withPath(err, path)
		}
		ts, err := series.ParseTime(raw)
		if err != nil {
			return nil, &DecodeError{Path: path, Field: "timestamp", Message: err.Error()}
		}
		metric, err := requiredString(record, "metricType")
		if err != nil {
			return nil, withPath(err, path)
		}
		countRaw, ok := record["count"]
		if !ok || countRaw == nil {
			return nil, withPath(missingField("count"), path)
		}
		count, err := toInt64(countRaw, "count")
		if err != nil {
			return nil, withPath(err, path)
		}

		switch metric {
		case rule.MetricPartitions, rule.MetricDatapoints, rule.MetricActionsTriggered:
		default:
			continue
		}

		key := ts.UTC()
		pos, seen := index[key]
		if !seen {
			pos = len(usage)
			index[key] = pos
			usage = append(usage, rule.RuleUsage{Timestamp: ts})
		}

		switch metric {
		case rule.MetricPartitions:
			usage[pos].Partitions = count
		case rule.MetricDatapoints:
			usage[pos].Datapoints = count
		case rule.MetricActionsTriggered:
			usage[pos].ActionsTriggered = count
		}
	}

	return usage, nil
}

// prefixField qualifies the field of a nested DecodeError
func prefixField(err error, prefix string) error {
	if de, ok := err.(*DecodeError); ok && de.Field != "" {
		de.Field = prefix + "." + de.Field
	}
	return err
}
