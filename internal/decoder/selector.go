package decoder

import (
	"fmt"

	"tempoiq/internal/selection"
)

var selectorMatcher = Matcher{
	Name: "selector",
	Match: func(obj map[string]interface{}) bool {
		return len(obj) == 1 && (has(obj, selection.KeyKey) || has(obj, selection.KeyAttributes))
	},
	Build: DecodeScalarSelector,
}

var compoundMatcher = Matcher{
	Name: "compound",
	Match: func(obj map[string]interface{}) bool {
		return has(obj, selection.OperatorAnd) || has(obj, selection.OperatorOr)
	},
	Build: decodeCompoundObject,
}

var selectionMatcher = Matcher{
	Name: "selection",
	Match: func(obj map[string]interface{}) bool {
		return has(obj, "select")
	},
	Build: decodeSelectionObject,
}

// DecodeKeySelector decodes {"key": s}. Any other shape is returned unchanged.
func DecodeKeySelector(obj map[string]interface{}) (interface{}, error) {
	if len(obj) != 1 || !has(obj, selection.KeyKey) {
		return obj, nil
	}
	key, err := requiredString(obj, selection.KeyKey)
	if err != nil {
		return nil, err
	}
	return selection.NewKeySelector(key), nil
}

// DecodeAttributesSelector decodes {"attributes": {...}}. Any other shape
// is returned unchanged.
func DecodeAttributesSelector(obj map[string]interface{}) (interface{}, error) {
	if len(obj) != 1 || !has(obj, selection.KeyAttributes) {
		return obj, nil
	}
	attrs, err := toStringMap(obj[selection.KeyAttributes], selection.KeyAttributes)
	if err != nil {
		return nil, err
	}
	return selection.NewAttributesSelector(attrs), nil
}

// DecodeScalarSelector decodes either selector form
func DecodeScalarSelector(obj map[string]interface{}) (interface{}, error) {
	if has(obj, selection.KeyAttributes) {
		return DecodeAttributesSelector(obj)
	}
	return DecodeKeySelector(obj)
}

// DecodeCompoundClause builds an AndClause when t is "and" and an OrClause
// otherwise. Elements still in their JSON form are decoded first.
func DecodeCompoundClause(items []interface{}, t string) (selection.Clause, error) {
	decoded, err := defaultDecoder.walk(items, "$", defaultDecoder.matchers)
	if err != nil {
		return nil, err
	}

	op := selection.OperatorOr
	if t == selection.OperatorAnd {
		op = selection.OperatorAnd
	}
	return compound(decoded.([]interface{}), op)
}

// DecodeSelection wraps a filter (a clause, or its JSON form) in a Selection
func DecodeSelection(v interface{}) (selection.Selection, error) {
	decoded, err := defaultDecoder.walk(v, "$", defaultDecoder.matchers)
	if err != nil {
		return selection.Selection{}, err
	}
	sel, err := toSelection(decoded, "filter")
	if err != nil {
		return selection.Selection{}, withPath(err, "$")
	}
	return sel, nil
}

func decodeCompoundObject(obj map[string]interface{}) (interface{}, error) {
	if has(obj, selection.OperatorAnd) && has(obj, selection.OperatorOr) {
		return nil, &DecodeError{
			Field:   "and,or",
			Message: `conflicting keys "and" and "or"`,
		}
	}

	op := selection.OperatorAnd
	if has(obj, selection.OperatorOr) {
		op = selection.OperatorOr
	}

	items, ok := obj[op].([]interface{})
	if !ok {
		return nil, fieldError(op, "expected array, got %s", describe(obj[op]))
	}
	return compound(items, op)
}

func compound(items []interface{}, op string) (selection.Clause, error) {
	if len(items) == 0 {
		return nil, fieldError(op, "clause needs at least one selector")
	}

	clauses := make([]selection.Clause, 0, len(items))
	for i, item := range items {
		c, err := toClause(item, fmt.Sprintf("%s[%d]", op, i))
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)
	}

	if op == selection.OperatorAnd {
		return selection.AndClause{Selectors: clauses}, nil
	}
	return selection.OrClause{Selectors: clauses}, nil
}

func decodeSelectionObject(obj map[string]interface{}) (interface{}, error) {
	target, err := requiredString(obj, "select")
	if err != nil {
		return nil, err
	}

	var clause selection.Clause
	switch {
	case has(obj, "filter"):
		clause, err = toClause(obj["filter"], "filter")
	case has(obj, "filters"):
		clause, err = filtersClause(obj["filters"])
	default:
		return nil, missingField("filter")
	}
	if err != nil {
		return nil, err
	}

	return selection.Selection{Selection: clause, Select: target}, nil
}

// filtersClause reads {"devices": c1, "sensors": c2}. Selectors under
// "sensors" keep the "devices" selection type they were decoded with.
func filtersClause(v interface{}) (selection.Clause, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return toClause(v, "filters")
	}

	var parts []selection.Clause
	for _, kind := range []string{selection.TypeDevices, selection.TypeSensors} {
		f, ok := m[kind]
		if !ok || f == nil {
			continue
		}
		c, err := toClause(f, "filters."+kind)
		if err != nil {
			return nil, err
		}
		parts = append(parts, c)
	}

	switch len(parts) {
	case 0:
		return selection.RawFilter(m), nil
	case 1:
		return parts[0], nil
	default:
		return selection.AndClause{Selectors: parts}, nil
	}
}

func toClause(v interface{}, field string) (selection.Clause, error) {
	switch c := v.(type) {
	case selection.Clause:
		return c, nil
	case map[string]interface{}:
		return selection.RawFilter(c), nil
	case nil:
		return nil, missingField(field)
	default:
		return nil, fieldError(field, "expected filter object, got %s", describe(v))
	}
}

func toSelection(v interface{}, field string) (selection.Selection, error) {
	if sel, ok := v.(selection.Selection); ok {
		return sel, nil
	}
	c, err := toClause(v, field)
	if err != nil {
		return selection.Selection{}, err
	}
	return selection.Selection{Selection: c}, nil
}
