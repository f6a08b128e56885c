// Package decoder rebuilds the typed object model (selectors, clauses,
// selections, rules, devices, usage) from the loosely typed JSON returned
// by the API.
//
// Decoding happens in two steps. The payload is first parsed into a
// generic tree of map[string]interface{}, []interface{} and scalars
// (numbers as json.Number). The tree is then walked depth-first in
// post-order: every object is visited after its children were decoded
// and offered to an ordered chain of matchers. The first matcher whose
// predicate accepts the object's shape builds the domain value; objects no
// matcher accepts pass through unchanged.
package decoder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"tempoiq/internal/device"
	"tempoiq/internal/logger"
	"tempoiq/internal/rule"
)

// Matcher recognizes one object shape and builds its domain value.
// Match only inspects the key set; Build may fail with a DecodeError.
type Matcher struct {
	Name  string
	Match func(obj map[string]interface{}) bool
	Build func(obj map[string]interface{}) (interface{}, error)
}

// leafKeys name fields whose values are plain string maps. They are
// copied verbatim so an attribute named "key" never reads as a selector.
var leafKeys = map[string]struct{}{
	"attributes": {},
}

// Decoder walks parsed payloads through its matcher chains. It holds no
// per-call state and is safe for concurrent use.
type Decoder struct {
	matchers       []Matcher
	deviceMatchers []Matcher
	logger         *logger.Logger
}

// Option configures a Decoder
type Option func(*Decoder)

// WithMatcher appends a matcher after the built-in ones, ahead of the
// pass-through fallback
func WithMatcher(m Matcher) Option {
	return func(d *Decoder) {
		d.matchers = append(d.matchers, m)
	}
}

// WithLogger sets the logger used for pass-through diagnostics
func WithLogger(log *logger.Logger) Option {
	return func(d *Decoder) {
		if log != nil {
			d.logger = log
		}
	}
}

// New creates a decoder with the built-in matcher chain
func New(opts ...Option) *Decoder {
	d := &Decoder{
		matchers: []Matcher{
			selectorMatcher,
			compoundMatcher,
			selectionMatcher,
			ruleMatcher,
			conditionMatcher,
			webhookMatcher,
			triggerMatcher,
			deviceMatcher,
			sensorMatcher,
		},
		deviceMatchers: []Matcher{
			deviceMatcher,
			sensorMatcher,
		},
		logger: logger.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

var defaultDecoder = New()

// Decode parses data and decodes it according to mode
func (d *Decoder) Decode(data []byte, mode Mode) (interface{}, error) {
	v, err := parse(data)
	if err != nil {
		return nil, err
	}
	return d.DecodeValue(v, mode)
}

// DecodeValue decodes an already parsed generic value according to mode
func (d *Decoder) DecodeValue(v interface{}, mode Mode) (interface{}, error) {
	switch mode {
	case ModeDefault:
		return d.walk(v, "$", d.matchers)
	case ModeDevice:
		return d.walk(v, "$", d.deviceMatchers)
	case ModeRuleList:
		tree, err := d.walk(v, "$", d.matchers)
		if err != nil {
			return nil, err
		}
		return rulesFromList(tree, "$")
	case ModeKeyedRuleList:
		tree, err := d.walk(v, "$", d.matchers)
		if err != nil {
			return nil, err
		}
		return rulesFromKeyedList(tree)
	case ModeRuleUsage:
		// usage records carry no nested shapes worth dispatching
		tree, err := d.walk(v, "$", nil)
		if err != nil {
			return nil, err
		}
		return foldRuleUsage(tree)
	default:
		return nil, fmt.Errorf("unknown decode mode: %d", int(mode))
	}
}

// DecodeRule decodes a single rule wrapper
func (d *Decoder) DecodeRule(data []byte) (*rule.Rule, error) {
	v, err := d.Decode(data, ModeDefault)
	if err != nil {
		return nil, err
	}
	r, ok := v.(*rule.Rule)
	if !ok {
		return nil, fmt.Errorf("%w: expected rule, got %s", ErrUnexpectedShape, describe(v))
	}
	return r, nil
}

// DecodeRules decodes a JSON array of rule wrappers
func (d *Decoder) DecodeRules(data []byte) ([]*rule.Rule, error) {
	v, err := d.Decode(data, ModeRuleList)
	if err != nil {
		return nil, err
	}
	return v.([]*rule.Rule), nil
}

// DecodeKeyedRules decodes {"data": [rule wrappers]}
func (d *Decoder) DecodeKeyedRules(data []byte) ([]*rule.Rule, error) {
	v, err := d.Decode(data, ModeKeyedRuleList)
	if err != nil {
		return nil, err
	}
	return v.([]*rule.Rule), nil
}

// DecodeRuleUsage decodes {"data": [usage records]}
func (d *Decoder) DecodeRuleUsage(data []byte) ([]rule.RuleUsage, error) {
	v, err := d.Decode(data, ModeRuleUsage)
	if err != nil {
		return nil, err
	}
	return v.([]rule.RuleUsage), nil
}

// DecodeDevice decodes a device with its sensors
func (d *Decoder) DecodeDevice(data []byte) (*device.Device, error) {
	v, err := d.Decode(data, ModeDevice)
	if err != nil {
		return nil, err
	}
	dev, ok := v.(*device.Device)
	if !ok {
		return nil, fmt.Errorf("%w: expected device, got %s", ErrUnexpectedShape, describe(v))
	}
	return dev, nil
}

func parse(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Err: fmt.Errorf("unexpected data after top-level value")}
	}
	return v, nil
}

// walk decodes v bottom-up. Children are decoded before their parent is
// offered to the chain; values that are already domain objects are left
// alone.
func (d *Decoder) walk(v interface{}, path string, chain []Matcher) (interface{}, error) {
	switch node := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, child := range node {
			decoded, err := d.walk(child, fmt.Sprintf("%s[%d]", path, i), chain)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil

	case map[string]interface{}:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		obj := make(map[string]interface{}, len(node))
		for _, k := range keys {
			if _, leaf := leafKeys[k]; leaf {
				obj[k] = node[k]
				continue
			}
			decoded, err := d.walk(node[k], path+"."+k, chain)
			if err != nil {
				return nil, err
			}
			obj[k] = decoded
		}
		return d.dispatch(obj, path, chain)

	default:
		return v, nil
	}
}

func (d *Decoder) dispatch(obj map[string]interface{}, path string, chain []Matcher) (interface{}, error) {
	for _, m := range chain {
		if !m.Match(obj) {
			continue
		}
		out, err := m.Build(obj)
		if err != nil {
			return nil, withPath(err, path)
		}
		return out, nil
	}

	if len(chain) > 0 {
		d.logger.Debug("passing through unrecognized object",
			"path", path,
			"keys", sortedKeys(obj))
	}
	return obj, nil
}

func has(obj map[string]interface{}, key string) bool {
	_, ok := obj[key]
	return ok
}

func sortedKeys(obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describe(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return fmt.Sprintf("object with keys %v", sortedKeys(t))
	case []interface{}:
		return fmt.Sprintf("array of %d", len(t))
	default:
		return fmt.Sprintf("%T", v)
	}
}
