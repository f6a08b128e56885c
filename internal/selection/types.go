// Package selection models the boolean filter trees used to pick devices
// and sensors: leaf selectors combined by and/or clauses.
package selection

import (
	"encoding/json"
	"fmt"
)

const (
	// Selection types
	TypeDevices = "devices"
	TypeSensors = "sensors"

	// Selector keys
	KeyKey        = "key"
	KeyAttributes = "attributes"

	// Compound operators
	OperatorAnd = "and"
	OperatorOr  = "or"
)

// Clause is a node of a filter tree. It is implemented by Selector,
// AndClause, OrClause and RawFilter only.
type Clause interface {
	clause()
}

// Selector is a leaf predicate over a device key or its attributes.
// Value holds a string for KeyKey and a map[string]string for KeyAttributes.
type Selector struct {
	SelectionType string
	Key           string
	Value         interface{}
}

// AndClause matches when every child matches
type AndClause struct {
	Selectors []Clause
}

// OrClause matches when any child matches
type OrClause struct {
	Selectors []Clause
}

// RawFilter is a filter node this client does not model, kept verbatim
type RawFilter map[string]interface{}

// Selection applies a filter tree to a target kind
type Selection struct {
	Selection Clause
	Select    string
}

func (Selector) clause()  {}
func (AndClause) clause() {}
func (OrClause) clause()  {}
func (RawFilter) clause() {}

// NewKeySelector creates a selector matching a device key
func NewKeySelector(key string) Selector {
	return Selector{SelectionType: TypeDevices, Key: KeyKey, Value: key}
}

// NewAttributesSelector creates a selector matching device attributes
func NewAttributesSelector(attrs map[string]string) Selector {
	return Selector{SelectionType: TypeDevices, Key: KeyAttributes, Value: attrs}
}

// NewAndClause combines clauses with a logical and
func NewAndClause(selectors ...Clause) (AndClause, error) {
	if len(selectors) == 0 {
		return AndClause{}, fmt.Errorf("and clause needs at least one selector")
	}
	return AndClause{Selectors: selectors}, nil
}

// NewOrClause combines clauses with a logical or
func NewOrClause(selectors ...Clause) (OrClause, error) {
	if len(selectors) == 0 {
		return OrClause{}, fmt.Errorf("or clause needs at least one selector")
	}
	return OrClause{Selectors: selectors}, nil
}

// Attributes returns the attribute map of an attributes selector
func (s Selector) Attributes() (map[string]string, bool) {
	m, ok := s.Value.(map[string]string)
	return m, ok
}

// String returns the key of a key selector
func (s Selector) String() string {
	if v, ok := s.Value.(string); ok {
		return v
	}
	return fmt.Sprintf("%v", s.Value)
}

// MarshalJSON encodes the selector in its wire form
func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{s.Key: s.Value})
}

// MarshalJSON encodes the clause in its wire form
func (c AndClause) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Clause{OperatorAnd: c.Selectors})
}

// MarshalJSON encodes the clause in its wire form
func (c OrClause) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Clause{OperatorOr: c.Selectors})
}

// MarshalJSON encodes the selection in its wire form. Without a target
// the selection is written as its bare clause, the form conditions use.
func (s Selection) MarshalJSON() ([]byte, error) {
	if s.Select == "" {
		return json.Marshal(s.Selection)
	}
	out := map[string]interface{}{"filter": s.Selection, "select": s.Select}
	return json.Marshal(out)
}
