package selection

import "fmt"

// ValidationError reports the first invalid node of a filter tree
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks a filter tree recursively
func Validate(c Clause) error {
	return validateClause(c, "filter")
}

func validateClause(c Clause, path string) error {
	switch v := c.(type) {
	case nil:
		return &ValidationError{Path: path, Message: "clause cannot be nil"}
	case Selector:
		return validateSelector(v, path)
	case AndClause:
		return validateChildren(v.Selectors, path+"."+OperatorAnd)
	case OrClause:
		return validateChildren(v.Selectors, path+"."+OperatorOr)
	case RawFilter:
		if len(v) == 0 {
			return &ValidationError{Path: path, Message: "empty filter"}
		}
		return nil
	default:
		return &ValidationError{Path: path, Message: fmt.Sprintf("unsupported clause %T", c)}
	}
}

func validateChildren(children []Clause, path string) error {
	if len(children) == 0 {
		return &ValidationError{Path: path, Message: "clause needs at least one selector"}
	}
	for i, child := range children {
		if err := validateClause(child, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateSelector(s Selector, path string) error {
	switch s.SelectionType {
	case TypeDevices, TypeSensors:
	default:
		return &ValidationError{Path: path, Message: fmt.Sprintf("invalid selection type: %s", s.SelectionType)}
	}

	switch s.Key {
	case KeyKey:
		if v, ok := s.Value.(string); !ok || v == "" {
			return &ValidationError{Path: path + "." + KeyKey, Message: "key selector needs a non-empty string"}
		}
	case KeyAttributes:
		if _, ok := s.Value.(map[string]string); !ok {
			return &ValidationError{Path: path + "." + KeyAttributes, Message: "attributes selector needs a string map"}
		}
	default:
		return &ValidationError{Path: path, Message: fmt.Sprintf("invalid selector key: %s", s.Key)}
	}
	return nil
}
