//file: internal/rule/validator.go
package rule

import (
	"fmt"
	"net/url"
	"regexp"

	"tempoiq/internal/selection"
)

var (
	// validKeyPattern matches rule keys accepted by the service:
	// - Must not be empty
	// - Letters, numbers, dash, underscore, dot and colon only
	validKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
)

// Validate performs structural validation of a decoded or hand-built rule
func Validate(rule *Rule) error {
	if rule == nil {
		return &RuleValidationError{
			Field:   "rule",
			Message: "rule cannot be nil",
		}
	}

	if !validKeyPattern.MatchString(rule.Key) {
		return &RuleValidationError{
			Field:   "key",
			Message: fmt.Sprintf("invalid rule key: %q", rule.Key),
		}
	}

	switch rule.Status {
	case "", StatusEnabled, StatusLogOnly, StatusDisabled:
	default:
		return &RuleValidationError{
			Field:   "status",
			Message: fmt.Sprintf("invalid status: %s", rule.Status),
		}
	}

	if len(rule.Actions) == 0 {
		return &RuleValidationError{
			Field:   "actions",
			Message: "rule needs at least one action",
		}
	}
	for i, action := range rule.Actions {
		if err := validateAction(action); err != nil {
			return &RuleValidationError{
				Field:   fmt.Sprintf("actions[%d]", i),
				Message: err.Error(),
			}
		}
	}

	if len(rule.Conditions) == 0 {
		return &RuleValidationError{
			Field:   "conditions",
			Message: "rule needs at least one condition",
		}
	}
	for i := range rule.Conditions {
		if err := validateCondition(&rule.Conditions[i]); err != nil {
			return &RuleValidationError{
				Field:   fmt.Sprintf("conditions[%d]", i),
				Message: err.Error(),
			}
		}
	}

	return nil
}

// validateAction checks if an action configuration is valid
func validateAction(action Action) error {
	switch a := action.(type) {
	case nil:
		return fmt.Errorf("action cannot be nil")
	case Webhook:
		u, err := url.Parse(a.URL)
		if err != nil {
			return fmt.Errorf("invalid webhook url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("webhook url must be http or https: %s", a.URL)
		}
		if u.Host == "" {
			return fmt.Errorf("webhook url has no host: %s", a.URL)
		}
		return nil
	default:
		return fmt.Errorf("unsupported action: %s", action.Kind())
	}
}

// validateCondition validates a single condition and its filter tree
func validateCondition(condition *Condition) error {
	if condition.Trigger.Name == "" {
		return fmt.Errorf("trigger name cannot be empty")
	}

	switch condition.Filter.Select {
	case "", selection.TypeDevices, selection.TypeSensors:
	default:
		return fmt.Errorf("invalid select target: %s", condition.Filter.Select)
	}

	return selection.Validate(condition.Filter.Selection)
}
