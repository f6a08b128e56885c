//file: internal/rule/types.go
package rule

import (
	"encoding/json"
	"fmt"
	"time"

	"tempoiq/internal/selection"
)

// Rule defines an alerting rule
type Rule struct {
	Name       string               `json:"name"`
	Key        string               `json:"key"`
	Actions    []Action             `json:"actions"`
	Conditions []Condition          `json:"conditions"`
	Status     string               `json:"status"`
	AlertBy    string               `json:"alertBy"`
	Search     *selection.Selection `json:"search,omitempty"` // Optional search the rule was created from
}

// Action returns the first action of the rule, or nil
func (r *Rule) Action() Action {
	if len(r.Actions) == 0 {
		return nil
	}
	return r.Actions[0]
}

// Trigger is a named predicate; argument meaning depends on the name
type Trigger struct {
	Name      string   `json:"name"`
	Arguments []string `json:"arguments"`
}

// Condition pairs a trigger with the series it watches
type Condition struct {
	Trigger Trigger             `json:"trigger"`
	Filter  selection.Selection `json:"filter"`
}

// Action is performed when a rule fires. Webhook is the only variant.
type Action interface {
	Kind() string
}

// Webhook posts alerts to a URL
type Webhook struct {
	URL string `json:"url"`
}

// Kind implements Action
func (Webhook) Kind() string { return ActionWebhook }

// MarshalJSON encodes the webhook in its wire form
func (w Webhook) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"url": w.URL})
}

// RuleUsage aggregates the usage counters reported for one timestamp
type RuleUsage struct {
	Timestamp        time.Time `json:"timestamp"`
	Partitions       int64     `json:"partitions"`
	Datapoints       int64     `json:"datapoints"`
	ActionsTriggered int64     `json:"actionsTriggered"`
}

// RuleValidationError represents a rule validation error
type RuleValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *RuleValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const (
	// StatusEnabled is assumed when a payload carries no status
	StatusEnabled  = "enabled"
	StatusLogOnly  = "logonly"
	StatusDisabled = "disabled"

	ActionWebhook = "webhook"

	// Usage metric types
	MetricPartitions       = "partitions"
	MetricDatapoints       = "datapoints"
	MetricActionsTriggered = "actions_triggered"
)
