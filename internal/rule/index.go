package rule

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tempoiq/internal/logger"
)

// RuleIndex holds rules by key and remembers insertion order
type RuleIndex struct {
	byKey  map[string]*Rule // Rule lookup by key
	order  []string         // Keys in first-insertion order
	stats  IndexStats       // Index statistics
	logger *logger.Logger   // Logger instance
	mu     sync.RWMutex     // Protects index updates
}

// IndexStats tracks rule index statistics
type IndexStats struct {
	RuleCount  uint64    // Number of distinct keys
	Replaced   uint64    // Number of rules replaced by a later definition
	LastUpdate time.Time // Last index update time
}

// NewRuleIndex creates a new rule index
func NewRuleIndex(logger *logger.Logger) *RuleIndex {
	return &RuleIndex{
		byKey:  make(map[string]*Rule),
		logger: logger,
		stats: IndexStats{
			LastUpdate: time.Now(),
		},
	}
}

// Add adds a rule to the index. A rule with an already indexed key
// replaces the previous one and keeps its position.
func (idx *RuleIndex) Add(rule *Rule) (replaced bool, err error) {
	if rule == nil {
		return false, fmt.Errorf("rule cannot be nil")
	}
	if rule.Key == "" {
		return false, fmt.Errorf("rule key cannot be empty")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.byKey[rule.Key]; exists {
		replaced = true
		atomic.AddUint64(&idx.stats.Replaced, 1)
		idx.logger.Warn("rule key already indexed, replacing",
			"key", rule.Key)
	} else {
		idx.order = append(idx.order, rule.Key)
		atomic.AddUint64(&idx.stats.RuleCount, 1)
	}

	idx.byKey[rule.Key] = rule
	idx.stats.LastUpdate = time.Now()

	idx.logger.Debug("rule added to index",
		"key", rule.Key,
		"replaced", replaced)

	return replaced, nil
}

// Rules returns the indexed rules in insertion order
func (idx *RuleIndex) Rules() []*Rule {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rules := make([]*Rule, 0, len(idx.order))
	for _, key := range idx.order {
		rules = append(rules, idx.byKey[key])
	}
	return rules
}

// Len returns the number of indexed rules
func (idx *RuleIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.order)
}

// GetStats returns current index statistics
func (idx *RuleIndex) GetStats() IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return IndexStats{
		RuleCount:  atomic.LoadUint64(&idx.stats.RuleCount),
		Replaced:   atomic.LoadUint64(&idx.stats.Replaced),
		LastUpdate: idx.stats.LastUpdate,
	}
}
