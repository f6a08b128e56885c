package rule

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"tempoiq/internal/logger"
)

// Decoder turns rule payloads into rules. A bare JSON array is the
// list-of-rules form; an object with a "data" array is the keyed form.
type Decoder interface {
	DecodeRules(data []byte) ([]*Rule, error)
	DecodeKeyedRules(data []byte) ([]*Rule, error)
}

// RulesLoader handles loading rules from the filesystem
type RulesLoader struct {
	decoder Decoder
	logger  *logger.Logger
}

// NewRulesLoader creates a new rules loader
func NewRulesLoader(dec Decoder, log *logger.Logger) *RulesLoader {
	return &RulesLoader{
		decoder: dec,
		logger:  log,
	}
}

// LoadFromDirectory loads all rules from a directory and its subdirectories.
// Files are visited in lexical order; when two files define the same key
// the later definition wins.
func (l *RulesLoader) LoadFromDirectory(path string) ([]*Rule, error) {
	index, err := l.LoadIndex(path)
	if err != nil {
		return nil, err
	}
	return index.Rules(), nil
}

// LoadIndex is LoadFromDirectory returning the index, whose stats report
// how many definitions were replaced by a later file.
func (l *RulesLoader) LoadIndex(path string) (*RuleIndex, error) {
	index := NewRuleIndex(l.logger)

	err := filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		rules, err := l.LoadFile(path)
		if err != nil {
			return err
		}

		for _, rule := range rules {
			if _, err := index.Add(rule); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	l.logger.Info("rules loaded successfully",
		"totalRules", index.Len(),
		"replaced", index.GetStats().Replaced)

	return index, nil
}

// LoadFile decodes a single rule file
func (l *RulesLoader) LoadFile(path string) ([]*Rule, error) {
	l.logger.Debug("loading rule file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error("failed to read rule file",
			"path", path,
			"error", err)
		return nil, err
	}

	var rules []*Rule
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		rules, err = l.decoder.DecodeRules(data)
	} else {
		rules, err = l.decoder.DecodeKeyedRules(data)
	}
	if err != nil {
		l.logger.Error("failed to parse rule file",
			"path", path,
			"error", err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.logger.Debug("successfully loaded rules",
		"path", path,
		"count", len(rules))

	return rules, nil
}
