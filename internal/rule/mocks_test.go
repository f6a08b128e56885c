package rule

import (
	"encoding/json"
	"sync"
)

type wrapperStub struct {
	Rule struct {
		Name string `json:"name"`
		Key  string `json:"key"`
	} `json:"rule"`
	Alerts string `json:"alerts"`
}

// MockDecoder implements Decoder for testing. It only reads rule names
// and keys, which is all the loader cares about.
type MockDecoder struct {
	listCalls  int
	keyedCalls int
	mu         sync.Mutex
}

func (m *MockDecoder) DecodeRules(data []byte) ([]*Rule, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	var wrappers []wrapperStub
	if err := json.Unmarshal(data, &wrappers); err != nil {
		return nil, err
	}
	return stubRules(wrappers), nil
}

func (m *MockDecoder) DecodeKeyedRules(data []byte) ([]*Rule, error) {
	m.mu.Lock()
	m.keyedCalls++
	m.mu.Unlock()

	var keyed struct {
		Data []wrapperStub `json:"data"`
	}
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, err
	}
	return stubRules(keyed.Data), nil
}

func stubRules(wrappers []wrapperStub) []*Rule {
	rules := make([]*Rule, 0, len(wrappers))
	for _, w := range wrappers {
		rules = append(rules, &Rule{Name: w.Rule.Name, Key: w.Rule.Key, AlertBy: w.Alerts})
	}
	return rules
}
