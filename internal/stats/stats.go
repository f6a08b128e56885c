package stats

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// StatsCollector tracks client activity for a process lifetime
type StatsCollector struct {
	StartTime        time.Time
	RequestsSent     uint64
	ResponsesDecoded uint64
	APIErrors        uint64
	DecodeErrors     uint64
	lastUpdate       atomic.Int64
}

// NewStatsCollector creates a new stats collector
func NewStatsCollector() *StatsCollector {
	s := &StatsCollector{StartTime: time.Now()}
	s.touch()
	return s
}

func (s *StatsCollector) touch() {
	s.lastUpdate.Store(time.Now().UnixNano())
}

// IncRequests counts a request sent to the API
func (s *StatsCollector) IncRequests() {
	if s == nil {
		return
	}
	atomic.AddUint64(&s.RequestsSent, 1)
	s.touch()
}

// IncDecoded counts a response body that decoded cleanly
func (s *StatsCollector) IncDecoded() {
	if s == nil {
		return
	}
	atomic.AddUint64(&s.ResponsesDecoded, 1)
	s.touch()
}

// IncAPIErrors counts a failed or non-2xx response
func (s *StatsCollector) IncAPIErrors() {
	if s == nil {
		return
	}
	atomic.AddUint64(&s.APIErrors, 1)
	s.touch()
}

// IncDecodeErrors counts a response body the decoder rejected
func (s *StatsCollector) IncDecodeErrors() {
	if s == nil {
		return
	}
	atomic.AddUint64(&s.DecodeErrors, 1)
	s.touch()
}

// LastUpdate returns the time of the last recorded event
func (s *StatsCollector) LastUpdate() time.Time {
	return time.Unix(0, s.lastUpdate.Load())
}

// GetStats returns current statistics
func (s *StatsCollector) GetStats() map[string]interface{} {
	uptime := time.Since(s.StartTime)
	return map[string]interface{}{
		"uptime":            uptime.String(),
		"requests_sent":     atomic.LoadUint64(&s.RequestsSent),
		"responses_decoded": atomic.LoadUint64(&s.ResponsesDecoded),
		"api_errors":        atomic.LoadUint64(&s.APIErrors),
		"decode_errors":     atomic.LoadUint64(&s.DecodeErrors),
		"last_update":       s.LastUpdate(),
	}
}

// GetStatsJSON returns stats as JSON
func (s *StatsCollector) GetStatsJSON() ([]byte, error) {
	return json.Marshal(s.GetStats())
}

// CalculateRate returns requests per second since start
func (s *StatsCollector) CalculateRate() float64 {
	uptime := time.Since(s.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&s.RequestsSent)) / uptime
}
