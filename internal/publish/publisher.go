// Package publish forwards data points read from the API to a message
// broker, over MQTT or NATS.
package publish

import (
	"fmt"

	"tempoiq/config"
	"tempoiq/internal/logger"
	"tempoiq/internal/metrics"
)

const (
	DriverMQTT = "mqtt"
	DriverNATS = "nats"
)

// Publisher sends raw payloads to a broker topic
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close()
}

// New connects a publisher for the configured driver
func New(cfg *config.PublishConfig, log *logger.Logger, m *metrics.Metrics) (Publisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("publish configuration is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	switch cfg.Driver {
	case DriverMQTT:
		p, err := NewMQTTPublisher(cfg.MQTT, log, m)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverNATS:
		p, err := NewNATSPublisher(cfg.NATS, log, m)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "":
		return nil, fmt.Errorf("publish driver is required")
	default:
		return nil, fmt.Errorf("unsupported publish driver: %s", cfg.Driver)
	}
}
