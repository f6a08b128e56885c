package publish

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"tempoiq/config"
	"tempoiq/internal/logger"
	"tempoiq/internal/metrics"
)

// MQTTPublisher publishes over a paho MQTT client
type MQTTPublisher struct {
	client    mqtt.Client
	qos       byte
	logger    *logger.Logger
	metrics   *metrics.Metrics
	connected atomic.Bool
	published atomic.Uint64
	errors    atomic.Uint64
}

// NewMQTTPublisher connects to the configured broker
func NewMQTTPublisher(cfg config.MQTTConfig, log *logger.Logger, m *metrics.Metrics) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker address is required")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("invalid mqtt qos: %d", cfg.QoS)
	}

	if log == nil {
		log = logger.NewNop()
	}

	p := &MQTTPublisher{
		qos:     cfg.QoS,
		logger:  log,
		metrics: m,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetMaxReconnectInterval(time.Minute)

	opts.OnConnect = p.handleConnect
	opts.OnConnectionLost = p.handleDisconnect

	if cfg.TLS.Enable {
		tlsConfig, err := newTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts.SetTLSConfig(tlsConfig)
	}

	p.client = mqtt.NewClient(opts)
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", token.Error())
	}

	return p, nil
}

// NewMQTTPublisherWithClient wraps an already connected client
func NewMQTTPublisherWithClient(client mqtt.Client, qos byte, log *logger.Logger, m *metrics.Metrics) *MQTTPublisher {
	if log == nil {
		log = logger.NewNop()
	}
	p := &MQTTPublisher{
		client:  client,
		qos:     qos,
		logger:  log,
		metrics: m,
	}
	p.connected.Store(true)
	return p
}

// Publish sends a message to a specific topic
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	if !p.connected.Load() {
		return fmt.Errorf("not connected to broker")
	}

	token := p.client.Publish(topic, p.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		p.errors.Add(1)
		p.metrics.IncPublished(DriverMQTT, false)
		p.logger.Error("failed to publish message",
			"error", token.Error(),
			"topic", topic)
		return token.Error()
	}

	p.published.Add(1)
	p.metrics.IncPublished(DriverMQTT, true)

	p.logger.Debug("published message",
		"topic", topic,
		"payloadSize", len(payload))

	return nil
}

// Published returns the number of messages sent and failed
func (p *MQTTPublisher) Published() (sent, failed uint64) {
	return p.published.Load(), p.errors.Load()
}

// Close disconnects from the broker
func (p *MQTTPublisher) Close() {
	p.logger.Info("disconnecting from mqtt broker")
	p.connected.Store(false)
	p.client.Disconnect(250)
}

func (p *MQTTPublisher) handleConnect(client mqtt.Client) {
	p.logger.Info("mqtt client connected")
	p.connected.Store(true)
}

func (p *MQTTPublisher) handleDisconnect(client mqtt.Client, err error) {
	p.logger.Error("mqtt connection lost", "error", err)
	p.connected.Store(false)
}

func newTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
