package publish

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"tempoiq/config"
	"tempoiq/internal/logger"
	"tempoiq/internal/metrics"
)

// natsConn is the subset of *nats.Conn the publisher uses
type natsConn interface {
	Publish(subject string, data []byte) error
	Flush() error
	IsConnected() bool
	Close()
}

// NATSPublisher publishes over a NATS connection. Topics are converted
// to subjects with ToNATSSubject.
type NATSPublisher struct {
	conn      natsConn
	logger    *logger.Logger
	metrics   *metrics.Metrics
	published atomic.Uint64
	errors    atomic.Uint64
}

// NewNATSPublisher connects to the configured servers
func NewNATSPublisher(cfg config.NATSConfig, log *logger.Logger, m *metrics.Metrics) (*NATSPublisher, error) {
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("no NATS server URLs provided")
	}

	if log == nil {
		log = logger.NewNop()
	}

	p := &NATSPublisher{
		logger:  log,
		metrics: m,
	}

	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Error("disconnected from NATS server", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("reconnected to NATS server", "url", c.ConnectedUrl())
		}),
	}

	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	opts = append(opts, natsTLSOptions(cfg.TLS)...)

	log.Info("connecting to NATS server", "urls", cfg.URLs)

	conn, err := nats.Connect(strings.Join(cfg.URLs, ","), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS server: %w", err)
	}
	p.conn = conn

	log.Info("connected to NATS server", "url", conn.ConnectedUrl())

	return p, nil
}

// natsTLSOptions maps the TLS section to connect options. The client
// certificate is only sent when both cert and key are configured.
func natsTLSOptions(cfg config.TLSConfig) []nats.Option {
	if !cfg.Enable {
		return nil
	}
	opts := []nats.Option{nats.Secure()}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		opts = append(opts, nats.ClientCert(cfg.CertFile, cfg.KeyFile))
	}
	if cfg.CAFile != "" {
		opts = append(opts, nats.RootCAs(cfg.CAFile))
	}
	return opts
}

func newNATSPublisherWithConn(conn natsConn, log *logger.Logger, m *metrics.Metrics) *NATSPublisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &NATSPublisher{
		conn:    conn,
		logger:  log,
		metrics: m,
	}
}

// Publish sends a message to the subject derived from topic
func (p *NATSPublisher) Publish(topic string, payload []byte) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("not connected to NATS server")
	}

	subject := NormalizeSubject(ToNATSSubject(topic))

	if err := p.conn.Publish(subject, payload); err != nil {
		p.errors.Add(1)
		p.metrics.IncPublished(DriverNATS, false)
		p.logger.Error("failed to publish message",
			"error", err,
			"topic", topic,
			"subject", subject)
		return err
	}

	p.published.Add(1)
	p.metrics.IncPublished(DriverNATS, true)

	p.logger.Debug("published message",
		"topic", topic,
		"subject", subject,
		"payloadSize", len(payload))

	return nil
}

// Published returns the number of messages sent and failed
func (p *NATSPublisher) Published() (sent, failed uint64) {
	return p.published.Load(), p.errors.Load()
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() {
	p.logger.Info("disconnecting from NATS server")
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("failed to flush NATS connection", "error", err)
	}
	p.conn.Close()
}
