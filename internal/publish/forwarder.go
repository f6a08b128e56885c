package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"tempoiq/internal/logger"
	"tempoiq/internal/series"
)

// DefaultTopic is used when no topic template is configured
const DefaultTopic = "tempoiq/{key}"

// Message is the payload published for each data point
type Message struct {
	Series string   `json:"series"`
	TS     string   `json:"t"`
	Value  *float64 `json:"v"`
}

// Forwarder publishes the data points of a series, one message per point
type Forwarder struct {
	pub    Publisher
	topic  string
	logger *logger.Logger
}

// NewForwarder creates a forwarder publishing to the topic template
func NewForwarder(pub Publisher, topic string, log *logger.Logger) *Forwarder {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Forwarder{
		pub:    pub,
		topic:  topic,
		logger: log,
	}
}

// Topic returns the topic points of seriesKey are published to
func (f *Forwarder) Topic(seriesKey string) string {
	return RenderTopic(f.topic, seriesKey)
}

// Forward publishes points in order. It stops at the first failure or
// when ctx is done and returns how many points were published.
func (f *Forwarder) Forward(ctx context.Context, seriesKey string, points []series.DataPoint) (int, error) {
	if seriesKey == "" {
		return 0, fmt.Errorf("series key cannot be empty")
	}
	topic := f.Topic(seriesKey)

	for i, dp := range points {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		payload, err := json.Marshal(Message{
			Series: seriesKey,
			TS:     series.FormatTime(dp.TS),
			Value:  dp.Value,
		})
		if err != nil {
			return i, fmt.Errorf("failed to encode data point: %w", err)
		}

		if err := f.pub.Publish(topic, payload); err != nil {
			return i, fmt.Errorf("failed to publish data point %d: %w", i, err)
		}
	}

	f.logger.Info("forwarded data points",
		"series", seriesKey,
		"topic", topic,
		"count", len(points))

	return len(points), nil
}
