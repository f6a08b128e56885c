package publish

import (
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MockToken implements mqtt.Token for testing
type MockToken struct {
	err  error
	done chan struct{}
}

func NewMockToken(err error) *MockToken {
	done := make(chan struct{})
	close(done)
	return &MockToken{err: err, done: done}
}

func (t *MockToken) Wait() bool                       { return true }
func (t *MockToken) WaitTimeout(d time.Duration) bool { return true }
func (t *MockToken) Error() error                     { return t.err }
func (t *MockToken) Done() <-chan struct{}            { return t.done }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// MockClient implements mqtt.Client for testing and records publishes
type MockClient struct {
	connected    atomic.Bool
	disconnected atomic.Bool
	publishErr   error

	mu       sync.Mutex
	messages []published
}

func NewMockClient() *MockClient {
	m := &MockClient{}
	m.connected.Store(true)
	return m
}

func (m *MockClient) Connect() mqtt.Token { return NewMockToken(nil) }
func (m *MockClient) Disconnect(quiesce uint) {
	m.disconnected.Store(true)
	m.connected.Store(false)
}
func (m *MockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if m.publishErr != nil {
		return NewMockToken(m.publishErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return NewMockToken(nil)
}
func (m *MockClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return NewMockToken(nil)
}
func (m *MockClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return NewMockToken(nil)
}
func (m *MockClient) Unsubscribe(topics ...string) mqtt.Token          { return NewMockToken(nil) }
func (m *MockClient) AddRoute(topic string, callback mqtt.MessageHandler) {}
func (m *MockClient) IsConnected() bool                                 { return m.connected.Load() }
func (m *MockClient) IsConnectionOpen() bool                            { return m.connected.Load() }
func (m *MockClient) OptionsReader() mqtt.ClientOptionsReader           { return mqtt.ClientOptionsReader{} }

func (m *MockClient) Messages() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.messages...)
}

// mockConn implements natsConn for testing
type mockConn struct {
	connected  atomic.Bool
	closed     atomic.Bool
	flushed    atomic.Bool
	publishErr error

	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func newMockConn() *mockConn {
	c := &mockConn{}
	c.connected.Store(true)
	return c
}

func (c *mockConn) Publish(subject string, data []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func (c *mockConn) Flush() error {
	c.flushed.Store(true)
	return nil
}

func (c *mockConn) IsConnected() bool { return c.connected.Load() }

func (c *mockConn) Close() {
	c.closed.Store(true)
	c.connected.Store(false)
}

// recordingPublisher implements Publisher for forwarder tests
type recordingPublisher struct {
	failAfter int // fail publishes once this many succeeded; -1 never fails
	topics    []string
	payloads  [][]byte
	closed    bool
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	if p.failAfter >= 0 && len(p.payloads) >= p.failAfter {
		return errPublish
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() { p.closed = true }
