package mqtt

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/fleetcoord/infra/logger"
)

// MessageHandler receives a decoded topic and payload. It runs on the paho
// callback goroutine and must not block.
type MessageHandler func(topic string, payload []byte)

// Client is the narrow MQTT surface the bridges need. It is implemented by
// PahoClient and by test fakes.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Disconnect(quiesce uint)
}

// PahoClient implements Client using Eclipse Paho.
type PahoClient struct {
	cli        paho.Client
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
}

// Connect creates a client from the configuration and connects to the
// broker.
func Connect(cfg Config) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_client")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := time.Duration(cfg.BackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PahoClient{cli: cli, log: log, maxRetries: maxRetries, backoff: backoff}, nil
}

// Publish sends the payload, retrying with exponential backoff on failure.
func (p *PahoClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	return publishErr
}

// Subscribe registers the handler for the topic filter.
func (p *PahoClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := p.cli.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect(quiesce uint) {
	p.cli.Disconnect(quiesce)
}
