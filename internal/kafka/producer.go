package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/Capitan-Parrot/safety-monitor/internal/models"
	"github.com/IBM/sarama"
)

// Producer publishes dispatched alerts and feed heartbeats, keyed by feed id
// so per-feed ordering survives partitioning.
type Producer struct {
	producer       sarama.SyncProducer
	alertTopic     string
	heartbeatTopic string
}

func NewProducer(brokers []string, alertTopic, heartbeatTopic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &Producer{
		producer:       producer,
		alertTopic:     alertTopic,
		heartbeatTopic: heartbeatTopic,
	}, nil
}

func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

// PublishAlert fans a dispatched alert out to the alert topic.
func (p *Producer) PublishAlert(ev models.AlertEvent) error {
	return p.send(p.alertTopic, ev.FeedID, ev)
}

// SendHeartbeat publishes one feed liveness record.
func (p *Producer) SendHeartbeat(hb models.Heartbeat) error {
	return p.send(p.heartbeatTopic, hb.FeedID, hb)
}

func (p *Producer) send(topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	_, _, err = p.producer.SendMessage(msg)
	return err
}
