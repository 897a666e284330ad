package kafka

import (
	"context"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Consumer wraps a Sarama consumer group reading feed control commands.
type Consumer struct {
	group    sarama.ConsumerGroup
	topic    string
	messages chan ConsumerMessage
	closed   chan struct{}
}

// ConsumerMessage carries the payload plus the session needed to ack it after
// successful handling.
type ConsumerMessage struct {
	Value   []byte
	Session sarama.ConsumerGroupSession
	Message *sarama.ConsumerMessage
}

// Ack marks the message as processed.
func (m ConsumerMessage) Ack() {
	if m.Session != nil && m.Message != nil {
		m.Session.MarkMessage(m.Message, "")
	}
}

func NewConsumer(brokers []string, groupID, topic string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:    group,
		topic:    topic,
		messages: make(chan ConsumerMessage),
		closed:   make(chan struct{}),
	}, nil
}

// StartListening consumes the command topic until the context is cancelled,
// retrying failed consumption cycles.
func (c *Consumer) StartListening(ctx context.Context) {
	handler := &consumerGroupHandler{
		messages: c.messages,
		closed:   c.closed,
	}

	go func() {
		defer close(c.messages)

		retryDelay := 5 * time.Second
		for {
			select {
			case <-ctx.Done():
				log.Println("Consumer: context cancelled, stopping")
				return
			default:
				err := c.group.Consume(ctx, []string{c.topic}, handler)
				if err != nil {
					log.Printf("Consume error: %v, retrying in %v", err, retryDelay)
					select {
					case <-ctx.Done():
						return
					case <-time.After(retryDelay):
					}
					continue
				}

				if ctx.Err() != nil {
					return
				}
			}
		}
	}()
}

func (c *Consumer) Close() error {
	close(c.closed)
	return c.group.Close()
}

// Messages returns the channel of received commands.
func (c *Consumer) Messages() <-chan ConsumerMessage {
	return c.messages
}

type consumerGroupHandler struct {
	messages chan<- ConsumerMessage
	closed   <-chan struct{}
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			select {
			case h.messages <- ConsumerMessage{
				Value:   msg.Value,
				Session: sess,
				Message: msg,
			}:
				// Ack happens after the handler processed the command
			case <-sess.Context().Done():
				return nil
			case <-h.closed:
				return nil
			}
		case <-sess.Context().Done():
			return nil
		case <-h.closed:
			return nil
		}
	}
}
