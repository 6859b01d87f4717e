package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Topics consumed by the notification and commission services.
const (
	TopicPurchaseInitiated = "purchase.initiated"
	TopicPurchaseConfirmed = "purchase.confirmed"
	TopicPropertyAllocated = "property.allocated"
)

// Publisher is the fire-and-forget event contract the purchase flow uses.
type Publisher interface {
	Publish(topic string, message map[string]interface{})
}

type Producer struct {
	producer sarama.AsyncProducer
}

func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	go func() {
		for err := range producer.Errors() {
			log.Printf("failed to send event: %v", err)
		}
	}()

	return &Producer{producer: producer}, nil
}

func (p *Producer) Publish(topic string, message map[string]interface{}) {
	bytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("failed to encode event for %s: %v", topic, err)
		return
	}
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(bytes),
	}
}

func (p *Producer) Close() error {
	return p.producer.Close()
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, map[string]interface{}) {}

// Nop returns a publisher that drops everything, used when no brokers are
// configured and in tests.
func Nop() Publisher {
	return nopPublisher{}
}
