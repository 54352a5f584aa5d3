package events

import (
	"context"

	"github.com/IBM/sarama"
)

type SaramaProducer struct {
	producer sarama.SyncProducer
}

func NewSaramaProducer(brokers []string) (*SaramaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return NewSaramaProducerFrom(p), nil
}

// NewSaramaProducerFrom wraps an existing producer, e.g. a mock in tests.
func NewSaramaProducerFrom(p sarama.SyncProducer) *SaramaProducer {
	return &SaramaProducer{producer: p}
}

func (s *SaramaProducer) Publish(ctx context.Context, topic string, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	_, _, err := s.producer.SendMessage(msg)
	return err
}

func (s *SaramaProducer) Close() error {
	return s.producer.Close()
}
