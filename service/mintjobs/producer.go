package mintjobs

import (
	"encoding/json"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/logger"
)

// ProducerOption adjusts the producer's librdkafka configuration before it is built
type ProducerOption func(configMap kafka.ConfigMap)

// WithMessageTimeout bounds how long a record may wait for delivery before its
// report comes back as an error.
func WithMessageTimeout(d time.Duration) ProducerOption {
	return func(configMap kafka.ConfigMap) {
		configMap["message.timeout.ms"] = int(d.Milliseconds())
	}
}

// Producer publishes mint jobs keyed by contract address, so records for one
// contract land on one partition in the order they were produced.
type Producer struct {
	topic    string
	producer *kafka.Producer
}

// NewProducer creates a producer for the configured topic. SASL settings apply only
// when credentials are configured, so local plaintext brokers work out of the box.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	configMap := kafka.ConfigMap{
		"bootstrap.servers": env.GetString("KAFKA_BROKERS"),
	}

	if username := env.GetString("KAFKA_USERNAME"); username != "" {
		configMap["security.protocol"] = env.GetString("KAFKA_SECURITY_PROTOCOL")
		configMap["sasl.mechanisms"] = env.GetString("KAFKA_SASL_MECHANISMS")
		configMap["sasl.username"] = username
		configMap["sasl.password"] = env.GetString("KAFKA_PASSWORD")
	}

	for _, opt := range opts {
		opt(configMap)
	}

	p, err := kafka.NewProducer(&configMap)
	if err != nil {
		return nil, err
	}

	producer := &Producer{topic: env.GetString("KAFKA_TOPIC"), producer: p}
	go producer.logDeliveryReports()

	return producer, nil
}

// Produce marshals the job and enqueues it without waiting for the broker, keeping
// the caller's per-contract ordering intact. Delivery outcomes surface through the
// report goroutine.
func (p *Producer) Produce(pJob MintJob) error {
	value, err := json.Marshal(pJob)
	if err != nil {
		return err
	}

	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(pJob.ContractAddress),
		Value:          value,
	}, nil)
}

func (p *Producer) logDeliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.For(nil).WithError(ev.TopicPartition.Error).Errorf("failed to deliver mint job with key %s", ev.Key)
			} else {
				logger.For(nil).Debugf("delivered mint job with key %s to %s", ev.Key, ev.TopicPartition)
			}
		case kafka.Error:
			logger.For(nil).Errorf("producer error: %v", ev)
		}
	}
}

// Close flushes outstanding records and shuts the producer down
func (p *Producer) Close() {
	p.producer.Flush(int((time.Second * 15).Milliseconds()))
	p.producer.Close()
}
