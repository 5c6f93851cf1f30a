package mintjobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/util"
)

// ErrInvalidJob wraps a record that could not be decoded into a MintJob. Callers
// log it and move on; the record is already consumed.
type ErrInvalidJob struct {
	Key   []byte
	Value []byte
	Err   error
}

func (e ErrInvalidJob) Error() string {
	return fmt.Sprintf("invalid mint job with key %s: %s", e.Key, e.Err)
}

func (e ErrInvalidJob) Unwrap() error {
	return e.Err
}

// Consumer reads mint jobs from the job bus as part of a consumer group
type Consumer struct {
	consumer *kafka.Consumer
}

// NewConsumer creates a consumer subscribed to the configured topic. Offsets are
// committed by librdkafka's auto-commit, so delivery is at least once.
func NewConsumer() (*Consumer, error) {
	configMap := kafka.ConfigMap{
		"bootstrap.servers":  env.GetString("KAFKA_BROKERS"),
		"group.id":           env.GetString("KAFKA_GROUP_ID"),
		"auto.offset.reset":  "earliest",
		"session.timeout.ms": env.GetInt("KAFKA_SESSION_TIMEOUT_MS"),
	}

	if username := env.GetString("KAFKA_USERNAME"); username != "" {
		configMap["security.protocol"] = env.GetString("KAFKA_SECURITY_PROTOCOL")
		configMap["sasl.mechanisms"] = env.GetString("KAFKA_SASL_MECHANISMS")
		configMap["sasl.username"] = username
		configMap["sasl.password"] = env.GetString("KAFKA_PASSWORD")
	}

	c, err := kafka.NewConsumer(&configMap)
	if err != nil {
		return nil, err
	}

	if err := c.SubscribeTopics([]string{env.GetString("KAFKA_TOPIC")}, nil); err != nil {
		c.Close()
		return nil, err
	}

	return &Consumer{consumer: c}, nil
}

// Poll returns the next mint job. A nil job with a nil error means no record
// arrived within the timeout.
func (c *Consumer) Poll(timeout time.Duration) (*MintJob, error) {
	msg, err := c.consumer.ReadMessage(timeout)
	if err != nil {
		if kafkaErr, ok := util.ErrorAs[kafka.Error](err); ok && kafkaErr.Code() == kafka.ErrTimedOut {
			return nil, nil
		}
		return nil, err
	}

	var job MintJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return nil, ErrInvalidJob{Key: msg.Key, Value: msg.Value, Err: err}
	}

	return &job, nil
}

// Close leaves the consumer group
func (c *Consumer) Close() error {
	return c.consumer.Close()
}
