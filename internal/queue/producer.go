package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a writer that routes each message by its Topic field, so
// a single writer serves the job topics and their dead-letter topics.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

type Producer struct {
	writer       messageWriter
	breaker      *gobreaker.CircuitBreaker
	fileTopic    string
	userTopic    string
	writeTimeout time.Duration
}

func NewProducer(w messageWriter, fileTopic, userTopic string, writeTimeout time.Duration) *Producer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-producer",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
	return &Producer{
		writer:       w,
		breaker:      cb,
		fileTopic:    fileTopic,
		userTopic:    userTopic,
		writeTimeout: writeTimeout,
	}
}

func (p *Producer) EnqueueFile(ctx context.Context, job FileJob) error {
	return p.publish(ctx, p.fileTopic, job.FileID, job)
}

func (p *Producer) EnqueueUser(ctx context.Context, job UserJob) error {
	return p.publish(ctx, p.userTopic, job.UserID, job)
}

func (p *Producer) publish(ctx context.Context, topic, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: b, Time: time.Now()}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		wctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
		return nil, p.writer.WriteMessages(wctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
