package queue

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DeadLetterSuffix is appended to a job topic to name its failure topic.
const DeadLetterSuffix = ".failed"

// Handler processes one job payload. A returned error is terminal for that
// delivery: the job goes to the dead-letter topic and is not retried here.
type Handler func(ctx context.Context, payload []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Permanent marks a handler error as not worth retrying, e.g. a malformed job
// or one naming a record that does not exist.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Consumer pulls jobs from one topic and handles them one at a time. Offsets
// are committed only after the handler returned, so a crash mid-job means
// redelivery to another member of the group. A failing job is retried up to
// maxRetries times with exponential backoff before it is dead-lettered.
type Consumer struct {
	reader       messageReader
	deadLetter   messageWriter
	topic        string
	maxRetries   int
	retryBackoff time.Duration
	logger       *zap.Logger
}

func NewConsumer(r messageReader, deadLetter messageWriter, topic string, maxRetries int, retryBackoff time.Duration, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:       r,
		deadLetter:   deadLetter,
		topic:        topic,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	bo.MaxInterval = 30 * time.Second

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := bo.NextBackOff()
			c.logger.Error("kafka fetch failed", zap.String("topic", c.topic), zap.Duration("retry_in", wait), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		if herr := c.handleWithRetry(ctx, handle, m); herr != nil {
			if ctx.Err() != nil {
				// not committed, the job is redelivered after restart
				return nil
			}
			c.logger.Warn("job failed",
				zap.String("topic", c.topic),
				zap.Int64("offset", m.Offset),
				zap.Error(herr))
			c.sendToDeadLetter(ctx, m, herr)
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("kafka commit failed", zap.String("topic", c.topic), zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, handle Handler, m kafka.Message) error {
	bo := backoff.NewExponentialBackOff()
	if c.retryBackoff > 0 {
		bo.InitialInterval = c.retryBackoff
	}
	bo.MaxElapsedTime = 0

	policy := backoff.WithMaxRetries(bo, uint64(max(c.maxRetries, 0)))
	return backoff.RetryNotify(func() error {
		return handle(ctx, m.Value)
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		c.logger.Info("job retry scheduled",
			zap.String("topic", c.topic),
			zap.Int64("offset", m.Offset),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	})
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, m kafka.Message, cause error) {
	if c.deadLetter == nil {
		return
	}
	dl := kafka.Message{
		Topic:   c.topic + DeadLetterSuffix,
		Key:     m.Key,
		Value:   m.Value,
		Headers: []kafka.Header{{Key: "error", Value: []byte(cause.Error())}},
		Time:    time.Now(),
	}
	if err := c.deadLetter.WriteMessages(ctx, dl); err != nil {
		c.logger.Error("dead-letter publish failed", zap.String("topic", dl.Topic), zap.Error(err))
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
