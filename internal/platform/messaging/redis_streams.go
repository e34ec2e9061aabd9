package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	contractsv1 "vitrine/contracts/gen/events/v1"

	"github.com/redis/go-redis/v9"
)

const envelopeField = "envelope"

// RedisStreams maps topics to Redis streams and consumer groups to stream
// consumer groups. A handler error leaves the entry pending so it can be
// claimed again; success acknowledges it.
type RedisStreams struct {
	client   *redis.Client
	consumer string
	block    time.Duration
	batch    int64
	maxLen   int64
	logger   *slog.Logger
}

type RedisStreamsOption func(*RedisStreams)

// WithConsumerName overrides the per-process consumer name (default host-pid).
func WithConsumerName(name string) RedisStreamsOption {
	return func(b *RedisStreams) {
		if strings.TrimSpace(name) != "" {
			b.consumer = name
		}
	}
}

// WithBlock sets how long one XREADGROUP call waits for new entries.
func WithBlock(block time.Duration) RedisStreamsOption {
	return func(b *RedisStreams) {
		if block > 0 {
			b.block = block
		}
	}
}

func NewRedisStreams(client *redis.Client, logger *slog.Logger, opts ...RedisStreamsOption) *RedisStreams {
	if logger == nil {
		logger = slog.Default()
	}
	host, _ := os.Hostname()
	bus := &RedisStreams{
		client:   client,
		consumer: fmt.Sprintf("%s-%d", host, os.Getpid()),
		block:    2 * time.Second,
		batch:    16,
		maxLen:   100000,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

func (b *RedisStreams) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		MaxLen: b.maxLen,
		Approx: true,
		Values: map[string]any{envelopeField: payload},
	}).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", topic, err)
	}
	return nil
}

func (b *RedisStreams) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	err := b.client.XGroupCreateMkStream(ctx, topic, consumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on %s: %w", consumerGroup, topic, err)
	}

	go b.consume(ctx, topic, consumerGroup, handler)
	return nil
}

func (b *RedisStreams) consume(
	ctx context.Context,
	topic string,
	group string,
	handler func(context.Context, contractsv1.Envelope) error,
) {
	for ctx.Err() == nil {
		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.consumer,
			Streams:  []string{topic, ">"},
			Count:    b.batch,
			Block:    b.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			b.logger.Error("stream read failed",
				"event", "bus_stream_read_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				b.handle(ctx, topic, group, message, handler)
			}
		}
	}
}

func (b *RedisStreams) handle(
	ctx context.Context,
	topic string,
	group string,
	message redis.XMessage,
	handler func(context.Context, contractsv1.Envelope) error,
) {
	raw, _ := message.Values[envelopeField].(string)
	var event contractsv1.Envelope
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		// poison entry: acknowledge so it does not block the group
		b.logger.Error("stream entry decode failed",
			"event", "bus_stream_decode_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"stream_id", message.ID,
			"error", err.Error(),
		)
		_ = b.client.XAck(ctx, topic, group, message.ID).Err()
		return
	}

	if err := handler(ctx, event); err != nil {
		b.logger.Error("consumer handler failed",
			"event", "bus_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", group,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return
	}
	if err := b.client.XAck(ctx, topic, group, message.ID).Err(); err != nil {
		b.logger.Warn("stream ack failed",
			"event", "bus_stream_ack_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"stream_id", message.ID,
			"error", err.Error(),
		)
	}
}
