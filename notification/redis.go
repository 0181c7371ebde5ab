package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ShivaSirikonda/smart-subscription/pkg/logger"
)

// maxStreamLen caps each stream so an absent consumer cannot grow redis
// without bound. Trimming is approximate (XADD MAXLEN ~).
const maxStreamLen = 10_000

// RedisPublisher publishes messages onto a redis stream per channel.
type RedisPublisher struct {
	client redis.UniversalClient
}

// NewRedisPublisher creates a stream-backed publisher. Panics on nil client.
func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	if client == nil {
		panic("notification: redis client is required")
	}
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel, key string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: channel,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"key":     key,
			"payload": body,
		},
	}).Err()
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// StreamReader tails the notifications stream and feeds each message to the
// Consumer. Malformed entries are logged and skipped; the reader never stops
// on a bad message.
type StreamReader struct {
	client   redis.UniversalClient
	consumer *Consumer
	log      *slog.Logger
	stream   string
	block    time.Duration
}

// StreamReaderOption configures a StreamReader.
type StreamReaderOption func(*StreamReader)

// WithReaderLogger sets the reader logger. Nil loggers are ignored.
func WithReaderLogger(log *slog.Logger) StreamReaderOption {
	return func(r *StreamReader) {
		if log != nil {
			r.log = log
		}
	}
}

// WithReaderStream overrides the stream name, default ChannelNotifications.
func WithReaderStream(stream string) StreamReaderOption {
	return func(r *StreamReader) {
		if stream != "" {
			r.stream = stream
		}
	}
}

// NewStreamReader creates a reader over the notifications stream.
// Panics on nil client or consumer.
func NewStreamReader(client redis.UniversalClient, consumer *Consumer, opts ...StreamReaderOption) *StreamReader {
	if client == nil {
		panic("notification: redis client is required")
	}
	if consumer == nil {
		panic("notification: Consumer is required")
	}

	r := &StreamReader{
		client:   client,
		consumer: consumer,
		log:      slog.Default(),
		stream:   ChannelNotifications,
		block:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run tails the stream until the context is cancelled. Only messages
// published after startup are consumed; there is no replay of history.
func (r *StreamReader) Run(ctx context.Context) error {
	lastID := "$"

	r.log.InfoContext(ctx, "notification stream reader started", slog.String("stream", r.stream))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		streams, err := r.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{r.stream, lastID},
			Count:   64,
			Block:   r.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.ErrorContext(ctx, "failed to read notification stream", logger.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				payload, err := decodeStreamMessage(msg)
				if err != nil {
					r.log.ErrorContext(ctx, "skipping malformed stream entry",
						slog.String("id", msg.ID),
						logger.Error(err))
					continue
				}
				r.consumer.Process(ctx, payload)
			}
		}
	}
}

func decodeStreamMessage(msg redis.XMessage) (map[string]any, error) {
	raw, ok := msg.Values["payload"]
	if !ok {
		return nil, fmt.Errorf("stream entry %s has no payload field", msg.ID)
	}
	body, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("stream entry %s payload is not a string", msg.ID)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("decode stream entry %s: %w", msg.ID, err)
	}
	return payload, nil
}
