package trialevents

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const streamMaxLen = 10000

// NewRedisClient connects and pings a Redis server
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func streamKey(sessionID string) string {
	return fmt.Sprintf("trial:%s:events", sessionID)
}

// RedisPublisher appends session events to a Redis stream per session
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, sessionID string, event *Event) error {
	if p == nil || p.rdb == nil {
		return errors.New("redis client not available")
	}
	data, err := MarshalEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(sessionID),
		Values: map[string]interface{}{"data": data},
		MaxLen: streamMaxLen,
		Approx: true,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// streamReader is the part of the Redis client the consumer reads with
type streamReader interface {
	XRevRangeN(ctx context.Context, stream, start, stop string, count int64) *redis.XMessageSliceCmd
	XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd
}

// StreamConsumer forwards a session's Redis stream to a local hub, so
// observers connected to any instance see every event. Each instance reads
// the whole stream with XREAD; there is no consumer group to share.
type StreamConsumer struct {
	rdb streamReader
	hub SessionHub
	log *zap.SugaredLogger

	mu        sync.Mutex
	followers map[string]*follower
}

type follower struct {
	refs   int
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStreamConsumer(rdb *redis.Client, hub SessionHub, log *zap.SugaredLogger) *StreamConsumer {
	return newStreamConsumer(rdb, hub, log)
}

func newStreamConsumer(rdb streamReader, hub SessionHub, log *zap.SugaredLogger) *StreamConsumer {
	return &StreamConsumer{rdb: rdb, hub: hub, log: log, followers: make(map[string]*follower)}
}

// Follow makes sure one reader forwards the session's stream while any
// observer on this instance needs it. The returned func releases the caller's
// interest; the reader stops when the last observer releases.
func (sc *StreamConsumer) Follow(sessionID string) func() {
	sc.mu.Lock()
	f, ok := sc.followers[sessionID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		f = &follower{cancel: cancel, done: make(chan struct{})}
		sc.followers[sessionID] = f
		go func() {
			defer close(f.done)
			if err := sc.Consume(ctx, sessionID); err != nil && !errors.Is(err, context.Canceled) {
				sc.log.Warnw("stream consumer stopped", "session", sessionID, "error", err)
			}
		}()
	}
	f.refs++
	sc.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sc.mu.Lock()
			defer sc.mu.Unlock()
			f.refs--
			if f.refs == 0 {
				f.cancel()
				if sc.followers[sessionID] == f {
					delete(sc.followers, sessionID)
				}
			}
		})
	}
}

// Following reports how many observers hold the session's reader
func (sc *StreamConsumer) Following(sessionID string) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if f, ok := sc.followers[sessionID]; ok {
		return f.refs
	}
	return 0
}

// Consume blocks reading the session stream from its current tail until ctx
// is cancelled
func (sc *StreamConsumer) Consume(ctx context.Context, sessionID string) error {
	stream := streamKey(sessionID)
	last, err := sc.tail(ctx, stream)
	if err != nil {
		return err
	}

	for ctx.Err() == nil {
		streams, err := sc.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, last},
			Count:   100,
			Block:   time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			sc.log.Warnw("stream read failed", "session", sessionID, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		for _, s := range streams {
			for _, msg := range s.Messages {
				if err := sc.processMessage(sessionID, msg); err != nil {
					sc.log.Warnw("dropping malformed stream message", "session", sessionID, "id", msg.ID, "error", err)
				}
				last = msg.ID
			}
		}
	}
	return ctx.Err()
}

// tail is the id of the newest entry, so reading starts after it
func (sc *StreamConsumer) tail(ctx context.Context, stream string) (string, error) {
	msgs, err := sc.rdb.XRevRangeN(ctx, stream, "+", "-", 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read stream tail: %w", err)
	}
	if len(msgs) == 0 {
		return "0-0", nil
	}
	return msgs[0].ID, nil
}

func (sc *StreamConsumer) processMessage(sessionID string, message redis.XMessage) error {
	data, ok := message.Values["data"].(string)
	if !ok {
		return fmt.Errorf("invalid message format: missing data field")
	}
	event, err := UnmarshalEvent(data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	sc.hub.BroadcastToSession(sessionID, event)
	return nil
}
