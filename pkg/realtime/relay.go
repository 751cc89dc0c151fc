package realtime

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

const relayChannel = "taleweave:invalidations"

type relayMessage struct {
	Origin string `json:"origin"`
	Invalidation
}

// RedisRelay shares invalidations between API processes through Redis
// pub/sub. Messages a process sent itself are ignored on the way back in,
// since the local hub has already delivered them.
type RedisRelay struct {
	rdb    *redis.Client
	hub    *Hub
	origin string
}

func NewRedisRelay(rdb *redis.Client, hub *Hub) *RedisRelay {
	relay := &RedisRelay{rdb: rdb, hub: hub, origin: uuid.New().String()}
	hub.SetRelay(relay)
	return relay
}

func (r *RedisRelay) Publish(ctx context.Context, inv Invalidation) error {
	payload, err := json.Marshal(relayMessage{Origin: r.origin, Invalidation: inv})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(r.rdb.Publish(ctx, relayChannel, payload).Err())
}

// Run delivers invalidations published by other processes to the local hub
// until ctx is done. It returns once the subscription is confirmed.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, relayChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return errors.WithStack(err)
	}

	log := logger.FromContext(ctx)
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m relayMessage
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					log.Err(err).Warn("dropping malformed invalidation")
					continue
				}
				if m.Origin == r.origin {
					continue
				}
				r.hub.deliver(m.Invalidation)
			}
		}
	}()
	return nil
}
