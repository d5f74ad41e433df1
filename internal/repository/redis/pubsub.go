package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RealtimeChannel 所有实例共享的实时事件频道
const RealtimeChannel = "ufresher:realtime"

// Broker 基于 Redis Pub/Sub 在实例间转发实时消息
type Broker struct {
	RDB     *redis.Client
	Channel string
}

func (b *Broker) channel() string {
	if b.Channel != "" {
		return b.Channel
	}
	return RealtimeChannel
}

func (b *Broker) Publish(ctx context.Context, payload []byte) error {
	return b.RDB.Publish(ctx, b.channel(), payload).Err()
}

// Listen 阻塞读取频道消息直到 ctx 结束
func (b *Broker) Listen(ctx context.Context, handle func([]byte)) error {
	sub := b.RDB.Subscribe(ctx, b.channel())
	defer sub.Close()
	// 等待订阅确认，保证之后的 Publish 不会丢
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handle([]byte(msg.Payload))
		}
	}
}
