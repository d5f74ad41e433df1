package service

import (
	"context"
	"encoding/json"
	"sync"

	"UFresher/internal/telemetry"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Event 实时事件，Topic 形如 auth:<user_id> 或 chat:<room>
type Event struct {
	Topic string          `json:"topic"`
	Name  string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Relay 跨实例转发，由 redis Pub/Sub 实现
type Relay interface {
	Publish(ctx context.Context, payload []byte) error
	Listen(ctx context.Context, handle func([]byte)) error
}

// Hub 进程内的发布订阅。配置了 relay 时事件先经 relay 广播，
// 再由每个实例的 Listen 回调投递到本地订阅者
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan Event
	nextID uint64
	relay  Relay
}

func NewHub(relay Relay) *Hub {
	return &Hub{subs: make(map[string]map[uint64]chan Event), relay: relay}
}

// Subscribe 返回事件 channel 与取消函数，取消函数可重复调用
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]chan Event)
	}
	h.subs[topic][id] = ch
	h.mu.Unlock()
	telemetry.RealtimeSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if m, ok := h.subs[topic]; ok {
				delete(m, id)
				if len(m) == 0 {
					delete(h.subs, topic)
				}
			}
			h.mu.Unlock()
			close(ch)
			telemetry.RealtimeSubscribers.Dec()
		})
	}
}

// Publish relay 不可用时退化为本地投递
func (h *Hub) Publish(ctx context.Context, topic, name string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		zap.L().Error("hub marshal event failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	ev := Event{Topic: topic, Name: name, Data: raw}
	if h.relay != nil {
		payload, _ := json.Marshal(ev)
		if err = h.relay.Publish(ctx, payload); err == nil {
			return
		}
		zap.L().Warn("hub relay publish failed, delivering locally", zap.String("topic", topic), zap.Error(err))
	}
	h.deliver(ev)
}

// deliver 非阻塞投递，慢订阅者直接丢弃
func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
			zap.L().Debug("hub subscriber slow, event dropped", zap.String("topic", ev.Topic))
		}
	}
}

// Run 消费 relay 消息直到 ctx 结束，没有 relay 时直接返回
func (h *Hub) Run(ctx context.Context) error {
	if h.relay == nil {
		return nil
	}
	return h.relay.Listen(ctx, func(payload []byte) {
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			zap.L().Warn("hub bad relay payload", zap.Error(err))
			return
		}
		h.deliver(ev)
	})
}
