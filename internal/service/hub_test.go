package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_PublishToTopicOnly(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe("auth:1")
	defer cancelA()
	b, cancelB := h.Subscribe("auth:2")
	defer cancelB()

	h.Publish(context.Background(), "auth:1", EventSignedOut, nil)

	ev := recv(t, a)
	assert.Equal(t, EventSignedOut, ev.Name)
	assert.JSONEq(t, "null", string(ev.Data))
	select {
	case <-b:
		t.Fatal("other topic received event")
	default:
	}
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe("chat:club-1")
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	// 取消后发布不应 panic
	h.Publish(context.Background(), "chat:club-1", EventChatMessage, "x")
	assert.Empty(t, h.subs)
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(nil)
	_, cancel := h.Subscribe("t")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish(context.Background(), "t", "n", i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

type memRelay struct {
	ch  chan []byte
	err error
}

func (r *memRelay) Publish(_ context.Context, p []byte) error {
	if r.err != nil {
		return r.err
	}
	r.ch <- p
	return nil
}

func (r *memRelay) Listen(ctx context.Context, handle func([]byte)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p := <-r.ch:
			handle(p)
		}
	}
}

func TestHub_DeliversThroughRelay(t *testing.T) {
	relay := &memRelay{ch: make(chan []byte, 4)}
	h := NewHub(relay)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = h.Run(ctx) }()

	ch, cancel := h.Subscribe("auth:7")
	defer cancel()
	h.Publish(ctx, "auth:7", EventSignedIn, map[string]int{"id": 7})

	ev := recv(t, ch)
	assert.Equal(t, EventSignedIn, ev.Name)
	assert.JSONEq(t, `{"id":7}`, string(ev.Data))
}

func TestHub_FallsBackToLocalWhenRelayFails(t *testing.T) {
	h := NewHub(&memRelay{err: errors.New("down")})
	ch, cancel := h.Subscribe("auth:1")
	defer cancel()

	h.Publish(context.Background(), "auth:1", EventSignedOut, nil)
	assert.Equal(t, EventSignedOut, recv(t, ch).Name)
}
