package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "scan", Body: []byte("r1")}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "scan", msg.Type)
		assert.Equal(t, "r1", string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestInMemoryPublishNeverBlocksWhenFull(t *testing.T) {
	ctx := context.Background()
	q := NewInMemory(1)
	require.NoError(t, q.Publish(ctx, Message{Type: "scan", Body: []byte("r1")}))

	// No consumer attached: the second publish must return at once with
	// the message dropped, not park the caller.
	done := make(chan error, 1)
	go func() {
		done <- q.Publish(ctx, Message{Type: "scan", Body: []byte("r2")})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrFull)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("publish blocked on a full buffer")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: "scan", Body: []byte("id|with|pipes")}
	back := deserialize(serialize(msg))
	assert.Equal(t, msg, back)
}
