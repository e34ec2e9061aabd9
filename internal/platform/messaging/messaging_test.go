package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	contractsv1 "vitrine/contracts/gen/events/v1"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope(eventID string) contractsv1.Envelope {
	data, _ := json.Marshal(contractsv1.WorkflowCompletedData{WorkflowID: "wf_1", MerchantID: "merchant_1"})
	return contractsv1.Envelope{
		EventID:       eventID,
		EventType:     contractsv1.EventTypeWorkflowCompleted,
		OccurredAt:    time.Now().UTC(),
		SourceService: "workflow-tracker",
		SchemaVersion: 1,
		PartitionKey:  "wf_1",
		Data:          data,
	}
}

func TestInProcessDeliversToEverySubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewInProcess(nil)

	first := make(chan contractsv1.Envelope, 1)
	second := make(chan contractsv1.Envelope, 1)
	require.NoError(t, bus.Subscribe(ctx, contractsv1.TopicWorkflowCompleted, "a", func(_ context.Context, e contractsv1.Envelope) error {
		first <- e
		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, contractsv1.TopicWorkflowCompleted, "b", func(_ context.Context, e contractsv1.Envelope) error {
		second <- e
		return errors.New("handler failure is only logged")
	}))

	require.NoError(t, bus.Publish(ctx, contractsv1.TopicWorkflowCompleted, testEnvelope("evt_1")))
	for _, ch := range []chan contractsv1.Envelope{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, "evt_1", got.EventID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestInProcessIgnoresOtherTopics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewInProcess(nil)

	var calls atomic.Int32
	require.NoError(t, bus.Subscribe(ctx, "other.topic", "g", func(context.Context, contractsv1.Envelope) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, bus.Publish(ctx, contractsv1.TopicWorkflowCompleted, testEnvelope("evt_2")))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func setupStreams(t *testing.T) (*RedisStreams, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStreams(client, nil, WithConsumerName("test-consumer"), WithBlock(50*time.Millisecond)), client
}

func TestRedisStreamsDeliversAndAcknowledges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus, client := setupStreams(t)

	received := make(chan contractsv1.Envelope, 1)
	require.NoError(t, bus.Subscribe(ctx, contractsv1.TopicWorkflowCompleted, "onboarding-status", func(_ context.Context, e contractsv1.Envelope) error {
		received <- e
		return nil
	}))
	require.NoError(t, bus.Publish(ctx, contractsv1.TopicWorkflowCompleted, testEnvelope("evt_3")))

	select {
	case got := <-received:
		assert.Equal(t, "evt_3", got.EventID)
		assert.Equal(t, contractsv1.EventTypeWorkflowCompleted, got.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	assert.Eventually(t, func() bool {
		pending, err := client.XPending(ctx, contractsv1.TopicWorkflowCompleted, "onboarding-status").Result()
		return err == nil && pending.Count == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisStreamsLeavesFailedEntriesPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus, client := setupStreams(t)

	var calls atomic.Int32
	require.NoError(t, bus.Subscribe(ctx, contractsv1.TopicWorkflowCompleted, "g", func(context.Context, contractsv1.Envelope) error {
		calls.Add(1)
		return errors.New("store unavailable")
	}))
	require.NoError(t, bus.Publish(ctx, contractsv1.TopicWorkflowCompleted, testEnvelope("evt_4")))

	assert.Eventually(t, func() bool {
		pending, err := client.XPending(ctx, contractsv1.TopicWorkflowCompleted, "g").Result()
		return err == nil && pending.Count == 1 && calls.Load() == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisStreamsSubscribeTwiceReusesGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus, _ := setupStreams(t)

	noop := func(context.Context, contractsv1.Envelope) error { return nil }
	require.NoError(t, bus.Subscribe(ctx, "topic.x", "g", noop))
	require.NoError(t, bus.Subscribe(ctx, "topic.x", "g", noop))
}
