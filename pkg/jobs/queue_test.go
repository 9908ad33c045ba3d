package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDeliversJobs(t *testing.T) {
	done := make(chan string, 4)
	queue := NewQueue[string]("test", func(_ context.Context, job Job[string]) error {
		done <- job.Payload
		return nil
	}, QueueConfig{Workers: 2})

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job[string]{ID: "j1", Payload: "one"}))
	require.NoError(t, queue.Enqueue(Job[string]{ID: "j2", Payload: "two"}))

	received := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case payload := <-done:
			received[payload] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	assert.True(t, received["one"])
	assert.True(t, received["two"])
}

func TestQueueRetriesFailedJob(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	queue := NewQueue[int]("retry", func(_ context.Context, job Job[int]) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job[int]{ID: "j1", Payload: 42}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue[string]("idle", func(context.Context, Job[string]) error { return nil }, QueueConfig{})
	err := queue.Enqueue(Job[string]{ID: "j1"})
	require.Error(t, err)
}

func TestQueueStopIsIdempotent(t *testing.T) {
	queue := NewQueue[string]("stop", func(context.Context, Job[string]) error { return nil }, QueueConfig{})
	queue.Start(context.Background())
	queue.Stop()
	queue.Stop()
}
