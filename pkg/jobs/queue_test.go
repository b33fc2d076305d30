package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make([]string, 0)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Payload.(string))
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "echo", Payload: "a"}))
	require.NoError(t, q.Enqueue(Job{Type: "echo", Payload: "b"}))
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestQueueRetriesThenSucceeds(t *testing.T) {
	var calls int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))
	q.Wait()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueDeadLetter(t *testing.T) {
	var dead []Job
	var mu sync.Mutex
	q := NewQueue("dead", func(ctx context.Context, job Job) error {
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond, DeadLetter: func(job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		dead = append(dead, job)
	}})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "broken"}))
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, dead, 1)
	assert.Equal(t, "job-1", dead[0].ID)
	assert.Equal(t, 2, dead[0].Attempt)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{}))
	q.Wait()
}

func TestQueueReportsFinalOutcome(t *testing.T) {
	q := NewQueue("outcome", func(ctx context.Context, job Job) error {
		if job.Payload == "bad" {
			return errors.New("permanent")
		}
		return nil
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	results := make(chan error, 2)
	require.NoError(t, q.Enqueue(Job{Type: "ok", Payload: "good", Done: func(err error) { results <- err }}))
	assert.NoError(t, <-results)

	require.NoError(t, q.Enqueue(Job{Type: "broken", Payload: "bad", Done: func(err error) { results <- err }}))
	assert.EqualError(t, <-results, "permanent")
	q.Wait()
}
