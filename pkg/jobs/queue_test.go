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

func TestQueueDispatchesByType(t *testing.T) {
	q := New("test", Config{Workers: 2})
	got := make(chan Job, 1)
	q.Handle("mail", func(_ context.Context, job Job) error {
		got <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "mail", Payload: "hola"}))

	select {
	case job := <-got:
		assert.Equal(t, "hola", job.Payload)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	q := New("test", Config{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	var calls int32
	done := make(chan struct{})
	q.Handle("mail", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("smtp down")
		}
		close(done)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "mail"}))

	select {
	case <-done:
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	case <-time.After(time.Second):
		t.Fatal("job was not retried")
	}
}

func TestQueueRejectsBeforeStartAndAfterStop(t *testing.T) {
	q := New("test", Config{})
	assert.ErrorIs(t, q.Enqueue(Job{Type: "mail"}), ErrNotStarted)

	q.Start(context.Background())
	require.NoError(t, q.Stop(context.Background()))
	assert.ErrorIs(t, q.Enqueue(Job{Type: "mail"}), ErrClosed)
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	q := New("test", Config{Workers: 1, BufferSize: 8})
	var processed int32
	q.Handle("mail", func(context.Context, Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	})
	q.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "mail"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Stop(ctx))
	assert.EqualValues(t, 5, atomic.LoadInt32(&processed))
}

func TestQueueEnqueueDoesNotBlockWhenFull(t *testing.T) {
	q := New("test", Config{Workers: 1, BufferSize: 1})
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q.Handle("slow", func(context.Context, Job) error {
		started <- struct{}{}
		<-release
		return nil
	})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "slow"}))
	<-started
	require.NoError(t, q.Enqueue(Job{Type: "slow"}))
	assert.ErrorIs(t, q.Enqueue(Job{Type: "slow"}), ErrFull)

	close(release)
	require.NoError(t, q.Stop(context.Background()))
}

func TestQueueStopWaitsForPendingRetry(t *testing.T) {
	q := New("test", Config{Workers: 1, MaxRetries: 1, RetryDelay: 20 * time.Millisecond})
	var calls int32
	failed := make(chan struct{})
	q.Handle("mail", func(context.Context, Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(failed)
			return errors.New("smtp down")
		}
		return nil
	})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "mail"}))
	<-failed

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Stop(ctx))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.ErrorIs(t, q.Enqueue(Job{Type: "mail"}), ErrClosed)
}

func TestQueueStopTimesOutOnLongRetry(t *testing.T) {
	q := New("test", Config{Workers: 1, MaxRetries: 3, RetryDelay: time.Hour})
	failed := make(chan struct{}, 1)
	q.Handle("mail", func(context.Context, Job) error {
		failed <- struct{}{}
		return errors.New("smtp down")
	})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "mail"}))
	<-failed

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.Stop(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
