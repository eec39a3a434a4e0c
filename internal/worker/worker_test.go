package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerRunsJobAndPublishesResult(t *testing.T) {
	w := New()
	defer w.Close()

	w.Submit(Job{Build: func() any { return 42 }})

	select {
	case r := <-w.Results():
		assert.Equal(t, 42, r.Value)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestWorkerEnforcesMinDuration(t *testing.T) {
	w := New()
	defer w.Close()

	start := time.Now()
	w.Submit(Job{Build: func() any { return "done" }, MinDuration: 50 * time.Millisecond})

	select {
	case r := <-w.Results():
		assert.Equal(t, "done", r.Value)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestWorkerRunsJobsInSubmissionOrder(t *testing.T) {
	w := New()
	defer w.Close()

	go func() {
		w.Submit(Job{Build: func() any { return 1 }})
		w.Submit(Job{Build: func() any { return 2 }})
	}()

	var got []any
	for i := 0; i < 2; i++ {
		select {
		case r := <-w.Results():
			got = append(got, r.Value)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for result")
		}
	}
	require.Equal(t, []any{1, 2}, got)
}

func TestCloseStopsAcceptingWork(t *testing.T) {
	w := New()
	w.Close()
	w.Close() // idempotent

	done := make(chan struct{})
	go func() {
		w.Submit(Job{Build: func() any { return nil }})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit should not block forever after Close")
	}
}
