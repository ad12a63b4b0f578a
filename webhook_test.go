package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookDispatcher_DeliversEvent(t *testing.T) {
	recorder := newWebhookRecorder(t)

	d := newWebhookDispatcher(recorder.server.URL)
	d.Start()
	defer d.Stop()

	d.Emit(EventSync, map[string]interface{}{"user_id": "u1", "device_count": 3})

	events := recorder.waitForEvents(t, EventSync, 1)
	event := events[0]

	assert.Equal(t, EventSync, event.Type)

	ts, err := time.Parse(time.RFC3339, event.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)

	payload, ok := event.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "u1", payload["user_id"])
	assert.EqualValues(t, 3, payload["device_count"])
}

func TestWebhookDispatcher_EmptyURLIsNoOp(t *testing.T) {
	d := newWebhookDispatcher("")
	d.Start()
	defer d.Stop()

	// Must not panic or block; no workers are running
	for i := 0; i < DefaultQueueSize*2; i++ {
		d.Emit(EventExecute, nil)
	}
}

func TestWebhookDispatcher_FailuresDoNotPropagate(t *testing.T) {
	var calls atomic.Int64
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "rejected", http.StatusBadGateway)
	}))
	defer failing.Close()

	d := newWebhookDispatcher(failing.URL)
	d.Start()

	d.Emit(EventOfflineFallback, map[string]interface{}{"device_ids": []string{"light.kitchen"}})
	d.Stop() // drains the queue, waiting for the delivery attempt

	assert.EqualValues(t, 1, calls.Load())
}

func TestWebhookDispatcher_UnreachableEndpoint(t *testing.T) {
	// Closed server: delivery errors must be swallowed
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := dead.URL
	dead.Close()

	d := newWebhookDispatcher(url)
	d.Start()
	d.Emit(EventSync, nil)
	d.Stop()
}

func TestWorkerPool_DropsWhenQueueFull(t *testing.T) {
	var delivered atomic.Int64
	release := make(chan struct{})

	wp := &workerPool{
		workers: 1,
		queue:   make(chan WebhookEvent, 1),
		deliver: func(_ context.Context, _ WebhookEvent) error {
			<-release
			delivered.Add(1)
			return nil
		},
	}
	wp.Start()

	// First event occupies the worker, second fills the queue, the rest
	// must be dropped without blocking
	for i := 0; i < 10; i++ {
		wp.Submit(WebhookEvent{Type: EventSync})
	}
	close(release)
	wp.Stop()

	assert.LessOrEqual(t, delivered.Load(), int64(3))
	assert.GreaterOrEqual(t, delivered.Load(), int64(1))
}

func TestWorkerPool_StopIsIdempotent(t *testing.T) {
	wp := &workerPool{
		workers: 2,
		queue:   make(chan WebhookEvent, 4),
		deliver: func(context.Context, WebhookEvent) error { return nil },
	}
	wp.Start()
	wp.Stop()
	wp.Stop()
}
