package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// workerPool manages a pool of goroutines delivering webhook events
// asynchronously so the response path never waits on a slow webhook
// endpoint.
type workerPool struct {
	workers int
	queue   chan WebhookEvent
	deliver func(context.Context, WebhookEvent) error
	wg      sync.WaitGroup
	once    sync.Once // Ensure Stop is only executed once
}

// Start initializes the worker pool by launching all worker goroutines
func (wp *workerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop gracefully shuts down the worker pool by closing the queue and
// waiting for in-flight deliveries to finish
func (wp *workerPool) Stop() {
	wp.once.Do(func() {
		close(wp.queue)
		wp.wg.Wait()
	})
}

// worker processes events from the queue until the channel is closed.
// Delivery failures are logged and swallowed; they never reach the
// request that emitted the event.
func (wp *workerPool) worker() {
	defer wp.wg.Done()

	for event := range wp.queue {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultWebhookTimeout)
		err := wp.deliver(ctx, event)
		cancel()

		if err != nil {
			logger.Error("Webhook delivery failed",
				zap.String("type", event.Type),
				zap.Error(err),
			)
		}
	}
}

// Submit queues an event for asynchronous delivery. Uses non-blocking
// send; when the queue is full the event is dropped (best-effort, no
// delivery guarantee).
func (wp *workerPool) Submit(event WebhookEvent) {
	select {
	case wp.queue <- event:
	default:
		logger.Warn("Webhook queue full, event dropped",
			zap.String("type", event.Type),
		)
	}
}
