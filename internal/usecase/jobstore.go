package usecase

import (
	"sync"
	"time"
)

// JobStore tracks in-flight parse jobs by product ID so status queries can
// answer "pending". Entries older than the TTL are swept by a background
// goroutine; that covers jobs orphaned by a crashed worker, so no product
// reports pending forever.
type JobStore struct {
	mu      sync.RWMutex
	started map[string]time.Time
	ttl     time.Duration
	done    chan struct{}
}

// NewJobStore creates a job store with background cleanup
func NewJobStore(ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	js := &JobStore{
		started: make(map[string]time.Time),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go js.cleanup()
	return js
}

// Start records a job for productID and reports whether it was newly
// started; false means a job for this product is already in flight.
func (js *JobStore) Start(productID string) bool {
	js.mu.Lock()
	defer js.mu.Unlock()
	if at, ok := js.started[productID]; ok && time.Since(at) < js.ttl {
		return false
	}
	js.started[productID] = time.Now()
	return true
}

// Finish removes the job for productID
func (js *JobStore) Finish(productID string) {
	js.mu.Lock()
	defer js.mu.Unlock()
	delete(js.started, productID)
}

// Active reports whether a live job exists for productID
func (js *JobStore) Active(productID string) bool {
	js.mu.RLock()
	defer js.mu.RUnlock()
	at, ok := js.started[productID]
	return ok && time.Since(at) < js.ttl
}

// Size returns the number of tracked jobs, used in tests
func (js *JobStore) Size() int {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return len(js.started)
}

// Stop terminates the cleanup goroutine
func (js *JobStore) Stop() {
	close(js.done)
}

func (js *JobStore) cleanup() {
	ticker := time.NewTicker(js.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-js.done:
			return
		case <-ticker.C:
			js.mu.Lock()
			for id, at := range js.started {
				if time.Since(at) >= js.ttl {
					delete(js.started, id)
				}
			}
			js.mu.Unlock()
		}
	}
}
