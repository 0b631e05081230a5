package usecase

import (
	"context"
	"sync"
)

type offerKey struct {
	tripID   string
	driverID string
}

// offerRegistry pairs an open offer with the driver response that resolves it
type offerRegistry struct {
	mu      sync.Mutex
	pending map[offerKey]chan bool
}

func newOfferRegistry() *offerRegistry {
	return &offerRegistry{pending: make(map[offerKey]chan bool)}
}

// open registers an offer and returns the channel its response arrives on
// together with a func that withdraws the registration
func (r *offerRegistry) open(tripID, driverID string) (<-chan bool, func()) {
	key := offerKey{tripID: tripID, driverID: driverID}
	ch := make(chan bool, 1)

	r.mu.Lock()
	r.pending[key] = ch
	r.mu.Unlock()

	return ch, func() {
		r.mu.Lock()
		if r.pending[key] == ch {
			delete(r.pending, key)
		}
		r.mu.Unlock()
	}
}

// resolve delivers a response to an open offer. Only the first response
// counts; it returns false when no offer is open.
func (r *offerRegistry) resolve(tripID, driverID string, accept bool) bool {
	key := offerKey{tripID: tripID, driverID: driverID}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.pending[key]
	if !ok {
		return false
	}
	delete(r.pending, key)
	ch <- accept
	return true
}

// runRegistry tracks the cancel func of each in-flight dispatch run
type runRegistry struct {
	mu   sync.Mutex
	runs map[string]context.CancelFunc
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]context.CancelFunc)}
}

func (r *runRegistry) start(parent context.Context, tripID string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	r.runs[tripID] = cancel
	r.mu.Unlock()

	return ctx, func() {
		r.mu.Lock()
		delete(r.runs, tripID)
		r.mu.Unlock()
		cancel()
	}
}

// abort cancels the run for tripID, if any
func (r *runRegistry) abort(tripID string) bool {
	r.mu.Lock()
	cancel, ok := r.runs[tripID]
	r.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

func (r *runRegistry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
