// Package confirm implements yes/no prompts that only their owner can answer
// and that expire after a fixed time.
package confirm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"herald/internal/access"
)

var ErrExpired = errors.New("confirmation expired")

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

// Prompt describes what happens when a gate is answered or times out.
type Prompt struct {
	OwnerID string
	// Confirm runs when the owner accepts.
	Confirm func(ctx context.Context) error
	// Expire runs once if nobody answers in time.
	Expire func()
}

type gate struct {
	prompt Prompt
	timer  Timer
}

type Registry struct {
	mu      sync.Mutex
	clock   Clock
	timeout time.Duration
	gates   map[string]*gate
}

func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Registry{clock: realClock{}, timeout: timeout, gates: make(map[string]*gate)}
}

func (r *Registry) WithClock(clock Clock) {
	r.clock = clock
}

// Open registers a prompt and returns its id.
func (r *Registry) Open(prompt Prompt) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	g := &gate{prompt: prompt}
	g.timer = r.clock.AfterFunc(r.timeout, func() { r.expire(id) })
	r.gates[id] = g
	return id
}

// Resolve answers the prompt. A responder other than the owner gets
// access.ErrUnauthorized and the prompt stays open. The returned bool is
// true when the prompt was accepted.
func (r *Registry) Resolve(ctx context.Context, id, actorID string, accept bool) (bool, error) {
	r.mu.Lock()
	g, ok := r.gates[id]
	if !ok {
		r.mu.Unlock()
		return false, ErrExpired
	}
	if err := access.RequireOwner(g.prompt.OwnerID, actorID); err != nil {
		r.mu.Unlock()
		return false, err
	}
	delete(r.gates, id)
	r.mu.Unlock()

	g.timer.Stop()
	if !accept {
		return false, nil
	}
	if g.prompt.Confirm != nil {
		if err := g.prompt.Confirm(ctx); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Pending reports how many prompts are still open.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gates)
}

func (r *Registry) expire(id string) {
	r.mu.Lock()
	g, ok := r.gates[id]
	if ok {
		delete(r.gates, id)
	}
	r.mu.Unlock()
	if ok && g.prompt.Expire != nil {
		g.prompt.Expire()
	}
}
