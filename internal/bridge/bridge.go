// Package bridge ships built requests from any calling goroutine to a
// dedicated dispatcher goroutine, pairing each with a single-use reply
// channel. It is the rendition of the transport's background reactor for
// callers without a scheduling context of their own.
package bridge

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/strandline/httpbridge/internal/engine"
)

// ErrClosed is returned by Dispatch once the bridge has been closed and
// the dispatcher goroutine is gone. It is distinguishable from any
// network-level error the engine can produce.
var ErrClosed = errors.New("bridge: background dispatcher unavailable")

// callBuffer smooths enqueue bursts. The dispatcher drains every call
// into its own goroutine immediately, so the buffer never holds work for
// long and dispatch order places no bound on completion order.
const callBuffer = 64

type call struct {
	ctx   context.Context
	req   *engine.Request
	reply chan result
}

type result struct {
	resp *engine.Response
	err  error
}

// Bridge owns exactly one dispatcher goroutine for its lifetime. Every
// dispatched call is executed concurrently with the other in-flight calls;
// nothing is serialized behind the dispatch loop itself.
type Bridge struct {
	calls chan call
	done  chan struct{}
	log   zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// New spawns the dispatcher goroutine. The bridge holds eng for its whole
// lifetime and must be closed to let the goroutine exit.
func New(eng engine.Engine, log zerolog.Logger) *Bridge {
	b := &Bridge{
		calls: make(chan call, callBuffer),
		done:  make(chan struct{}),
		log:   log,
	}
	go b.run(eng)
	return b
}

func (b *Bridge) run(eng engine.Engine) {
	defer close(b.done)
	b.log.Debug().Msg("bridge dispatcher started")
	var inflight sync.WaitGroup
	for c := range b.calls {
		inflight.Add(1)
		go func(c call) {
			defer inflight.Done()
			resp, err := eng.Send(c.ctx, c.req)
			// The reply channel has capacity 1 and a fresh channel is
			// made per call: the send never blocks, fulfills at most
			// once, and a receiver that gave up just discards this.
			c.reply <- result{resp: resp, err: err}
		}(c)
	}
	inflight.Wait()
	b.log.Debug().Msg("bridge dispatcher stopped")
}

// Dispatch enqueues the request and awaits its paired reply. The context
// travels with the call, so cancellation reaches the engine exactly as it
// would on an inline send.
func (b *Bridge) Dispatch(ctx context.Context, req *engine.Request) (*engine.Response, error) {
	reply := make(chan result, 1)

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrClosed
	}
	b.calls <- call{ctx: ctx, req: req, reply: reply}
	b.mu.RUnlock()

	select {
	case r := <-reply:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close makes further dispatches fail with ErrClosed and lets the
// dispatcher goroutine observe the channel closing and exit. In-flight
// calls still complete. Close is idempotent.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.calls)
}

// Done is closed once the dispatcher goroutine has fully exited,
// including its in-flight calls.
func (b *Bridge) Done() <-chan struct{} { return b.done }
