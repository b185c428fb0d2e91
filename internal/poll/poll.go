// Package poll re-invokes a call on a fixed interval. Ticks never wait for
// earlier ticks: a slow call overlaps the next one.
package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrInvalidInterval = errors.New("poll: interval must be positive")

// Poller runs Call every Interval until its context ends. Each result is
// passed to OnResult from the goroutine that ran the call.
type Poller[T any] struct {
	Interval time.Duration
	// Immediate runs the first call at start instead of after one interval.
	Immediate bool
	// CallTimeout bounds each call; zero leaves calls bounded only by ctx.
	CallTimeout time.Duration
	Call        func(ctx context.Context) (T, error)
	OnResult    func(seq uint64, v T, err error)

	inFlight atomic.Int64
	seq      atomic.Uint64
}

// InFlight reports calls started but not yet returned.
func (p *Poller[T]) InFlight() int64 {
	return p.inFlight.Load()
}

// Run blocks until ctx is done, then waits for in-flight calls to return.
func (p *Poller[T]) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		return ErrInvalidInterval
	}
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	if p.Immediate {
		p.tick(ctx, &wg)
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug().Int64("in_flight", p.InFlight()).Msg("poll stopped")
			return nil
		case <-ticker.C:
			p.tick(ctx, &wg)
		}
	}
}

func (p *Poller[T]) tick(ctx context.Context, wg *sync.WaitGroup) {
	seq := p.seq.Add(1)
	p.inFlight.Add(1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer p.inFlight.Add(-1)

		callCtx := ctx
		if p.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
			defer cancel()
		}
		v, err := p.Call(callCtx)
		if p.OnResult != nil {
			p.OnResult(seq, v, err)
		}
	}()
}
