package escape

import (
	"context"
	"fmt"
	"math/cmplx"
)

// Advance applies update rounds under the given iteration mode.
//
// In Bounded mode steps may be per-frame: frame f stops updating once
// steps[f] rounds have run, while the round loop continues for the largest
// budget. Wrapping mode accepts only a scalar step count.
func (e *Engine) Advance(steps Series[int], mode Mode) error {
	return e.AdvanceContext(context.Background(), steps, mode)
}

// AdvanceContext is Advance that stops between rounds once ctx is done and
// returns ctx.Err(). Rounds already applied are kept and counted.
func (e *Engine) AdvanceContext(ctx context.Context, steps Series[int], mode Mode) error {
	if e.kind == KindNone {
		return ErrNotInitialized
	}

	switch mode {
	case Bounded:
		budget, err := steps.Resolve("steps", e.shape.Frames)
		if err != nil {
			return err
		}
		for f, n := range budget {
			if n < 0 {
				return invalidParam("steps", "frame %d: negative step count %d", f, n)
			}
		}
		return e.advanceBounded(ctx, budget)

	case Wrapping:
		if steps.IsPerFrame() {
			return fmt.Errorf("%w: per-frame steps in %s mode", ErrUnsupported, mode)
		}
		if steps.IsZero() {
			return invalidParam("steps", "no value given")
		}
		n := steps.values[0]
		if n < 0 {
			return invalidParam("steps", "negative step count %d", n)
		}
		return e.advanceWrapping(ctx, n)
	}

	return invalidParam("mode", "unknown iteration mode %q", mode)
}

// advanceBounded is escape-time iteration. A point is active in round k
// while its magnitude is below its frame threshold and its frame still has
// budget; only active points are updated and counted.
func (e *Engine) advanceBounded(ctx context.Context, budget []int) error {
	rounds := 0
	for _, n := range budget {
		if n > rounds {
			rounds = n
		}
	}

	for k := 0; k < rounds; k++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		e.eachColumn(func(f, lo, hi int) {
			if budget[f] <= k {
				return
			}
			p, limit := e.power[f], e.threshold[f]
			value, param, count := e.value[lo:hi], e.param[lo:hi], e.count[lo:hi]
			for i, z := range value {
				if cmplx.Abs(z) < limit {
					value[i] = pow(z, p) + param[i]
					count[i]++
				}
			}
		})
		e.totalSteps++
		e.notify(k+1, rounds)
	}
	return nil
}

// advanceWrapping updates every point each round. A point whose magnitude
// exceeds the threshold is reset to zero; the round of its first such
// divergence in this call is recorded as k+1. Points that never diverged
// in this call and still have a zero count get n.
func (e *Engine) advanceWrapping(ctx context.Context, n int) error {
	seen := make([]bool, len(e.value))

	for k := 0; k < n; k++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		round := uint32(k + 1)
		e.eachColumn(func(f, lo, hi int) {
			p, limit := e.power[f], e.threshold[f]
			value, param, count, hit := e.value[lo:hi], e.param[lo:hi], e.count[lo:hi], seen[lo:hi]
			for i, z := range value {
				z = pow(z, p) + param[i]
				if cmplx.Abs(z) > limit {
					z = 0
					if !hit[i] {
						hit[i] = true
						count[i] = round
					}
				}
				value[i] = z
			}
		})
		e.totalSteps++
		e.notify(k+1, n)
	}

	for i, c := range e.count {
		if c == 0 {
			e.count[i] = uint32(n)
		}
	}
	return nil
}

func (e *Engine) notify(round, total int) {
	if e.observer != nil {
		e.observer.OnRound(round, total)
	}
}
