package resilience

import "context"

// Sequential composes two layers so that, given an underlying service S,
// the resulting layer constructs outer.wrap(inner.wrap(S)): outer sees the
// call first, inner sees it last before the operation. This mirrors the
// "A + B" combinator: apply inner, then outer.
func Sequential[Req, Resp any](outer, inner Layer[Req, Resp]) Layer[Req, Resp] {
	return func(s Service[Req, Resp]) Service[Req, Resp] {
		return outer(inner(s))
	}
}

// Fallback composes two layers so the resulting service tries the primary
// path first and, on error, retries via the secondary path with a cloned
// request. clone must produce a request safe to hand to the secondary path
// independently of whatever the primary path did to its copy; for a request
// type with no shared mutable state, clone can simply return req unchanged.
func Fallback[Req, Resp any](primary, secondary Layer[Req, Resp], clone func(Req) Req) Layer[Req, Resp] {
	return func(s Service[Req, Resp]) Service[Req, Resp] {
		primarySvc := primary(s)
		secondarySvc := secondary(s)
		return ServiceFunc[Req, Resp](func(ctx context.Context, req Req) (Resp, error) {
			resp, err := primarySvc.Call(ctx, req)
			if err == nil {
				return resp, nil
			}
			return secondarySvc.Call(ctx, clone(req))
		})
	}
}

// hedgeResult carries one racer's outcome back to the selecting goroutine.
type hedgeResult[Resp any] struct {
	resp Resp
	err  error
}

// Hedge composes two layers so the resulting service races both against
// independently cloned requests, returns the first success, and cancels the
// loser by canceling the context passed to it. If both fail, the
// last-observed error is returned. clone has the same contract as in
// Fallback.
func Hedge[Req, Resp any](a, b Layer[Req, Resp], clone func(Req) Req) Layer[Req, Resp] {
	return func(s Service[Req, Resp]) Service[Req, Resp] {
		svcA := a(s)
		svcB := b(s)
		return ServiceFunc[Req, Resp](func(ctx context.Context, req Req) (Resp, error) {
			raceCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			results := make(chan hedgeResult[Resp], 2)
			runner := func(svc Service[Req, Resp], r Req) {
				resp, err := svc.Call(raceCtx, r)
				results <- hedgeResult[Resp]{resp: resp, err: err}
			}

			go runner(svcA, req)
			go runner(svcB, clone(req))

			var zero Resp
			var lastErr error
			for i := 0; i < 2; i++ {
				select {
				case res := <-results:
					if res.err == nil {
						cancel()
						return res.resp, nil
					}
					lastErr = res.err
				case <-ctx.Done():
					return zero, ctx.Err()
				}
			}
			return zero, lastErr
		})
	}
}
