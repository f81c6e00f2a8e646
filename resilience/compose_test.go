package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func identityLayer[Req, Resp any](tag string, order *[]string) Layer[Req, Resp] {
	return func(s Service[Req, Resp]) Service[Req, Resp] {
		return ServiceFunc[Req, Resp](func(ctx context.Context, req Req) (Resp, error) {
			*order = append(*order, tag)
			return s.Call(ctx, req)
		})
	}
}

func echoService() Service[string, string] {
	return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
		return req, nil
	})
}

func TestSequential_OuterSeesCallFirst(t *testing.T) {
	var order []string
	outer := identityLayer[string, string]("outer", &order)
	inner := identityLayer[string, string]("inner", &order)

	svc := Sequential(outer, inner)(echoService())
	resp, err := svc.Call(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp != "hello" {
		t.Errorf("resp = %q, want hello", resp)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("order = %v, want [outer inner]", order)
	}
}

func TestFallback_PrimarySucceedsNoFallback(t *testing.T) {
	primary := identityLayer[string, string]("primary", &[]string{})
	var secondaryCalled bool
	secondary := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			secondaryCalled = true
			return s.Call(ctx, req)
		})
	})

	svc := Fallback(primary, secondary, func(s string) string { return s })(echoService())
	resp, err := svc.Call(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp != "hi" {
		t.Errorf("resp = %q, want hi", resp)
	}
	if secondaryCalled {
		t.Error("secondary was called even though primary succeeded")
	}
}

func TestFallback_PrimaryFailsUsesSecondary(t *testing.T) {
	failErr := errors.New("primary down")
	primary := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			return "", failErr
		})
	})
	secondary := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			return "from-secondary:" + req, nil
		})
	})

	svc := Fallback(primary, secondary, func(s string) string { return s })(echoService())
	resp, err := svc.Call(context.Background(), "req")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp != "from-secondary:req" {
		t.Errorf("resp = %q, want from-secondary:req", resp)
	}
}

func TestFallback_BothFailReturnsSecondaryError(t *testing.T) {
	primaryErr := errors.New("primary down")
	secondaryErr := errors.New("secondary down")
	primary := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			return "", primaryErr
		})
	})
	secondary := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			return "", secondaryErr
		})
	})

	svc := Fallback(primary, secondary, func(s string) string { return s })(echoService())
	_, err := svc.Call(context.Background(), "req")
	if !errors.Is(err, secondaryErr) {
		t.Errorf("err = %v, want secondaryErr", err)
	}
}

func TestHedge_FirstSuccessWins(t *testing.T) {
	fast := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			return "fast:" + req, nil
		})
	})
	slow := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
	})

	svc := Hedge(fast, slow, func(s string) string { return s })(echoService())
	resp, err := svc.Call(context.Background(), "req")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp != "fast:req" {
		t.Errorf("resp = %q, want fast:req", resp)
	}
}

func TestHedge_BothFailReturnsLastError(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	a := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			return "", errA
		})
	})
	b := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			return "", errB
		})
	})

	svc := Hedge(a, b, func(s string) string { return s })(echoService())
	_, err := svc.Call(context.Background(), "req")
	if err == nil {
		t.Fatal("err = nil, want non-nil when both racers fail")
	}
	if !errors.Is(err, errA) && !errors.Is(err, errB) {
		t.Errorf("err = %v, want errA or errB", err)
	}
}

func TestHedge_CancelsLoserOnWinnerSuccess(t *testing.T) {
	loserCancelled := make(chan struct{}, 1)
	fast := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			return "fast", nil
		})
	})
	slow := Layer[string, string](func(s Service[string, string]) Service[string, string] {
		return ServiceFunc[string, string](func(ctx context.Context, req string) (string, error) {
			<-ctx.Done()
			select {
			case loserCancelled <- struct{}{}:
			default:
			}
			return "", ctx.Err()
		})
	})

	svc := Hedge(fast, slow, func(s string) string { return s })(echoService())
	svc.Call(context.Background(), "req")

	select {
	case <-loserCancelled:
	case <-time.After(time.Second):
		t.Error("loser's context was never cancelled")
	}
}
