package regs

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

var errTimeout = errors.New("timeout")

func TestPollReturnsWhenDone(t *testing.T) {
	n := 0
	err := Poll(context.Background(), WaitPolicy{}, errTimeout, func() (bool, error) {
		n++
		return n == 3, nil
	})
	if err != nil || n != 3 {
		t.Fatalf("err=%v polls=%d", err, n)
	}
}

func TestPollTimeout(t *testing.T) {
	p := WaitPolicy{Timeout: 5 * time.Millisecond, Yield: runtime.Gosched}
	err := Poll(context.Background(), p, errTimeout, func() (bool, error) { return false, nil })
	if !errors.Is(err, errTimeout) {
		t.Fatalf("want timeout, got %v", err)
	}
}

func TestPollContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Poll(ctx, WaitPolicy{}, errTimeout, func() (bool, error) { return false, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
}

func TestPollBusError(t *testing.T) {
	boom := errors.New("bus")
	err := Poll(context.Background(), WaitPolicy{}, errTimeout, func() (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want bus error, got %v", err)
	}
}
