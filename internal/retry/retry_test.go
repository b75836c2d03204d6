package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var errBoom = errors.New("boom")

func TestDoSucceedsAfterFailures(t *testing.T) {
	o := New(Options{MaxAttempts: 5, Delay: 0}, zerolog.Nop())

	calls := 0
	outcome, err := o.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls <= 3 {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("第 4 次成功不应报错: %v", err)
	}
	if outcome.Attempts != 4 || outcome.Failures != 3 {
		t.Fatalf("outcome = %+v, 期望 attempts=4 failures=3", outcome)
	}
}

func TestDoExhausted(t *testing.T) {
	o := New(Options{MaxAttempts: 3, Delay: 0}, zerolog.Nop())

	calls := 0
	outcome, err := o.Do(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return errBoom
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("期望 ErrExhausted, 实际 %v", err)
	}
	if calls != 3 {
		t.Fatalf("应恰好尝试 3 次, 实际 %d", calls)
	}
	if outcome.Attempts != 3 || outcome.Failures != 3 {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestDoFirstTrySuccess(t *testing.T) {
	o := New(Options{MaxAttempts: 3, Delay: time.Hour}, zerolog.Nop())

	start := time.Now()
	outcome, err := o.Do(context.Background(), "test", func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatalf("首次成功不应报错: %v", err)
	}
	if outcome.Attempts != 1 || outcome.Failures != 0 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if time.Since(start) > time.Second {
		t.Fatal("成功路径不应等待 delay")
	}
}

func TestDoDelayBetweenAttempts(t *testing.T) {
	o := New(Options{MaxAttempts: 3, Delay: 30 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	_, err := o.Do(context.Background(), "test", func(ctx context.Context) error { return errBoom })
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("期望 ErrExhausted, 实际 %v", err)
	}
	// 2 sleeps between 3 attempts.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("应至少等待两次 delay, 实际 %s", elapsed)
	}
}

func TestDoContextCancelDuringDelay(t *testing.T) {
	o := New(Options{MaxAttempts: 5, Delay: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := o.Do(ctx, "test", func(ctx context.Context) error { return errBoom })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("取消应中断 delay: %v", err)
	}
}

func TestNewClampsOptions(t *testing.T) {
	o := New(Options{MaxAttempts: 0, Delay: -time.Second}, zerolog.Nop())
	if o.opts.MaxAttempts != 1 || o.opts.Delay != 0 {
		t.Fatalf("opts = %+v", o.opts)
	}
}
