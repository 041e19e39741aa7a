package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConsumerConfig_Schedule(t *testing.T) {
	cfg := ConsumerConfig()

	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.InitialInterval != 500*time.Millisecond {
		t.Errorf("InitialInterval = %v, want 500ms", cfg.InitialInterval)
	}

	// Second wait doubles to 1s and is capped there
	second := time.Duration(float64(cfg.InitialInterval) * cfg.Multiplier)
	if second > cfg.MaxInterval {
		second = cfg.MaxInterval
	}
	if second != time.Second {
		t.Errorf("second interval = %v, want 1s", second)
	}
}

func TestRetrier_Do_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := Do(context.Background(), ConsumerConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrier_Do_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	cfg := &Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 2.0}

	result := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestRetrier_Do_ExhaustsRetries(t *testing.T) {
	calls := 0
	cfg := &Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 2.0}

	transient := errors.New("still broken")
	result := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return transient
	})

	if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
		t.Fatalf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
	if !errors.Is(result.LastError, transient) {
		t.Errorf("LastError = %v, want %v", result.LastError, transient)
	}
}

func TestRetrier_Do_PermanentErrorStopsRetrying(t *testing.T) {
	calls := 0
	cfg := &Config{MaxRetries: 5, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 2.0}

	fatal := errors.New("bad payload")
	result := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return Permanent(fatal)
	})

	if !errors.Is(result.Err, fatal) {
		t.Fatalf("Err = %v, want %v", result.Err, fatal)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrier_Do_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &Config{MaxRetries: 3, InitialInterval: time.Hour, MaxInterval: time.Hour, Multiplier: 2.0}
	result := Do(ctx, cfg, func(ctx context.Context) error {
		return errors.New("transient")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Fatalf("Err = %v, want ErrContextCanceled", result.Err)
	}
}
