package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAcquireStopsAtFirstSuccess(t *testing.T) {
	calls := 0
	p := ProviderFunc(func(context.Context) (*Session, error) {
		calls++
		return &Session{UserID: "u1"}, nil
	})
	sess, err := Acquire(context.Background(), p, 3, 0)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if sess.UserID != "u1" || calls != 1 {
		t.Fatalf("sess = %+v, calls = %d", sess, calls)
	}
}

func TestAcquireRetriesThenFails(t *testing.T) {
	calls := 0
	p := ProviderFunc(func(context.Context) (*Session, error) {
		calls++
		return nil, fmt.Errorf("attempt %d", calls)
	})
	_, err := Acquire(context.Background(), p, 3, 0)
	if err == nil {
		t.Fatalf("Acquire() succeeded with broken provider")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestAcquireTreatsNilSessionAsNoSession(t *testing.T) {
	p := ProviderFunc(func(context.Context) (*Session, error) {
		return nil, nil
	})
	_, err := Acquire(context.Background(), p, 2, 0)
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := ProviderFunc(func(context.Context) (*Session, error) {
		return nil, fmt.Errorf("always failing")
	})
	_, err := Acquire(ctx, p, 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLooksDenied(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{fmt.Errorf("connection reset"), false},
		{fmt.Errorf("pq: permission denied for relation projects"), true},
		{fmt.Errorf("403: Not Authorized"), true},
		{fmt.Errorf("auth: JWT expired at 10:00"), true},
	}
	for _, c := range cases {
		if got := LooksDenied(c.err); got != c.want {
			t.Fatalf("LooksDenied(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
