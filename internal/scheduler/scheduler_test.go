package scheduler

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/spray-advisory/internal/weather"
)

type recordingRefresher struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *recordingRefresher) Refresh(ctx context.Context, postalCode string) []weather.Forecast {
	if _, ok := ctx.Deadline(); !ok {
		panic("refresh called without a deadline")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, postalCode)
	return []weather.Forecast{{PostalCode: postalCode, Source: "test"}}
}

func TestWarmAllRefreshesEveryPostcode(t *testing.T) {
	r := &recordingRefresher{}
	s := New([]string{"2000", "3000", "4000"}, time.Minute, r)

	s.WarmAll()

	sort.Strings(r.seen)
	if len(r.seen) != 3 || r.seen[0] != "2000" || r.seen[2] != "4000" {
		t.Fatalf("unexpected refreshes: %v", r.seen)
	}
}

func TestStartWithoutPostcodesIsNoop(t *testing.T) {
	r := &recordingRefresher{}
	s := New(nil, time.Minute, r)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
	if len(r.seen) != 0 {
		t.Fatalf("expected no refreshes, got %v", r.seen)
	}
}

func TestServiceSatisfiesRefresher(t *testing.T) {
	var _ Refresher = (*weather.Service)(nil)
}

func TestWarmIntervalKeepsSubMinuteDurations(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{30 * time.Second, 30 * time.Second},
		{90 * time.Second, 90 * time.Second},
		{0, defaultWarmInterval},
		{-time.Minute, defaultWarmInterval},
	}
	for _, tt := range tests {
		if got := New([]string{"2000"}, tt.in, &recordingRefresher{}).warmInterval(); got != tt.want {
			t.Fatalf("warmInterval(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStartRunsImmediatelyWithSecondInterval(t *testing.T) {
	r := &recordingRefresher{}
	s := New([]string{"2000"}, 30*time.Second, r)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	if n := s.scheduler.Len(); n != 1 {
		t.Fatalf("expected 1 scheduled job, got %d", n)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected an immediate warm-up run")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
