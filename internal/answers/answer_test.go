package answers_test

import (
	"sync"
	"testing"
	"time"

	"github.com/prismhq/prism/internal/answers"
)

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"plain error", "backend returned status 400", answers.StatusError},
		{"timeout word", "request timeout waiting for model", answers.StatusTimeout},
		{"timed out", "analysis timed out after 60s", answers.StatusTimeout},
		{"deadline", "context deadline exceeded", answers.StatusTimeout},
		{"canceled", "chat request canceled: context canceled", answers.StatusTimeout},
		{"aborted", "run aborted by operator", answers.StatusTimeout},
		{"case insensitive", "DEADLINE EXCEEDED", answers.StatusTimeout},
		{"empty message", "", answers.StatusError},
		{"unparseable output", "backend returned unusable result", answers.StatusError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := answers.FailureStatus(tc.msg); got != tc.want {
				t.Errorf("FailureStatus(%q) = %s, want %s", tc.msg, got, tc.want)
			}
		})
	}
}

func TestClaimable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"", true},
		{answers.StatusPending, true},
		{answers.StatusError, true},
		{answers.StatusTimeout, true},
		{answers.StatusProcessing, false},
		{answers.StatusCompleted, false},
	}

	for _, tc := range tests {
		if got := answers.Claimable(tc.status); got != tc.want {
			t.Errorf("Claimable(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

// casStore is an in-memory compare-and-set over one answer's status,
// applying the same guard the SQL claim update enforces.
type casStore struct {
	mu     sync.Mutex
	status string
}

func (s *casStore) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !answers.Claimable(s.status) {
		return false
	}
	s.status = answers.StatusProcessing
	return true
}

func TestClaimSingleWinner(t *testing.T) {
	store := &casStore{status: answers.StatusPending}

	const claimers = 32
	wins := make(chan bool, claimers)

	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- store.claim()
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}

	if won != 1 {
		t.Errorf("%d claimers won, want exactly 1", won)
	}
	if store.status != answers.StatusProcessing {
		t.Errorf("status = %s, want processing", store.status)
	}
}

func TestReapStatusThresholdRouting(t *testing.T) {
	const (
		stuckAfter = 2 * time.Hour
		deadAfter  = 8 * time.Hour
	)
	now := time.Now()

	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{"fresh item untouched", time.Hour, answers.StatusProcessing},
		{"past stuck threshold times out", 3 * time.Hour, answers.StatusTimeout},
		{"past dead threshold errors", 9 * time.Hour, answers.StatusError},
		{"exactly at stuck threshold", stuckAfter, answers.StatusTimeout},
		{"exactly at dead threshold", deadAfter, answers.StatusError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := answers.ReapStatus(now.Add(-tc.age), now, stuckAfter, deadAfter)
			if got != tc.want {
				t.Errorf("ReapStatus(age %v) = %s, want %s", tc.age, got, tc.want)
			}
		})
	}
}
