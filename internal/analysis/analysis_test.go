package analysis_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/prismhq/prism/internal/analysis"
)

func TestLabelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{1, analysis.LabelNegative},
		{54, analysis.LabelNegative},
		{55, analysis.LabelNeutral},
		{60, analysis.LabelNeutral},
		{65, analysis.LabelNeutral},
		{66, analysis.LabelPositive},
		{100, analysis.LabelPositive},
	}

	for _, tc := range tests {
		if got := analysis.LabelForScore(tc.score); got != tc.want {
			t.Errorf("LabelForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	result := &analysis.Result{
		BrandProducts: []string{" Acme Pro ", "", "Acme Lite"},
		CompetitorProducts: map[string][]string{
			"BadCo": {"BadCo Lite", "  "},
		},
		BrandSentiment: &analysis.Sentiment{Score: 120, Label: "bogus"},
		CompetitorSentiments: map[string]analysis.Sentiment{
			"BadCo": {Score: -3, Label: "also bogus"},
		},
	}

	result.Normalize()

	if diff := cmp.Diff([]string{"Acme Pro", "Acme Lite"}, result.BrandProducts); diff != "" {
		t.Errorf("BrandProducts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"BadCo Lite"}, result.CompetitorProducts["BadCo"]); diff != "" {
		t.Errorf("CompetitorProducts mismatch (-want +got):\n%s", diff)
	}

	if result.BrandSentiment.Score != 100 || result.BrandSentiment.Label != analysis.LabelPositive {
		t.Errorf("brand sentiment = %+v, want clamped 100/POSITIVE", result.BrandSentiment)
	}

	comp := result.CompetitorSentiments["BadCo"]
	if comp.Score != 1 || comp.Label != analysis.LabelNegative {
		t.Errorf("competitor sentiment = %+v, want clamped 1/NEGATIVE", comp)
	}
}

type fakeStore struct {
	data    map[uuid.UUID]*analysis.Result
	getErr  error
	putErr  error
	getHits int
	putHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[uuid.UUID]*analysis.Result{}}
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (*analysis.Result, error) {
	f.getHits++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if r, ok := f.data[id]; ok {
		return r, nil
	}
	return nil, analysis.ErrCacheMiss
}

func (f *fakeStore) Put(_ context.Context, id uuid.UUID, r *analysis.Result) error {
	f.putHits++
	if f.putErr != nil {
		return f.putErr
	}
	f.data[id] = r
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCacheMemoryHitSkipsStore(t *testing.T) {
	store := newFakeStore()
	cache := analysis.NewCache(store, testLogger())
	id := uuid.New()
	result := &analysis.Result{Narrative: "positive coverage"}

	cache.Put(context.Background(), id, result)

	got, err := cache.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != result {
		t.Error("memory tier should return the cached pointer")
	}
	if store.getHits != 0 {
		t.Errorf("store.Get called %d times on memory hit, want 0", store.getHits)
	}
}

func TestCacheStoreHitPromotedToMemory(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.data[id] = &analysis.Result{Narrative: "from store"}

	cache := analysis.NewCache(store, testLogger())

	if _, err := cache.Get(context.Background(), id); err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	if _, err := cache.Get(context.Background(), id); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}

	if store.getHits != 1 {
		t.Errorf("store.Get called %d times, want 1 (promotion to memory)", store.getHits)
	}
}

func TestCacheMiss(t *testing.T) {
	cache := analysis.NewCache(newFakeStore(), testLogger())

	_, err := cache.Get(context.Background(), uuid.New())
	if !errors.Is(err, analysis.ErrCacheMiss) {
		t.Errorf("Get = %v, want ErrCacheMiss", err)
	}
}

func TestCachePutSwallowsStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("disk full")
	cache := analysis.NewCache(store, testLogger())
	id := uuid.New()

	cache.Put(context.Background(), id, &analysis.Result{})

	// Memory tier still serves the result.
	if _, err := cache.Get(context.Background(), id); err != nil {
		t.Errorf("Get after failed store write = %v, want hit", err)
	}
}

func TestCacheResetClearsMemoryTierOnly(t *testing.T) {
	store := newFakeStore()
	cache := analysis.NewCache(store, testLogger())
	id := uuid.New()

	cache.Put(context.Background(), id, &analysis.Result{Narrative: "kept in store"})
	cache.Reset()

	if _, err := cache.Get(context.Background(), id); err != nil {
		t.Fatalf("Get after Reset = %v, want store hit", err)
	}
	if store.getHits != 1 {
		t.Errorf("store.Get called %d times, want 1 (memory cleared, store intact)", store.getHits)
	}
}

func TestCacheResetWithoutStoreForgets(t *testing.T) {
	cache := analysis.NewCache(nil, testLogger())
	id := uuid.New()

	cache.Put(context.Background(), id, &analysis.Result{})
	cache.Reset()

	if _, err := cache.Get(context.Background(), id); !errors.Is(err, analysis.ErrCacheMiss) {
		t.Errorf("Get after Reset = %v, want ErrCacheMiss", err)
	}
}

func TestCacheBrokenStoreReadIsMiss(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	cache := analysis.NewCache(store, testLogger())

	_, err := cache.Get(context.Background(), uuid.New())
	if !errors.Is(err, analysis.ErrCacheMiss) {
		t.Errorf("Get with broken store = %v, want ErrCacheMiss", err)
	}
}
