package backends_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/prismhq/prism/internal/analysis"
	"github.com/prismhq/prism/internal/backends"
	"github.com/prismhq/prism/internal/brands"
	"github.com/prismhq/prism/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRequest() backends.Request {
	return backends.Request{
		BrandName:     "Acme",
		BrandProducts: []string{"Acme Pro"},
		Competitors:   map[string][]string{"BadCo": {"BadCo Lite"}},
		RawText:       "Acme Pro is great, unlike BadCo Lite.",
	}
}

const resultJSON = `{
	"brand_products": ["Acme Pro"],
	"brand_sentiment": {"score": 80},
	"competitor_sentiments": {"BadCo": {"score": 40}}
}`

func chatBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return body
}

func openAIConfig(baseURL string) config.OpenAIConfig {
	cfg := config.OpenAIConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Model:          "gpt-test",
		RequestTimeout: "5s",
		RateInterval:   "1ms",
	}
	return cfg
}

func TestOpenAIAnalyze(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write(chatBody(resultJSON))
	}))
	defer srv.Close()

	backend := backends.NewOpenAI(openAIConfig(srv.URL), testLogger())

	result, err := backend.Analyze(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if result.BrandSentiment == nil || result.BrandSentiment.Score != 80 {
		t.Errorf("brand sentiment = %+v, want score 80", result.BrandSentiment)
	}
	// Labels are recomputed on ingress.
	if result.BrandSentiment.Label != analysis.LabelPositive {
		t.Errorf("label = %s, want POSITIVE", result.BrandSentiment.Label)
	}
	if s := result.CompetitorSentiments["BadCo"]; s.Label != analysis.LabelNegative {
		t.Errorf("competitor label = %s, want NEGATIVE", s.Label)
	}
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(chatBody(resultJSON))
	}))
	defer srv.Close()

	backend := backends.NewOpenAI(openAIConfig(srv.URL), testLogger())

	if _, err := backend.Analyze(context.Background(), testRequest()); err != nil {
		t.Fatalf("Analyze should recover from 5xx: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestOpenAIDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	backend := backends.NewOpenAI(openAIConfig(srv.URL), testLogger())

	if _, err := backend.Analyze(context.Background(), testRequest()); err == nil {
		t.Fatal("Analyze should fail on 400")
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1 (no retry)", calls.Load())
	}
}

func TestOpenAIUnusableOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatBody("I cannot produce JSON today."))
	}))
	defer srv.Close()

	backend := backends.NewOpenAI(openAIConfig(srv.URL), testLogger())

	_, err := backend.Analyze(context.Background(), testRequest())
	if !errors.Is(err, backends.ErrUnusableResult) {
		t.Errorf("Analyze = %v, want ErrUnusableResult", err)
	}
}

func TestOllamaAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s, want /api/chat", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": resultJSON},
		})
	}))
	defer srv.Close()

	backend := backends.NewOllama(config.OllamaConfig{
		BaseURL:        srv.URL,
		Model:          "llama-test",
		RequestTimeout: "5s",
	}, testLogger())

	result, err := backend.Analyze(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.BrandSentiment == nil || result.BrandSentiment.Score != 80 {
		t.Errorf("brand sentiment = %+v, want score 80", result.BrandSentiment)
	}
	if backend.Safety() != backends.SerializeOnly {
		t.Error("ollama backend should be serialize-only")
	}
}

type countingBackend struct {
	safety  backends.Safety
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (c *countingBackend) Name() string            { return "counting" }
func (c *countingBackend) Safety() backends.Safety { return c.safety }

func (c *countingBackend) Analyze(ctx context.Context, _ backends.Request) (*analysis.Result, error) {
	n := c.active.Add(1)
	defer c.active.Add(-1)

	for {
		seen := c.maxSeen.Load()
		if n <= seen || c.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	return &analysis.Result{}, nil
}

func TestSerializeEnforcesSingleFlight(t *testing.T) {
	inner := &countingBackend{safety: backends.SerializeOnly}
	backend := backends.Serialize(inner)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backend.Analyze(context.Background(), backends.Request{})
		}()
	}
	wg.Wait()

	if got := inner.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent calls = %d, want 1", got)
	}
}

func TestSerializePassesThroughBatchSafe(t *testing.T) {
	inner := &countingBackend{safety: backends.SafeForBatch}
	if got := backends.Serialize(inner); got != backends.Backend(inner) {
		t.Error("SafeForBatch backend should not be wrapped")
	}
}

type fakeBrands struct {
	disabled []uuid.UUID
}

func (f *fakeBrands) Find(context.Context, uuid.UUID) (*brands.Brand, error) { return nil, nil }

func (f *fakeBrands) DisableSerializedBackend(_ context.Context, id uuid.UUID) error {
	f.disabled = append(f.disabled, id)
	return nil
}

func (f *fakeBrands) EnableSerializedBackend(context.Context, uuid.UUID) error { return nil }

func TestBreakerTripsAtThreshold(t *testing.T) {
	store := &fakeBrands{}
	breaker := backends.NewBreaker(store, 3, testLogger())
	brandID := uuid.New()

	ctx := context.Background()
	if breaker.RecordFailure(ctx, brandID) {
		t.Error("first failure should not trip")
	}
	if breaker.RecordFailure(ctx, brandID) {
		t.Error("second failure should not trip")
	}
	if !breaker.RecordFailure(ctx, brandID) {
		t.Error("third failure should trip")
	}

	if len(store.disabled) != 1 || store.disabled[0] != brandID {
		t.Errorf("disabled brands = %v, want [%s]", store.disabled, brandID)
	}
}

func TestBreakerSuccessResetsStreak(t *testing.T) {
	store := &fakeBrands{}
	breaker := backends.NewBreaker(store, 2, testLogger())
	brandID := uuid.New()

	ctx := context.Background()
	breaker.RecordFailure(ctx, brandID)
	breaker.RecordSuccess(brandID)

	if breaker.RecordFailure(ctx, brandID) {
		t.Error("failure after reset should not trip")
	}
	if len(store.disabled) != 0 {
		t.Errorf("no brand should be disabled, got %v", store.disabled)
	}
}

func TestBreakerTracksBrandsIndependently(t *testing.T) {
	store := &fakeBrands{}
	breaker := backends.NewBreaker(store, 2, testLogger())
	a, b := uuid.New(), uuid.New()

	ctx := context.Background()
	breaker.RecordFailure(ctx, a)
	if breaker.RecordFailure(ctx, b) {
		t.Error("brands must not share failure streaks")
	}
	if !breaker.RecordFailure(ctx, a) {
		t.Error("second failure for same brand should trip")
	}
}
