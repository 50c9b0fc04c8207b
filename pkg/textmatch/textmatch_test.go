package textmatch_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/prismhq/prism/pkg/textmatch"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "Acme Pro is great", []string{"acme", "pro", "is", "great"}},
		{"punctuation", "Acme, Pro! (great)", []string{"acme", "pro", "great"}},
		{"possessive", "Acme's product", []string{"acme", "product"}},
		{"contraction", "it doesn't work", []string{"it", "doesn't", "work"}},
		{"quoted", "'Acme' is here", []string{"acme", "is", "here"}},
		{"numbers", "Model X100 v2", []string{"model", "x100", "v2"}},
		{"bare apostrophe dropped", "a ' b", []string{"a", "b"}},
		{"empty", "", nil},
		{"whitespace only", "  \t\n ", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := textmatch.Tokenize(tc.text)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	if got := textmatch.WordCount("Acme Pro is great, unlike BadCo Lite."); got != 7 {
		t.Errorf("WordCount = %d, want 7", got)
	}
	if got := textmatch.WordCount(""); got != 0 {
		t.Errorf("WordCount(empty) = %d, want 0", got)
	}
}

func TestFindPositions(t *testing.T) {
	text := "Acme Pro is great, unlike BadCo Lite. Acme wins."

	tests := []struct {
		name string
		term string
		want []int
	}{
		{"single word", "Acme", []int{1, 8}},
		{"multi word", "Acme Pro", []int{1}},
		{"case insensitive", "ACME", []int{1, 8}},
		{"competitor", "BadCo Lite", []int{6}},
		{"absent", "WidgetCo", nil},
		{"empty term", "", nil},
		{"possessive match", "wins", []int{9}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := textmatch.FindPositions(text, tc.term)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("FindPositions(%q) mismatch (-want +got):\n%s", tc.term, diff)
			}
		})
	}
}

func TestFindPositionsNoOverlapSuppression(t *testing.T) {
	// Repeated term matches at every occurrence, including adjacent ones.
	got := textmatch.FindPositions("go go go", "go")
	want := []int{1, 2, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindPositions mismatch (-want +got):\n%s", diff)
	}

	got = textmatch.FindPositions("go go go", "go go")
	want = []int{1, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindPositions overlapping mismatch (-want +got):\n%s", diff)
	}
}

func TestFindPositionsDeterministic(t *testing.T) {
	text := "Acme beats Acme and Acme again"
	first := textmatch.FindPositions(text, "Acme")
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, textmatch.FindPositions(text, "Acme")); diff != "" {
			t.Fatalf("FindPositions not deterministic:\n%s", diff)
		}
	}
}

func TestPossessiveNormalization(t *testing.T) {
	// "Acme's" normalizes to "acme" so the brand term still matches.
	got := textmatch.FindPositions("Acme's new product", "Acme")
	want := []int{1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("possessive mismatch (-want +got):\n%s", diff)
	}
}
