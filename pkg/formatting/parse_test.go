package formatting_test

import (
	"errors"
	"testing"

	"github.com/prismhq/prism/pkg/formatting"
)

type payload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestParseDirect(t *testing.T) {
	got, err := formatting.Parse[payload](`{"name": "acme", "score": 70}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Name != "acme" || got.Score != 70 {
		t.Errorf("Parse = %+v, want {acme 70}", got)
	}
}

func TestParseFromFence(t *testing.T) {
	content := "Here is the result:\n```json\n{\"name\": \"acme\", \"score\": 70}\n```\nDone."

	got, err := formatting.Parse[payload](content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Name != "acme" {
		t.Errorf("Parse = %+v, want name acme", got)
	}
}

func TestParseFromBareFence(t *testing.T) {
	content := "```\n{\"name\": \"acme\"}\n```"

	got, err := formatting.Parse[payload](content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Name != "acme" {
		t.Errorf("Parse = %+v, want name acme", got)
	}
}

func TestParseFromProse(t *testing.T) {
	content := `Sure! The analysis is {"name": "acme", "score": 70} as requested.`

	got, err := formatting.Parse[payload](content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Name != "acme" || got.Score != 70 {
		t.Errorf("Parse = %+v, want {acme 70}", got)
	}
}

func TestParseFailure(t *testing.T) {
	_, err := formatting.Parse[payload]("this is not json at all")
	if !errors.Is(err, formatting.ErrParseFailed) {
		t.Errorf("Parse = %v, want ErrParseFailed", err)
	}
}
