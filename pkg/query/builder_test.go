package query_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/prismhq/prism/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.
		NewProjectionMap("public", "answers", "a").
		Project("id", "ID").
		Project("brand_id", "BrandID").
		Project("raw_text", "RawText").
		Project("created_at", "CreatedAt")
}

func TestBuildNoConditions(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).Build()

	want := "SELECT a.id, a.brand_id, a.raw_text, a.created_at FROM public.answers a"
	if sql != want {
		t.Errorf("Build() = %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("Build() args = %v, want none", args)
	}
}

func TestBuildWithConditionsRenumbers(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sql, args := query.
		NewBuilder(testProjection()).
		WhereEquals("BrandID", "b-1").
		WhereSince("CreatedAt", &since).
		Build()

	want := "SELECT a.id, a.brand_id, a.raw_text, a.created_at FROM public.answers a" +
		" WHERE a.brand_id = $1 AND a.created_at >= $2"
	if sql != want {
		t.Errorf("Build() = %q, want %q", sql, want)
	}

	wantArgs := []any{"b-1", since}
	if diff := cmp.Diff(wantArgs, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestWhereEqualsNilIgnored(t *testing.T) {
	var brandID *string

	sql, args := query.
		NewBuilder(testProjection()).
		WhereEquals("BrandID", brandID).
		Build()

	if len(args) != 0 {
		t.Errorf("nil filter should add no args, got %v", args)
	}
	if sql != "SELECT a.id, a.brand_id, a.raw_text, a.created_at FROM public.answers a" {
		t.Errorf("nil filter should add no conditions, got %q", sql)
	}
}

func TestWhereIn(t *testing.T) {
	sql, args := query.
		NewBuilder(testProjection()).
		WhereIn("ID", []any{"a", "b", "c"}).
		Build()

	want := "SELECT a.id, a.brand_id, a.raw_text, a.created_at FROM public.answers a" +
		" WHERE a.id IN ($1, $2, $3)"
	if sql != want {
		t.Errorf("Build() = %q, want %q", sql, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3 values", args)
	}
}

func TestWhereNotEmptyAndRaw(t *testing.T) {
	sql, _ := query.
		NewBuilder(testProjection()).
		WhereNotEmpty("RawText").
		WhereRaw("(a.brand_id IS NOT NULL)").
		Build()

	want := "SELECT a.id, a.brand_id, a.raw_text, a.created_at FROM public.answers a" +
		" WHERE a.raw_text IS NOT NULL AND a.raw_text <> '' AND (a.brand_id IS NOT NULL)"
	if sql != want {
		t.Errorf("Build() = %q, want %q", sql, want)
	}
}

func TestDefaultSortAndLimit(t *testing.T) {
	sort := query.SortField{Field: "CreatedAt", Descending: true}

	sql, _ := query.NewBuilder(testProjection(), sort).BuildLimit(25)
	want := "SELECT a.id, a.brand_id, a.raw_text, a.created_at FROM public.answers a" +
		" ORDER BY a.created_at DESC LIMIT 25"
	if sql != want {
		t.Errorf("BuildLimit(25) = %q, want %q", sql, want)
	}

	sql, _ = query.NewBuilder(testProjection(), sort).BuildLimit(0)
	want = "SELECT a.id, a.brand_id, a.raw_text, a.created_at FROM public.answers a" +
		" ORDER BY a.created_at DESC"
	if sql != want {
		t.Errorf("BuildLimit(0) = %q, want %q", sql, want)
	}
}

func TestBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).BuildSingle("ID", "abc")

	want := "SELECT a.id, a.brand_id, a.raw_text, a.created_at FROM public.answers a WHERE a.id = $1"
	if sql != want {
		t.Errorf("BuildSingle = %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("BuildSingle args = %v, want [abc]", args)
	}
}
