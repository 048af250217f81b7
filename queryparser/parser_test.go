package queryparser

import "testing"

func TestParseSimpleTerm(t *testing.T) {
	pq := ParseQuery("sunset")
	if pq.FTSExpr != "sunset*" {
		t.Errorf("expected %q, got %q", "sunset*", pq.FTSExpr)
	}
}

func TestParsePhrase(t *testing.T) {
	pq := ParseQuery(`"golden gate bridge"`)
	if pq.FTSExpr != `"golden gate bridge"` {
		t.Errorf("expected quoted phrase, got %q", pq.FTSExpr)
	}
}

func TestParseAndExpression(t *testing.T) {
	pq := ParseQuery("sunset AND beach")
	want := "(sunset* AND beach*)"
	if pq.FTSExpr != want {
		t.Errorf("expected %q, got %q", want, pq.FTSExpr)
	}
}

func TestParseOrExpression(t *testing.T) {
	pq := ParseQuery("sunset OR sunrise")
	want := "(sunset* OR sunrise*)"
	if pq.FTSExpr != want {
		t.Errorf("expected %q, got %q", want, pq.FTSExpr)
	}
}

func TestParseNotExpression(t *testing.T) {
	pq := ParseQuery("sunset NOT beach")
	want := "(sunset* AND NOT beach*)"
	if pq.FTSExpr != want {
		t.Errorf("expected %q, got %q", want, pq.FTSExpr)
	}
}

func TestParseFieldSearch(t *testing.T) {
	pq := ParseQuery("camera:Nikon")
	if pq.FTSExpr != "" {
		t.Errorf("expected empty FTS expr, got %q", pq.FTSExpr)
	}
	if len(pq.FieldFilters) != 1 || pq.FieldFilters[0].Field != "camera" || pq.FieldFilters[0].Value != "Nikon" {
		t.Errorf("unexpected field filters: %+v", pq.FieldFilters)
	}
}

func TestParseTagSearch(t *testing.T) {
	pq := ParseQuery("tag:vacation")
	if len(pq.TagNames) != 1 || pq.TagNames[0] != "vacation" {
		t.Errorf("expected tag name vacation, got %+v", pq.TagNames)
	}
	if len(pq.FieldFilters) != 0 {
		t.Errorf("expected tag: to bypass field filters, got %+v", pq.FieldFilters)
	}
}

func TestParseNumericRange(t *testing.T) {
	pq := ParseQuery("iso:>800")
	if len(pq.FieldFilters) != 1 {
		t.Fatalf("expected 1 field filter, got %d", len(pq.FieldFilters))
	}
	ff := pq.FieldFilters[0]
	if ff.Field != "iso" || ff.Operator != OpGreaterThan || ff.Value != "800" {
		t.Errorf("unexpected filter: %+v", ff)
	}
}

func TestParseComplexQuery(t *testing.T) {
	pq := ParseQuery(`sunset AND (camera:Nikon OR camera:Canon) tag:vacation`)
	if len(pq.TagNames) != 1 || pq.TagNames[0] != "vacation" {
		t.Errorf("expected tag vacation, got %+v", pq.TagNames)
	}
	if len(pq.FieldFilters) != 2 {
		t.Errorf("expected 2 camera field filters, got %+v", pq.FieldFilters)
	}
}

func TestParseImplicitAnd(t *testing.T) {
	pq := ParseQuery("sunset beach")
	want := "(sunset* AND beach*)"
	if pq.FTSExpr != want {
		t.Errorf("expected implicit AND %q, got %q", want, pq.FTSExpr)
	}
}

func TestParseEmptyQuery(t *testing.T) {
	pq := ParseQuery("")
	if pq.FTSExpr != "" || len(pq.FieldFilters) != 0 || len(pq.TagNames) != 0 {
		t.Errorf("expected empty ParsedQuery, got %+v", pq)
	}
}

func TestParseDateFieldGreaterThan(t *testing.T) {
	pq := ParseQuery("date:>2024-01-01")
	if len(pq.FieldFilters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(pq.FieldFilters))
	}
	f := pq.FieldFilters[0]
	if f.Field != "date" || f.Operator != OpGreaterThan || f.Value != "2024-01-01" {
		t.Errorf("unexpected filter: %+v", f)
	}
}

func TestEscapeFTS5DoublesQuotes(t *testing.T) {
	if got := escapeFTS5(`say "hi"`); got != `say ""hi""` {
		t.Errorf("escapeFTS5 = %q, want %q", got, `say ""hi""`)
	}
}
