package fusion

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestParseCoordinates_BracketForm(t *testing.T) {
	raw := "<|ref|>npoecc1<|/ref|><|det|>[[355, 410, 409, 431]]<|/det|>"

	tokens, warnings := ParseCoordinates(raw)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	want := []RawToken{{
		Text: "npoecc1",
		BBox: BBox{X0: 355, Y0: 410, X1: 409, Y1: 431},
	}}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCoordinates_LegacyTupleForm(t *testing.T) {
	raw := "<|ref|>CTAPT<|/ref|><|det|>(100,50),(160,110)<|/det|>"

	tokens, warnings := ParseCoordinates(raw)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	if tokens[0].BBox != (BBox{X0: 100, Y0: 50, X1: 160, Y1: 110}) {
		t.Errorf("unexpected bbox: %+v", tokens[0].BBox)
	}
}

func TestParseCoordinates_MultipleUnitsKeepOrder(t *testing.T) {
	raw := "<|ref|>first<|/ref|><|det|>[[0, 0, 10, 10]]<|/det|>\n" +
		"some markdown in between\n" +
		"<|ref|>second<|/ref|><|det|>[[20, 20, 30, 30]]<|/det|><|ref|>third<|/ref|><|det|>[[40, 40, 50, 50]]<|/det|>"

	tokens, _ := ParseCoordinates(raw)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	for i, want := range []string{"first", "second", "third"} {
		if tokens[i].Text != want {
			t.Errorf("token %d: got %q, want %q", i, tokens[i].Text, want)
		}
	}
}

func TestParseCoordinates_MalformedUnitsSkipped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"wrong number count", "<|ref|>x<|/ref|><|det|>[[355, 410, 409]]<|/det|>"},
		{"no numbers", "<|ref|>x<|/ref|><|det|>[[a, b, c, d]]<|/det|>"},
		{"unbalanced tags", "<|ref|>x<|det|>[[1, 2, 3, 4]]<|/det|>"},
		{"degenerate box", "<|ref|>x<|/ref|><|det|>[[10, 10, 10, 20]]<|/det|>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, warnings := ParseCoordinates(tt.raw)
			if len(tokens) != 0 {
				t.Errorf("expected no tokens, got %v", tokens)
			}
			if len(warnings) != 1 {
				t.Errorf("expected 1 warning, got %v", warnings)
			}
		})
	}
}

func TestParseCoordinates_PartialExtraction(t *testing.T) {
	// A bad unit must not take the good ones down with it.
	raw := "<|ref|>good<|/ref|><|det|>[[0, 0, 5, 5]]<|/det|>\n" +
		"<|ref|>bad<|/ref|><|det|>[[1, 2]]<|/det|>\n" +
		"<|ref|>also good<|/ref|><|det|>[[10, 10, 20, 20]]<|/det|>"

	tokens, warnings := ParseCoordinates(raw)
	if len(tokens) != 2 {
		t.Errorf("expected 2 tokens, got %d", len(tokens))
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(warnings))
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	long := strings.Repeat("я", 100)

	for n := 119; n <= 122; n++ {
		got := truncate(long, n)
		if len(got) > n {
			t.Errorf("n=%d: got %d bytes", n, len(got))
		}
		if !utf8.ValidString(got) {
			t.Errorf("n=%d: truncation split a rune: %q", n, got)
		}
	}

	if got := truncate("short", 120); got != "short" {
		t.Errorf("got %q", got)
	}
}

func TestParseCoordinates_WarningUnitStaysValidUTF8(t *testing.T) {
	// The tag prefix is 7 bytes, so the 120-byte cut lands mid-rune.
	raw := "<|ref|>" + strings.Repeat("я", 100) + "<|det|>[[1, 2, 3, 4]]<|/det|>"

	_, warnings := ParseCoordinates(raw)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
	if !utf8.ValidString(warnings[0].Unit) {
		t.Errorf("warning unit is not valid UTF-8: %q", warnings[0].Unit)
	}
}

func TestParseCoordinates_NoGroundingMarkup(t *testing.T) {
	tokens, warnings := ParseCoordinates("plain markdown text\nwith no grounding at all")
	if len(tokens) != 0 || len(warnings) != 0 {
		t.Errorf("expected empty result, got %v / %v", tokens, warnings)
	}
}
