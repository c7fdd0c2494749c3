package fusion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize_LookalikeSubstitution(t *testing.T) {
	variants := Normalize("npoecc1")
	if len(variants) == 0 {
		t.Fatal("expected at least one variant")
	}

	if variants[0] != "проесс1" {
		t.Errorf("first variant should be the direct substitution, got %q", variants[0])
	}

	want := map[string]bool{"проесс 1": true}
	for _, v := range variants {
		delete(want, v)
	}
	for missing := range want {
		t.Errorf("expected variant %q not produced", missing)
	}
}

func TestNormalize_CaseVariants(t *testing.T) {
	variants := Normalize("CTAPT")

	found := map[string]bool{}
	for _, v := range variants {
		found[v] = true
	}

	for _, want := range []string{"СТАРТ", "старт", "Старт"} {
		if !found[want] {
			t.Errorf("expected case variant %q, got %v", want, variants)
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	a := Normalize("npoueccop 12")
	b := Normalize("npoueccop 12")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("variant list not deterministic (-first +second):\n%s", diff)
	}
}

func TestNormalize_NoDuplicates(t *testing.T) {
	variants := Normalize("abc")
	seen := map[string]bool{}
	for _, v := range variants {
		if seen[v] {
			t.Errorf("duplicate variant %q", v)
		}
		seen[v] = true
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize("   "); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}

func TestNormalize_TrailingDigitsAlreadySpaced(t *testing.T) {
	variants := Normalize("npoecc 1")
	for _, v := range variants {
		if v == "проесс  1" {
			t.Errorf("double space inserted before digit run: %v", variants)
		}
	}
}
