package slugger

import (
	"strings"
	"testing"
)

func TestSlugify_Basic(t *testing.T) {
	t.Parallel()

	got := Slugify("Example Breach Hits 4,000 Companies!")
	if got != "example-breach-hits-4-000-companies" {
		t.Fatalf("unexpected slug: %q", got)
	}
}

func TestSlugify_FoldsDiacritics(t *testing.T) {
	t.Parallel()

	got := Slugify("Ransomware à la Carte: Café Chain Attacked")
	if got != "ransomware-a-la-carte-cafe-chain-attacked" {
		t.Fatalf("unexpected slug: %q", got)
	}
}

func TestSlugify_CollapsesAndTrimsHyphens(t *testing.T) {
	t.Parallel()

	got := Slugify("  ---Breach??  Report--  ")
	if got != "breach-report" {
		t.Fatalf("unexpected slug: %q", got)
	}
}

func TestSlugify_CapsLength(t *testing.T) {
	t.Parallel()

	got := Slugify(strings.Repeat("breach ", 40))
	if len(got) > maxSlugLength {
		t.Fatalf("slug exceeds max length: %d", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("truncated slug has trailing hyphen: %q", got)
	}
}

func TestNextSuffix_Sequence(t *testing.T) {
	t.Parallel()

	if got := NextSuffix("example-breach", 0); got != "example-breach" {
		t.Fatalf("attempt 0: got %q", got)
	}
	if got := NextSuffix("example-breach", 1); got != "example-breach-1" {
		t.Fatalf("attempt 1: got %q", got)
	}
	if got := NextSuffix("example-breach", 2); got != "example-breach-2" {
		t.Fatalf("attempt 2: got %q", got)
	}
}
