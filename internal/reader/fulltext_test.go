package reader

import (
	"strings"
	"testing"
)

func TestCleanText_CollapsesWhitespace(t *testing.T) {
	t.Parallel()

	got := CleanText("  first   line \r\n\r\n second\tline  \n\n\n")
	if got != "first line\n\nsecond line" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestTruncateText_ClipsAtRuneBoundary(t *testing.T) {
	t.Parallel()

	raw := strings.Repeat("é", 10)
	got := TruncateText(raw, 4)
	if got != strings.Repeat("é", 4) {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestTruncateText_ShortInputUnchanged(t *testing.T) {
	t.Parallel()

	if got := TruncateText("  short  ", 100); got != "short" {
		t.Fatalf("unexpected result: %q", got)
	}
}
