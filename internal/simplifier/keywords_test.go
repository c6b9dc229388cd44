package simplifier

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractKeywords_BaseThenThreatsThenNouns(t *testing.T) {
	t.Parallel()

	keywords := ExtractKeywords(
		"LockBit Ransomware Hits Acme Hospital",
		"The ransomware group exploited a known vulnerability.",
	)

	if len(keywords) == 0 || keywords[0] != "cybersecurity" {
		t.Fatalf("expected base keyword first, got %v", keywords)
	}

	want := map[string]bool{"ransomware": false, "vulnerability": false, "lockbit": false, "acme": false}
	for _, keyword := range keywords {
		if _, ok := want[keyword]; ok {
			want[keyword] = true
		}
	}
	for keyword, found := range want {
		if !found {
			t.Fatalf("expected keyword %q in %v", keyword, keywords)
		}
	}
}

func TestExtractKeywords_DedupAndLimit(t *testing.T) {
	t.Parallel()

	title := "Alpha Bravo Charlie Delta Echo Foxtrot Golf Hotel India Juliett Kilo"
	keywords := ExtractKeywords(title, "ransomware phishing malware breach exploit")
	if len(keywords) > maxKeywords {
		t.Fatalf("keyword list exceeds limit: %d", len(keywords))
	}

	seen := map[string]struct{}{}
	for _, keyword := range keywords {
		if _, dup := seen[keyword]; dup {
			t.Fatalf("duplicate keyword %q", keyword)
		}
		seen[keyword] = struct{}{}
	}
}

func TestReadingTimeMinutes(t *testing.T) {
	t.Parallel()

	if got := ReadingTimeMinutes("short text"); got != minReadingMinutes {
		t.Fatalf("expected floor of %d, got %d", minReadingMinutes, got)
	}

	long := strings.Repeat("word ", 450)
	if got := ReadingTimeMinutes(long); got != 3 {
		t.Fatalf("expected 3 minutes for 450 words, got %d", got)
	}
}

func TestBuildMetaDescription_StripsHTMLAndClips(t *testing.T) {
	t.Parallel()

	raw := "<p>Attackers <b>breached</b> the network. " + strings.Repeat("More detail here. ", 30) + "</p>"
	got := BuildMetaDescription(raw)

	if strings.Contains(got, "<") {
		t.Fatalf("markup survived: %q", got)
	}
	if utf8.RuneCountInString(got) > maxMetaDescription {
		t.Fatalf("description exceeds limit: %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}

func TestBuildMetaDescription_ShortTextUnchanged(t *testing.T) {
	t.Parallel()

	if got := BuildMetaDescription("Plain short description."); got != "Plain short description." {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	if got := WordCount("one two", "three  four five"); got != 5 {
		t.Fatalf("unexpected word count: %d", got)
	}
}
