package simplifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxKeywords        = 10
	maxMetaDescription = 160
	wordsPerMinute     = 200
	minReadingMinutes  = 2
)

var baseKeywords = []string{"cybersecurity", "security news", "threat intelligence"}

var threatTerms = []string{
	"ransomware",
	"phishing",
	"malware",
	"breach",
	"vulnerability",
	"exploit",
	"zero-day",
	"ddos",
	"botnet",
	"spyware",
}

var properNounPattern = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9]{2,}\b`)

// ExtractKeywords derives up to maxKeywords comma-ready keywords from an
// article. Base terms first, then matched threat terms, then capitalized
// tokens from the title.
func ExtractKeywords(title, content string) []string {
	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]struct{}, maxKeywords)

	add := func(keyword string) {
		normalized := strings.TrimSpace(strings.ToLower(keyword))
		if normalized == "" || len(keywords) >= maxKeywords {
			return
		}
		if _, exists := seen[normalized]; exists {
			return
		}
		seen[normalized] = struct{}{}
		keywords = append(keywords, normalized)
	}

	for _, keyword := range baseKeywords {
		add(keyword)
	}

	haystack := strings.ToLower(title + " " + content)
	for _, term := range threatTerms {
		if strings.Contains(haystack, term) {
			add(term)
		}
	}

	for _, token := range properNounPattern.FindAllString(title, -1) {
		add(token)
	}

	return keywords
}

// ReadingTimeMinutes estimates reading time at wordsPerMinute, with a
// floor so very short reports never show an implausible zero.
func ReadingTimeMinutes(text string) int {
	words := len(strings.Fields(text))
	minutes := words/wordsPerMinute + 1
	if minutes < minReadingMinutes {
		minutes = minReadingMinutes
	}
	return minutes
}

// readingTimeForReport estimates from the text a reader actually sees,
// the summary and the business impact, not the raw source article.
func readingTimeForReport(report *IntelReport) int {
	return ReadingTimeMinutes(report.Summary + " " + report.Impact)
}

// BuildMetaDescription strips any markup and clips the text to the SEO
// description limit on a word boundary.
func BuildMetaDescription(text string) string {
	plain := strings.TrimSpace(text)
	if strings.Contains(plain, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(plain)); err == nil {
			plain = doc.Text()
		}
	}
	plain = strings.Join(strings.Fields(plain), " ")

	if utf8.RuneCountInString(plain) <= maxMetaDescription {
		return plain
	}

	runes := []rune(plain)
	clipped := string(runes[:maxMetaDescription-3])
	if idx := strings.LastIndex(clipped, " "); idx > 0 {
		clipped = clipped[:idx]
	}
	return clipped + "..."
}

// WordCount counts whitespace-separated words across report sections.
func WordCount(sections ...string) int {
	total := 0
	for _, section := range sections {
		total += len(strings.Fields(section))
	}
	return total
}
