package ingest

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Candidate is one raw feed item before admission.
type Candidate struct {
	Title       string
	Link        string
	Description string
	Content     string
	SourceName  string
	PublishedAt *time.Time
	ImageURL    string
}

// FilterConfig bounds the noise filter.
type FilterConfig struct {
	MinTitleLength  int
	MinContentChars int
}

// Terms that admit a candidate on their own.
var strongSecurityTerms = []string{
	"ransomware",
	"phishing",
	"malware",
	"breach",
	"cyberattack",
	"cybersecurity",
	"zero-day",
	"zero day",
	"vulnerability",
	"exploit",
	"ddos",
	"botnet",
	"spyware",
	"infosec",
	"cve-",
}

// Terms that need a co-occurring context term before they count.
var weakSecurityTerms = []string{
	"hack",
	"attack",
	"threat",
	"security",
	"leak",
}

var contextTerms = []string{
	"cyber",
	"data",
	"network",
	"system",
	"server",
	"password",
	"credential",
	"software",
	"computer",
	"firewall",
	"database",
}

var excludedTopics = []string{
	"horoscope",
	"celebrity gossip",
	"box office",
	"match report",
	"transfer rumour",
}

// EvaluateCandidate applies the noise filter. It returns the rejection
// reason, or ok=true when the candidate should be ingested.
func EvaluateCandidate(c Candidate, cfg FilterConfig) (string, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return "missing title", false
	}
	if utf8.RuneCountInString(title) < cfg.MinTitleLength {
		return "title too short", false
	}

	combined := CombinedText(c)
	if utf8.RuneCountInString(combined) < cfg.MinContentChars {
		return "content too short", false
	}

	haystack := strings.ToLower(title + " " + combined)
	for _, topic := range excludedTopics {
		if strings.Contains(haystack, topic) {
			return "excluded topic", false
		}
	}

	if !hasSecuritySignal(haystack) {
		return "no security signal", false
	}

	return "", true
}

func hasSecuritySignal(haystack string) bool {
	for _, term := range strongSecurityTerms {
		if strings.Contains(haystack, term) {
			return true
		}
	}

	weak := false
	for _, term := range weakSecurityTerms {
		if strings.Contains(haystack, term) {
			weak = true
			break
		}
	}
	if !weak {
		return false
	}

	for _, term := range contextTerms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// CombinedText joins description and content for length checks and
// security term matching.
func CombinedText(c Candidate) string {
	description := strings.TrimSpace(c.Description)
	content := strings.TrimSpace(c.Content)
	switch {
	case description == "":
		return content
	case content == "":
		return description
	case strings.Contains(content, description):
		return content
	default:
		return description + "\n\n" + content
	}
}

var categoryKeywords = []struct {
	slug  string
	terms []string
}{
	{slug: "ransomware", terms: []string{"ransomware", "extortion", "lockbit", "encryptor"}},
	{slug: "phishing", terms: []string{"phishing", "smishing", "credential theft", "social engineering"}},
	{slug: "data-breach", terms: []string{"breach", "leak", "exposed records", "stolen data"}},
	{slug: "malware", terms: []string{"malware", "trojan", "spyware", "botnet", "stealer"}},
	{slug: "vulnerability", terms: []string{"vulnerability", "cve-", "zero-day", "zero day", "patch", "exploit"}},
}

// SeedCategory picks an initial category from keyword matches. The AI
// pass may reclassify later.
func SeedCategory(title, content string) string {
	haystack := strings.ToLower(title + " " + content)
	for _, entry := range categoryKeywords {
		for _, term := range entry.terms {
			if strings.Contains(haystack, term) {
				return entry.slug
			}
		}
	}
	return "general"
}
