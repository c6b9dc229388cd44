package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// IsEnglish reports whether a text sample reads as English. Samples too
// short to classify are accepted so the filter never rejects on noise.
func IsEnglish(text string) bool {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return false
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return true
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return true
	}
	return language == lingua.English
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.Spanish,
				lingua.French,
				lingua.German,
				lingua.Portuguese,
				lingua.Russian,
				lingua.Chinese,
				lingua.Japanese,
			).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
