package ner

import (
	"github.com/pemistahl/lingua-go"
)

// LanguageFilter decides whether a chunk is worth sending to the recognizer.
type LanguageFilter interface {
	Accept(text string) bool
}

// EnglishFilter accepts text detected as English.
// Text whose language cannot be determined reliably is accepted.
type EnglishFilter struct {
	detector lingua.LanguageDetector
}

// NewEnglishFilter creates an EnglishFilter that tells English apart from
// the other languages commonly found in the corpus.
func NewEnglishFilter() *EnglishFilter {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.French, lingua.German, lingua.Spanish, lingua.Italian, lingua.Portuguese, lingua.Dutch).
		Build()
	return &EnglishFilter{detector: detector}
}

// Accept reports whether text should be recognized.
func (f *EnglishFilter) Accept(text string) bool {
	lang, ok := f.detector.DetectLanguageOf(text)
	if !ok {
		return true
	}
	return lang == lingua.English
}

// acceptAll is the filter used when language detection is disabled.
type acceptAll struct{}

func (acceptAll) Accept(string) bool { return true }
