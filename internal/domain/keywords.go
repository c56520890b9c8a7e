package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	keywordMinRunes     = 5
	keywordContentWords = 5
)

// fixedKeywords are attached to every record.
var fixedKeywords = []string{"sessão", "atendimento"}

// ExtractKeywords builds the indexing keywords for a record: the lower-cased
// patient name, the fixed domain terms, then the first five content words
// longer than four characters.
func ExtractKeywords(patientName, content string) []string {
	lower := cases.Lower(language.BrazilianPortuguese)

	keywords := make([]string, 0, 1+len(fixedKeywords)+keywordContentWords)
	keywords = append(keywords, lower.String(strings.TrimSpace(patientName)))
	keywords = append(keywords, fixedKeywords...)

	count := 0
	for _, field := range strings.Fields(lower.String(content)) {
		if count == keywordContentWords {
			break
		}
		word := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(word) < keywordMinRunes {
			continue
		}
		keywords = append(keywords, word)
		count++
	}

	return keywords
}
