// Package analyzer derives lexical metrics and heuristic metadata from
// extracted document text: word counts, a Flesch-Kincaid reading level,
// recurring topics, and education-specific fields like grade level and
// lesson objectives.
package analyzer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const maxTopics = 10

var nonWordRE = regexp.MustCompile(`[^a-z0-9_\s]+`)

// stopWords are common words excluded from topic extraction.
var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {},
	"have": {}, "been": {}, "were": {}, "said": {}, "each": {},
	"which": {}, "their": {}, "will": {}, "about": {}, "would": {},
	"there": {}, "could": {}, "other": {}, "after": {}, "first": {},
	"these": {}, "them": {}, "then": {}, "than": {}, "when": {},
	"what": {}, "your": {}, "some": {}, "into": {}, "more": {},
}

// WordCount returns the number of whitespace-delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// SentenceCount counts sentence fragments longer than five characters.
// The length floor filters out stray punctuation and initials.
func SentenceCount(text string) int {
	count := 0
	for _, fragment := range strings.FieldsFunc(text, isSentenceEnd) {
		if len(strings.TrimSpace(fragment)) > 5 {
			count++
		}
	}
	return count
}

// SyllableCount estimates the syllables in a word by counting vowel runs.
// Words of three characters or fewer count as one syllable, a trailing e is
// treated as silent, and the result never drops below one.
func SyllableCount(word string) int {
	word = strings.ToLower(word)
	if len(word) <= 3 {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}

	if strings.HasSuffix(word, "e") {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

// ReadingLevel computes the Flesch-Kincaid grade level of text, rounded to
// one decimal and floored at 1.0. Empty text scores 1.0.
func ReadingLevel(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 1.0
	}

	sentences := SentenceCount(text)
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, word := range words {
		syllables += SyllableCount(word)
	}

	grade := 0.39*float64(len(words))/float64(sentences) +
		11.8*float64(syllables)/float64(len(words)) - 15.59

	grade = math.Round(grade*10) / 10
	if grade < 1.0 {
		grade = 1.0
	}
	return grade
}

// Topics returns up to ten recurring words in text, most frequent first with
// alphabetical order breaking ties. Only words longer than three characters
// that appear at least twice qualify, and common stop words are excluded.
func Topics(text string) []string {
	cleaned := nonWordRE.ReplaceAllString(strings.ToLower(text), "")

	freq := map[string]int{}
	for _, token := range strings.Fields(cleaned) {
		if len(token) <= 3 {
			continue
		}
		if _, ok := stopWords[token]; ok {
			continue
		}
		freq[token]++
	}

	type wordCount struct {
		word  string
		count int
	}
	ranked := make([]wordCount, 0, len(freq))
	for word, count := range freq {
		if count >= 2 {
			ranked = append(ranked, wordCount{word, count})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	if len(ranked) > maxTopics {
		ranked = ranked[:maxTopics]
	}

	topics := make([]string, len(ranked))
	for i, wc := range ranked {
		topics[i] = wc.word
	}
	return topics
}
