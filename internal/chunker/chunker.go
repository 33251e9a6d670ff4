// Package chunker splits extracted text into bounded, sentence-aligned
// segments for storage and search indexing.
package chunker

import "strings"

// DefaultChunkSize is the target chunk length in bytes when the caller does
// not configure one.
const DefaultChunkSize = 1000

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Split cuts text into chunks of roughly size bytes without breaking
// sentences. Sentences are greedily packed: a sentence that would push the
// current chunk past size starts a new one, so a single long sentence can
// produce a chunk above size. Every chunk ends with a period. Empty or
// whitespace-only input yields no chunks.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	current := ""

	for _, sentence := range strings.FieldsFunc(text, isSentenceEnd) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if current != "" && len(current)+len(sentence) > size {
			chunks = append(chunks, current+".")
			current = sentence
			continue
		}

		if current == "" {
			current = sentence
		} else {
			current += ". " + sentence
		}
	}

	if current != "" {
		chunks = append(chunks, current+".")
	}

	return chunks
}
