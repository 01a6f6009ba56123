// Package tokenizer estimates token counts for provider inputs.
//
// Providers bill and limit by tokens, but the exact tokenizer varies per
// model and is often unavailable client-side. This package implements a
// deterministic GPT-2-style estimate: text is segmented into words, numbers,
// punctuation runs, and whitespace gaps, and long words are weighted by
// their byte length the way byte-pair encodings split rare words into
// subword pieces. The estimate is intended for pre-flight sizing and usage
// accounting, not for exact billing.
package tokenizer

import (
	"unicode"
	"unicode/utf8"
)

// avgSubwordBytes is the byte length a single BPE piece covers on average.
// Words longer than this are counted as multiple tokens.
const avgSubwordBytes = 4

// Count estimates the number of tokens in text.
//
// The empty string counts as zero. ASCII words cost roughly one token per
// four bytes; CJK and other non-Latin runes tokenize closer to one token
// per rune, which the byte-length weighting approximates since those runes
// are three bytes each in UTF-8.
func Count(text string) int {
	if text == "" {
		return 0
	}

	tokens := 0
	wordBytes := 0

	flush := func() {
		if wordBytes == 0 {
			return
		}
		// Round to the nearest piece count, minimum one token per word.
		pieces := (wordBytes + avgSubwordBytes/2) / avgSubwordBytes
		if pieces < 1 {
			pieces = 1
		}
		tokens += pieces
		wordBytes = 0
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// Punctuation is its own token in GPT-2's vocabulary.
			flush()
			tokens++
		default:
			wordBytes += utf8.RuneLen(r)
		}
	}
	flush()

	return tokens
}

// CountAll estimates the total token count across texts.
func CountAll(texts []string) int {
	total := 0
	for _, t := range texts {
		total += Count(t)
	}
	return total
}
