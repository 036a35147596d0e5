// Package chunk splits long documents into synthesis-safe text segments.
package chunk

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	sentenceEnd    = regexp.MustCompile(`([.!?])\s+`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
	disallowedRune = regexp.MustCompile(`[^\w\s.,!?;:\-()'"]+`)
	ellipsisRun    = regexp.MustCompile(`\.{3,}`)
	bangRun        = regexp.MustCompile(`!{2,}`)
	questionRun    = regexp.MustCompile(`\?{2,}`)
)

// ErrMaxLength is returned when maxLen is not positive.
var ErrMaxLength = errors.New("chunk: max length must be positive")

// Split breaks text into ordered segments no longer than maxLen characters.
// With preserveSentences it packs whole sentences greedily, falling back to
// word packing for oversized sentences and to a hard character split for
// oversized words. Without it the text is sliced at fixed offsets. The
// result never contains empty or whitespace-only segments.
func Split(text string, maxLen int, preserveSentences bool) ([]string, error) {
	if maxLen <= 0 {
		return nil, ErrMaxLength
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if len(text) <= maxLen {
		return []string{text}, nil
	}

	var chunks []string
	if preserveSentences {
		chunks = packSentences(text, maxLen)
	} else {
		for i := 0; i < len(text); {
			end := i + cutPoint(text[i:], maxLen)
			chunks = append(chunks, text[i:end])
			i = end
		}
	}

	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// splitSentences cuts text after terminal punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	marked := sentenceEnd.ReplaceAllString(text, "${1}\x00")
	parts := strings.Split(marked, "\x00")
	var sentences []string
	for _, p := range parts {
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

func packSentences(text string, maxLen int) []string {
	var chunks []string
	var current strings.Builder

	for _, sentence := range splitSentences(text) {
		if current.Len()+len(sentence)+1 <= maxLen {
			current.WriteString(sentence)
			current.WriteString(" ")
			continue
		}
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			if len(sentence)+1 <= maxLen {
				current.WriteString(sentence)
				current.WriteString(" ")
				continue
			}
		}
		// A single sentence that cannot fit on its own.
		chunks = append(chunks, packWords(sentence, maxLen)...)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

func packWords(text string, maxLen int) []string {
	var chunks []string
	var current strings.Builder

	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 <= maxLen {
			current.WriteString(word)
			current.WriteString(" ")
			continue
		}
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			if len(word)+1 <= maxLen {
				current.WriteString(word)
				current.WriteString(" ")
				continue
			}
		}
		// A single word longer than maxLen is cut at a rune
		// boundary; the remainder goes back through word packing.
		cut := cutPoint(word, maxLen)
		chunks = append(chunks, word[:cut])
		if rest := word[cut:]; rest != "" {
			chunks = append(chunks, packWords(rest, maxLen)...)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// cutPoint returns the largest offset at most limit that lands on a
// rune boundary of s. When the first rune alone is wider than limit it
// is kept whole rather than cut mid-sequence.
func cutPoint(s string, limit int) int {
	if limit >= len(s) {
		return len(s)
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	if limit == 0 {
		_, n := utf8.DecodeRuneInString(s)
		return n
	}
	return limit
}

// Clean normalizes text before synthesis: drops characters the provider
// rejects, collapses whitespace and trims runs of repeated punctuation.
func Clean(text string) string {
	text = disallowedRune.ReplaceAllString(text, " ")
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = ellipsisRun.ReplaceAllString(text, "...")
	text = bangRun.ReplaceAllString(text, "!")
	text = questionRun.ReplaceAllString(text, "?")
	return strings.TrimSpace(text)
}

// EstimateDuration approximates spoken length in seconds assuming 150
// words per minute and five characters per word.
func EstimateDuration(text string, speakingRate float64) float64 {
	if speakingRate <= 0 {
		speakingRate = 1.0
	}
	words := float64(len(text)) / 5
	minutes := words / (150 * speakingRate)
	return minutes * 60
}
