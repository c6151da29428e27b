// Package tokenizer splits sentence text into an ordered sequence of
// token surface strings.
//
// A token is a maximal run of word characters, where a hyphen, en dash,
// or em dash between two word characters is kept inside the run so that
// hyphenated compounds stay single tokens. Standalone punctuation marks
// and sentence-final punctuation-plus-quote clusters never become
// tokens; trailing terminal punctuation is dropped even though it
// remains part of the sentence's stored text.
//
// Tokenize is total over all string inputs and never fails.
package tokenizer

import (
	"strings"

	"github.com/aelfread/wordhoard/core/charset"
)

// Tokenize splits a sentence into its token surfaces, in order.
// Empty or whitespace-only input yields an empty sequence.
func Tokenize(sentence string) []string {
	var tokens []string
	for _, word := range strings.Fields(sentence) {
		if discard(word) {
			continue
		}
		for _, run := range scanRuns(word) {
			if discard(run) {
				continue
			}
			tokens = append(tokens, run)
		}
	}

	// Trailing sentence-terminal punctuation stays in the sentence text
	// but is never a token.
	for len(tokens) > 0 && isBareTerminal(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// discard reports whether a whitespace-delimited word or a scanned run
// is filtered out entirely: standalone punctuation marks and
// terminal-punctuation-plus-quote clusters.
func discard(s string) bool {
	if isStandalonePunct(s) {
		return true
	}
	return isTerminalQuoteCluster(s)
}

// isStandalonePunct reports whether s is exactly one punctuation mark
// from the recognized set.
func isStandalonePunct(s string) bool {
	rs := []rune(s)
	return len(rs) == 1 && charset.IsRunPunct(rs[0])
}

// isBareTerminal reports whether s is "." or "!" or "?".
func isBareTerminal(s string) bool {
	rs := []rune(s)
	return len(rs) == 1 && charset.IsTerminal(rs[0])
}

// isTerminalQuoteCluster matches one or more terminal punctuation marks
// followed by one or more quote characters, such as the ?" that closes
// quoted speech.
func isTerminalQuoteCluster(s string) bool {
	rs := []rune(s)
	i := 0
	for i < len(rs) && charset.IsTerminal(rs[i]) {
		i++
	}
	if i == 0 {
		return false
	}
	j := i
	for j < len(rs) && charset.IsQuote(rs[j]) {
		j++
	}
	return j > i && j == len(rs)
}

// scanRuns splits a whitespace-free word into maximal runs of word
// characters and runs of recognized punctuation. A hyphen between two
// word characters extends the current word run. Characters outside
// both sets join no run.
func scanRuns(word string) []string {
	var runs []string
	var cur []rune
	inWord := false

	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, string(cur))
			cur = cur[:0]
		}
	}

	rs := []rune(word)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case charset.IsWord(r):
			if !inWord {
				flush()
				inWord = true
			}
			cur = append(cur, r)
		case charset.IsHyphen(r) && inWord && len(cur) > 0 && i+1 < len(rs) && charset.IsWord(rs[i+1]):
			// Interior hyphen: the compound stays one run.
			cur = append(cur, r)
		case charset.IsRunPunct(r):
			if inWord {
				flush()
				inWord = false
			}
			cur = append(cur, r)
		default:
			// Unrecognized characters such as brackets separate runs
			// without joining one.
			flush()
			inWord = false
		}
	}
	flush()
	return runs
}
