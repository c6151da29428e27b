// Package charset classifies code points for Old English text.
//
// The word-character set is a fixed allow-list: ASCII letters and digits
// plus the extended Latin letters used in normalized Old English editions
// (ash, thorn, eth, yogh, and the macron/dot-bearing vowels and
// consonants). Classification is total: any rune outside the word and
// whitespace sets is punctuation by exclusion.
package charset

import "unicode"

// Class is the classification of a single code point.
type Class int

const (
	// Word is a letter or digit that can form part of a token surface.
	Word Class = iota
	// Punct is any rune that is neither a word character nor whitespace.
	Punct
	// Space is Unicode whitespace.
	Space
)

// oeLetters is the fixed allow-list of extended Latin letters used by
// Old English, in both cases.
var oeLetters = map[rune]bool{
	'þ': true, 'Þ': true,
	'ð': true, 'Ð': true,
	'æ': true, 'Æ': true,
	'ǣ': true, 'Ǣ': true,
	'ȝ': true, 'Ȝ': true,
	'ġ': true, 'Ġ': true,
	'ċ': true, 'Ċ': true,
	'ā': true, 'Ā': true,
	'ē': true, 'Ē': true,
	'ī': true, 'Ī': true,
	'ō': true, 'Ō': true,
	'ū': true, 'Ū': true,
	'ȳ': true, 'Ȳ': true,
}

// Classify returns the class of a single rune. It never fails; runes
// outside the word and whitespace sets classify as Punct.
func Classify(r rune) Class {
	switch {
	case IsSpace(r):
		return Space
	case IsWord(r):
		return Word
	default:
		return Punct
	}
}

// IsWord reports whether r is a word character: an ASCII letter or
// digit, or one of the Old English letters.
func IsWord(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return true
	}
	return oeLetters[r]
}

// IsSpace reports whether r is Unicode whitespace.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r)
}

// IsHyphen reports whether r is a hyphen, en dash, or em dash. These
// join word characters into a single hyphenated compound token.
func IsHyphen(r rune) bool {
	return r == '-' || r == '–' || r == '—'
}

// IsQuote reports whether r is a straight or curly quotation mark.
func IsQuote(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '‘', '’':
		return true
	}
	return false
}

// IsTerminal reports whether r is sentence-terminal punctuation.
func IsTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// IsRunPunct reports whether r belongs to the recognized punctuation
// set that forms punctuation runs during tokenization. Punctuation
// outside this set (brackets, for example) joins no run at all.
func IsRunPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?':
		return true
	}
	return IsHyphen(r) || IsQuote(r)
}
