// Package splitter detects sentence boundaries in Old English prose.
//
// Corpus documents quote reported speech heavily and carry bracketed
// footnote markers such as [12], so naive terminal-punctuation
// splitting would fragment both. The scan here keeps quote state and
// only ends a sentence when the next significant character looks like
// the start of a new one: an uppercase letter, a quote, a footnote
// marker, or end of document.
//
// Known limitation, preserved deliberately: a quoted sentence followed
// by a lowercase continuation ("...?" cwæð hē) still splits after the
// closing quote only when the continuation is uppercase, so mid-sentence
// attributions after quotes are over-merged. Changing this would change
// the segmentation of existing corpora.
package splitter

import (
	"strings"
	"unicode"

	"github.com/aelfread/wordhoard/core/charset"
)

// Sentence is one segmentation result with its paragraph marker.
type Sentence struct {
	// Text is the trimmed sentence text with footnote markers removed.
	Text string
	// ParagraphStart marks the first sentence of a paragraph.
	ParagraphStart bool
}

// Split segments a document into trimmed sentence strings. Footnote
// markers are stripped; empty results are dropped. It is total over
// all inputs.
func Split(document string) []string {
	var sentences []string
	var buf []rune

	flush := func() {
		if s := clean(string(buf)); s != "" {
			sentences = append(sentences, s)
		}
		buf = buf[:0]
	}

	rs := []rune(document)
	inQuote := false
	var quoteChar rune

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case isFootnoteStart(rs, i):
			// Consume and discard a [digits] marker. Anything else
			// after the bracket is literal text.
			j := i + 1
			for j < len(rs) && rs[j] >= '0' && rs[j] <= '9' {
				j++
			}
			if j < len(rs) && rs[j] == ']' {
				i = j
				continue
			}
			buf = append(buf, r)
		case r == '"' || r == '\'':
			if !inQuote {
				inQuote = true
				quoteChar = r
				buf = append(buf, r)
			} else if r == quoteChar {
				inQuote = false
				buf = append(buf, r)
				if len(buf) >= 2 && charset.IsTerminal(buf[len(buf)-2]) && startsNewSentence(rs, i+1) {
					flush()
				}
			} else {
				// The other quote character inside an active quote is
				// a literal, not a boundary.
				buf = append(buf, r)
			}
		case charset.IsTerminal(r) && !inQuote:
			buf = append(buf, r)
			if atBoundary(rs, i+1) {
				flush()
			}
		default:
			buf = append(buf, r)
		}
	}
	flush()
	return sentences
}

// SplitDocument segments a document into sentences with paragraph
// tracking. Paragraphs are separated by blank lines; the first
// sentence of each paragraph carries ParagraphStart.
func SplitDocument(document string) []Sentence {
	var out []Sentence
	for _, para := range paragraphs(document) {
		for i, text := range Split(para) {
			out = append(out, Sentence{
				Text:           text,
				ParagraphStart: i == 0,
			})
		}
	}
	return out
}

// atBoundary reports whether a terminal punctuation mark at position
// i-1 ends a sentence: the next significant content is end of document,
// an uppercase letter, a quote character, or a footnote marker.
// Anything else (a lowercase continuation, more punctuation) means the
// mark was abbreviation-like and the sentence continues.
func atBoundary(rs []rune, i int) bool {
	i = skipSpace(rs, i)
	if i >= len(rs) {
		return true
	}
	r := rs[i]
	if unicode.IsUpper(r) || charset.IsQuote(r) {
		return true
	}
	return isFootnoteStart(rs, i)
}

// startsNewSentence reports whether the content after a closing quote
// begins a new sentence: an uppercase letter or a footnote marker.
func startsNewSentence(rs []rune, i int) bool {
	i = skipSpace(rs, i)
	if i >= len(rs) {
		return true
	}
	return unicode.IsUpper(rs[i]) || isFootnoteStart(rs, i)
}

// isFootnoteStart reports whether rs[i:] begins a bracketed footnote
// marker: "[" followed by at least one digit.
func isFootnoteStart(rs []rune, i int) bool {
	return i+1 < len(rs) && rs[i] == '[' && rs[i+1] >= '0' && rs[i+1] <= '9'
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && charset.IsSpace(rs[i]) {
		i++
	}
	return i
}

// clean trims a raw sentence and removes any residual bracketed-number
// markers that survived the scan.
func clean(s string) string {
	s = stripFootnotes(s)
	return strings.TrimSpace(s)
}

// stripFootnotes removes every [digits] sequence from s.
func stripFootnotes(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if isFootnoteStart(rs, i) {
			j := i + 1
			for j < len(rs) && rs[j] >= '0' && rs[j] <= '9' {
				j++
			}
			if j < len(rs) && rs[j] == ']' {
				i = j
				continue
			}
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

// paragraphs splits a document at blank lines.
func paragraphs(document string) []string {
	var paras []string
	var cur []string
	flush := func() {
		p := strings.TrimSpace(strings.Join(cur, "\n"))
		if p != "" {
			paras = append(paras, p)
		}
		cur = cur[:0]
	}
	for _, line := range strings.Split(document, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return paras
}
