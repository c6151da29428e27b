// Package search implements the annotation query language: a sequence
// of terms, each either a bare surface word or a field:value filter,
// all of which must match the same token. Quoted values carry spaces
// and reserved characters.
package search

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/aelfread/wordhoard/core/errors"
)

// Query is a parsed search query.
type Query struct {
	Terms []Term
}

// Term is one filter. Field is empty for a bare surface term.
type Term struct {
	Field string
	Value string
}

//nolint:govet // participle grammar tags are not standard struct tags
type queryGrammar struct {
	Terms []*termGrammar `@@+`
}

//nolint:govet // participle grammar tags are not standard struct tags
type termGrammar struct {
	Field string `( @Ident ":" )?`
	Value string `( @Ident | @String )`
}

var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Ident", Pattern: `[^\s:"]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var queryParser = participle.MustBuild[queryGrammar](
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// fields maps query field names to the columns they filter. The
// tokens table is aliased t, annotations a.
var fields = map[string]string{
	"surface":    "t.surface",
	"lemma":      "t.lemma",
	"pos":        "a.pos",
	"gender":     "a.gender",
	"number":     "a.number",
	"case":       "a.gram_case",
	"declension": "a.declension",
	"pronoun":    "a.pronoun_type",
	"class":      "a.verb_class",
	"tense":      "a.verb_tense",
	"person":     "a.verb_person",
	"mood":       "a.verb_mood",
	"aspect":     "a.verb_aspect",
	"form":       "a.verb_form",
	"prepcase":   "a.prep_case",
	"uncertain":  "a.uncertain",
}

// Parse parses a query string.
func Parse(input string) (*Query, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.NewValidation("query", "must not be empty")
	}
	parsed, err := queryParser.ParseString("", input)
	if err != nil {
		return nil, errors.NewParse("query", "", err.Error())
	}

	q := &Query{}
	for _, t := range parsed.Terms {
		field := strings.ToLower(t.Field)
		if field != "" {
			if _, ok := fields[field]; !ok {
				return nil, errors.NewValidation("query", "unknown field "+field)
			}
		}
		q.Terms = append(q.Terms, Term{Field: field, Value: t.Value})
	}
	return q, nil
}
