package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/aelfread/wordhoard/internal/editor"
	"github.com/aelfread/wordhoard/internal/store"
)

// AnnotateCmd sets grammatical annotation on a token, either from
// flags or through an interactive prompt that walks the sentence.
type AnnotateCmd struct {
	Token int64 `arg:"" help:"Token id"`

	Interactive bool `short:"i" help:"Annotate interactively, walking the sentence token by token"`

	POS        string `name:"pos" help:"Part of speech"`
	Gender     string `help:"Grammatical gender"`
	Number     string `help:"Grammatical number"`
	Case       string `name:"case" help:"Grammatical case"`
	Declension string `help:"Declension (strong, weak)"`
	Pronoun    string `help:"Pronoun type"`
	Class      string `help:"Verb class"`
	Tense      string `help:"Verb tense"`
	Person     int    `help:"Verb person (1-3)" default:"-1"`
	Mood       string `help:"Verb mood"`
	Aspect     string `help:"Verb aspect"`
	Form       string `help:"Verb form"`
	PrepCase   string `name:"prep-case" help:"Case governed by a preposition"`
	Uncertain  bool   `help:"Mark the analysis uncertain"`
	Confidence int    `help:"Confidence (0-100)" default:"-1"`
	Lemma      string `help:"Dictionary headword"`
}

func (c *AnnotateCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if c.Interactive {
		return c.runInteractive(st)
	}

	ctx := context.Background()
	ann := &store.Annotation{
		TokenID:     c.Token,
		POS:         c.POS,
		Gender:      c.Gender,
		Number:      c.Number,
		Case:        c.Case,
		Declension:  c.Declension,
		PronounType: c.Pronoun,
		VerbClass:   c.Class,
		VerbTense:   c.Tense,
		VerbMood:    c.Mood,
		VerbAspect:  c.Aspect,
		VerbForm:    c.Form,
		PrepCase:    c.PrepCase,
		Uncertain:   c.Uncertain,
	}
	if c.Person >= 0 {
		ann.VerbPerson = &c.Person
	}
	if c.Confidence >= 0 {
		ann.Confidence = &c.Confidence
	}

	ed := editor.New(st)
	if c.Lemma != "" {
		err = st.WithTx(ctx, func(tx *store.Tx) error {
			return tx.UpdateTokenLemma(ctx, c.Token, c.Lemma)
		})
		if err != nil {
			return err
		}
	}
	if err := ed.Annotate(ctx, ann); err != nil {
		return err
	}
	fmt.Printf("Annotated token %d: %s\n", c.Token, describeAnnotation(ann))
	return nil
}

// annotationFields maps prompt field names to annotation setters and
// their suggested values.
var annotationFields = []struct {
	name   string
	values []string
	set    func(a *store.Annotation, v string) error
}{
	{"pos", []string{"noun", "verb", "adjective", "adverb", "pronoun", "preposition", "conjunction", "interjection", "numeral", "article"},
		func(a *store.Annotation, v string) error { a.POS = v; return nil }},
	{"gender", []string{"masculine", "feminine", "neuter"},
		func(a *store.Annotation, v string) error { a.Gender = v; return nil }},
	{"number", []string{"singular", "plural", "dual"},
		func(a *store.Annotation, v string) error { a.Number = v; return nil }},
	{"case", []string{"nominative", "accusative", "genitive", "dative", "instrumental"},
		func(a *store.Annotation, v string) error { a.Case = v; return nil }},
	{"declension", []string{"strong", "weak"},
		func(a *store.Annotation, v string) error { a.Declension = v; return nil }},
	{"pronoun", []string{"personal", "demonstrative", "interrogative", "indefinite", "relative", "reflexive"},
		func(a *store.Annotation, v string) error { a.PronounType = v; return nil }},
	{"class", []string{"1", "2", "3", "4", "5", "6", "7", "weak-1", "weak-2", "weak-3", "preterite-present", "anomalous"},
		func(a *store.Annotation, v string) error { a.VerbClass = v; return nil }},
	{"tense", []string{"present", "past"},
		func(a *store.Annotation, v string) error { a.VerbTense = v; return nil }},
	{"person", []string{"1", "2", "3"},
		func(a *store.Annotation, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 3 {
				return fmt.Errorf("person must be 1, 2, or 3")
			}
			a.VerbPerson = &n
			return nil
		}},
	{"mood", []string{"indicative", "subjunctive", "imperative"},
		func(a *store.Annotation, v string) error { a.VerbMood = v; return nil }},
	{"aspect", []string{"simple", "perfect", "progressive"},
		func(a *store.Annotation, v string) error { a.VerbAspect = v; return nil }},
	{"form", []string{"finite", "infinitive", "participle-present", "participle-past"},
		func(a *store.Annotation, v string) error { a.VerbForm = v; return nil }},
	{"prepcase", []string{"accusative", "genitive", "dative", "instrumental"},
		func(a *store.Annotation, v string) error { a.PrepCase = v; return nil }},
	{"uncertain", []string{"true", "false"},
		func(a *store.Annotation, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("uncertain must be true or false")
			}
			a.Uncertain = b
			return nil
		}},
	{"confidence", nil,
		func(a *store.Annotation, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n > 100 {
				return fmt.Errorf("confidence must be 0-100")
			}
			a.Confidence = &n
			return nil
		}},
}

var replCommands = []prompt.Suggest{
	{Text: "show", Description: "Show the pending annotation"},
	{Text: "recall", Description: "Apply the last saved values for this part of speech"},
	{Text: "clear", Description: "Discard pending changes"},
	{Text: "save", Description: "Write the annotation"},
	{Text: "next", Description: "Save and move to the next token"},
	{Text: "skip", Description: "Move to the next token without saving"},
	{Text: "lemma", Description: "Set the dictionary headword"},
	{Text: "quit", Description: "Exit without saving pending changes"},
}

// runInteractive walks the token's sentence from the given token,
// prompting for field/value pairs per token.
func (c *AnnotateCmd) runInteractive(st *store.Store) error {
	ctx := context.Background()
	ed := editor.New(st)
	session := editor.NewSession(ed)

	var tokens []store.Token
	start := 0
	err := st.View(ctx, func(tx *store.Tx) error {
		tok, err := tx.GetToken(ctx, c.Token)
		if err != nil {
			return err
		}
		tokens, err = tx.ListTokenDetails(ctx, tok.SentenceID)
		if err != nil {
			return err
		}
		for i, t := range tokens {
			if t.ID == tok.ID {
				start = i
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println("field value to set, save/next to write, quit to exit")
	history := []string{}

	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		pending, lemma, err := loadPending(ctx, st, tok)
		if err != nil {
			return err
		}
		fmt.Printf("token %d/%d: %q\n", tok.Position+1, len(tokens), tok.Surface)

	tokenLoop:
		for {
			in := prompt.Input(fmt.Sprintf("  %s › ", tok.Surface), annotateCompleter,
				prompt.OptionTitle("wordhoard annotate"),
				prompt.OptionPrefixTextColor(prompt.Yellow),
				prompt.OptionMaxSuggestion(12),
				prompt.OptionHistory(history),
			)
			in = strings.TrimSpace(in)
			if in == "" {
				continue
			}
			history = append(history, in)

			field, value, _ := strings.Cut(in, " ")
			value = strings.TrimSpace(value)

			switch field {
			case "quit":
				return nil
			case "show":
				fmt.Printf("  %s\n", describeAnnotation(pending))
				if lemma != "" {
					fmt.Printf("  lemma: %s\n", lemma)
				}
				continue
			case "clear":
				pending, lemma, err = loadPending(ctx, st, tok)
				if err != nil {
					return err
				}
				continue
			case "recall":
				if prev, ok := session.Recall(pending.POS); ok {
					prev.TokenID = tok.ID
					pending = &prev
					fmt.Printf("  %s\n", describeAnnotation(pending))
				} else {
					fmt.Println("  nothing remembered for this part of speech")
				}
				continue
			case "lemma":
				lemma = value
				continue
			case "save", "next", "skip":
				if field != "skip" {
					if err := saveAnnotation(ctx, st, ed, session, tok, pending, lemma); err != nil {
						fmt.Printf("  error: %s\n", err)
						continue
					}
					fmt.Printf("  saved token %d\n", tok.ID)
				}
				if field == "save" {
					continue
				}
				break tokenLoop
			}

			if err := setField(pending, field, value); err != nil {
				fmt.Printf("  error: %s\n", err)
			}
		}
	}
	return nil
}

func loadPending(ctx context.Context, st *store.Store, tok store.Token) (*store.Annotation, string, error) {
	pending := &store.Annotation{TokenID: tok.ID}
	err := st.View(ctx, func(tx *store.Tx) error {
		a, err := tx.GetAnnotation(ctx, tok.ID)
		if err != nil {
			return err
		}
		*pending = *a
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return pending, tok.Lemma, nil
}

func saveAnnotation(ctx context.Context, st *store.Store, ed *editor.Editor, session *editor.Session, tok store.Token, pending *store.Annotation, lemma string) error {
	if lemma != tok.Lemma {
		err := st.WithTx(ctx, func(tx *store.Tx) error {
			return tx.UpdateTokenLemma(ctx, tok.ID, lemma)
		})
		if err != nil {
			return err
		}
	}
	if err := ed.Annotate(ctx, pending); err != nil {
		return err
	}
	session.Remember(pending)
	return nil
}

func setField(pending *store.Annotation, field, value string) error {
	if value == "" {
		return fmt.Errorf("usage: %s VALUE", field)
	}
	for _, f := range annotationFields {
		if f.name == field {
			return f.set(pending, value)
		}
	}
	return fmt.Errorf("unknown field %q", field)
}

// annotateCompleter suggests commands and field names, then values
// for the field before the cursor.
func annotateCompleter(in prompt.Document) []prompt.Suggest {
	before := in.TextBeforeCursor()
	if before == "" {
		return nil
	}
	parts := strings.Split(before, " ")

	if len(parts) == 1 {
		s := make([]prompt.Suggest, 0, len(annotationFields)+len(replCommands))
		for _, f := range annotationFields {
			s = append(s, prompt.Suggest{Text: f.name})
		}
		s = append(s, replCommands...)
		return prompt.FilterHasPrefix(s, in.GetWordBeforeCursor(), true)
	}

	for _, f := range annotationFields {
		if f.name == parts[0] {
			s := make([]prompt.Suggest, 0, len(f.values))
			for _, v := range f.values {
				s = append(s, prompt.Suggest{Text: v})
			}
			return prompt.FilterHasPrefix(s, in.GetWordBeforeCursor(), true)
		}
	}
	return nil
}

// describeAnnotation renders an annotation as a compact one-liner.
func describeAnnotation(a *store.Annotation) string {
	if a.Empty() {
		return "(unannotated)"
	}
	parts := []string{}
	add := func(label, v string) {
		if v != "" {
			parts = append(parts, label+"="+v)
		}
	}
	add("pos", a.POS)
	add("gender", a.Gender)
	add("number", a.Number)
	add("case", a.Case)
	add("declension", a.Declension)
	add("pronoun", a.PronounType)
	add("class", a.VerbClass)
	add("tense", a.VerbTense)
	if a.VerbPerson != nil {
		parts = append(parts, "person="+strconv.Itoa(*a.VerbPerson))
	}
	add("mood", a.VerbMood)
	add("aspect", a.VerbAspect)
	add("form", a.VerbForm)
	add("prepcase", a.PrepCase)
	if a.Uncertain {
		parts = append(parts, "uncertain")
	}
	if a.Confidence != nil {
		parts = append(parts, "confidence="+strconv.Itoa(*a.Confidence))
	}
	return strings.Join(parts, " ")
}
