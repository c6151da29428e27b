package search

import (
	"context"
	"testing"

	"github.com/aelfread/wordhoard/internal/store"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Term
	}{
		{"bare term", "cyning", []Term{{Value: "cyning"}}},
		{"field term", "pos:noun", []Term{{Field: "pos", Value: "noun"}}},
		{"mixed terms", "cyning case:nominative", []Term{
			{Value: "cyning"},
			{Field: "case", Value: "nominative"},
		}},
		{"quoted value", `lemma:"wesan"`, []Term{{Field: "lemma", Value: "wesan"}}},
		{"quoted bare term", `"ġe-wāt"`, []Term{{Value: "ġe-wāt"}}},
		{"uppercase field", "POS:verb", []Term{{Field: "pos", Value: "verb"}}},
		{"multiple filters", "pos:verb tense:past person:3", []Term{
			{Field: "pos", Value: "verb"},
			{Field: "tense", Value: "past"},
			{Field: "person", Value: "3"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if len(q.Terms) != len(tt.want) {
				t.Fatalf("got %d terms, want %d", len(q.Terms), len(tt.want))
			}
			for i, w := range tt.want {
				if q.Terms[i] != w {
					t.Errorf("term %d = %+v, want %+v", i, q.Terms[i], w)
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "bogusfield:x"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q): expected error", input)
		}
	}
}

func seedSearchStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	err = s.WithTx(ctx, func(tx *store.Tx) error {
		p, err := tx.CreateProject(ctx, "beowulf")
		if err != nil {
			return err
		}
		sent, err := tx.CreateSentence(ctx, p.ID, 1, "Se cyning wæs gōd.", true)
		if err != nil {
			return err
		}
		ids := make([]int64, 0, 4)
		for i, w := range []string{"Se", "cyning", "wæs", "gōd"} {
			id, err := tx.CreateToken(ctx, sent.ID, i, w)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		err = tx.UpdateAnnotation(ctx, &store.Annotation{
			TokenID: ids[1], POS: "noun", Gender: "masculine",
			Number: "singular", Case: "nominative",
		})
		if err != nil {
			return err
		}
		person := 3
		err = tx.UpdateAnnotation(ctx, &store.Annotation{
			TokenID: ids[2], POS: "verb", VerbTense: "past",
			VerbPerson: &person, Uncertain: true,
		})
		if err != nil {
			return err
		}

		p2, err := tx.CreateProject(ctx, "wanderer")
		if err != nil {
			return err
		}
		sent2, err := tx.CreateSentence(ctx, p2.ID, 1, "Cyning wæs hēr.", true)
		if err != nil {
			return err
		}
		for i, w := range []string{"Cyning", "wæs", "hēr"} {
			if _, err := tx.CreateToken(ctx, sent2.ID, i, w); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestExecuteSurfaceTerm(t *testing.T) {
	s := seedSearchStore(t)

	// Bare terms match case-insensitively across projects.
	results, err := Execute(context.Background(), s, 0, "cyning")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ProjectName != "beowulf" || results[1].ProjectName != "wanderer" {
		t.Errorf("project order = %q, %q", results[0].ProjectName, results[1].ProjectName)
	}
	if results[0].Position != 1 || results[0].Surface != "cyning" {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].SentenceText != "Se cyning wæs gōd." {
		t.Errorf("sentence text = %q", results[0].SentenceText)
	}
}

func TestExecuteFieldFilters(t *testing.T) {
	s := seedSearchStore(t)
	ctx := context.Background()

	results, err := Execute(ctx, s, 0, "pos:verb tense:past")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 1 || results[0].Surface != "wæs" {
		t.Fatalf("results = %+v, want only wæs", results)
	}

	results, err = Execute(ctx, s, 0, "person:3")
	if err != nil {
		t.Fatalf("Execute person: %v", err)
	}
	if len(results) != 1 || results[0].Surface != "wæs" {
		t.Errorf("person:3 results = %+v", results)
	}

	results, err = Execute(ctx, s, 0, "uncertain:true")
	if err != nil {
		t.Fatalf("Execute uncertain: %v", err)
	}
	if len(results) != 1 || results[0].Surface != "wæs" {
		t.Errorf("uncertain:true results = %+v", results)
	}

	results, err = Execute(ctx, s, 0, "cyning pos:noun case:nominative")
	if err != nil {
		t.Fatalf("Execute combined: %v", err)
	}
	if len(results) != 1 || results[0].ProjectName != "beowulf" {
		t.Errorf("combined results = %+v", results)
	}
}

func TestExecuteScopedToProject(t *testing.T) {
	s := seedSearchStore(t)
	ctx := context.Background()

	var wandererID int64
	err := s.View(ctx, func(tx *store.Tx) error {
		p, err := tx.GetProjectByName(ctx, "wanderer")
		if err != nil {
			return err
		}
		wandererID = p.ID
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	results, err := Execute(ctx, s, wandererID, "cyning")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 1 || results[0].ProjectName != "wanderer" {
		t.Errorf("scoped results = %+v", results)
	}
}

func TestExecuteInvalidValues(t *testing.T) {
	s := seedSearchStore(t)
	ctx := context.Background()
	if _, err := Execute(ctx, s, 0, "person:third"); err == nil {
		t.Error("expected error for non-numeric person")
	}
	if _, err := Execute(ctx, s, 0, "uncertain:maybe"); err == nil {
		t.Error("expected error for non-boolean uncertain")
	}
}
