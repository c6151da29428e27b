package store

import (
	"context"
	"strings"
	"testing"

	"github.com/aelfread/wordhoard/core/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProjectCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var projectID int64
	err := s.WithTx(ctx, func(tx *Tx) error {
		p, err := tx.CreateProject(ctx, "Beowulf")
		if err != nil {
			return err
		}
		projectID = p.ID
		return nil
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	err = s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.CreateProject(ctx, "Beowulf")
		return err
	})
	if !errors.Is(err, errors.ErrAlreadyExists) {
		t.Errorf("duplicate project name: err = %v, want ErrAlreadyExists", err)
	}

	err = s.View(ctx, func(tx *Tx) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if p.Name != "Beowulf" {
			t.Errorf("project name = %q", p.Name)
		}
		if !strings.HasSuffix(p.CreatedAt, "Z") {
			t.Errorf("created_at %q not UTC RFC 3339", p.CreatedAt)
		}
		byName, err := tx.GetProjectByName(ctx, "Beowulf")
		if err != nil {
			return err
		}
		if byName.ID != projectID {
			t.Errorf("GetProjectByName id = %d, want %d", byName.ID, projectID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read project: %v", err)
	}

	err = s.WithTx(ctx, func(tx *Tx) error {
		return tx.DeleteProject(ctx, projectID)
	})
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	err = s.View(ctx, func(tx *Tx) error {
		_, err := tx.GetProject(ctx, projectID)
		return err
	})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("get deleted project: err = %v, want ErrNotFound", err)
	}
}

func TestTokenPositionUniqueness(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var sentenceID int64
	mustTx(t, s, func(tx *Tx) error {
		p, err := tx.CreateProject(ctx, "p")
		if err != nil {
			return err
		}
		sent, err := tx.CreateSentence(ctx, p.ID, 1, "Se cyning wæs.", true)
		if err != nil {
			return err
		}
		sentenceID = sent.ID
		_, err = tx.CreateToken(ctx, sentenceID, 0, "Se")
		return err
	})

	err := s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.CreateToken(ctx, sentenceID, 0, "cyning")
		return err
	})
	if err == nil {
		t.Fatal("duplicate position accepted, want UNIQUE violation")
	}

	// The failed transaction rolled back; the original token remains.
	mustView(t, s, func(tx *Tx) error {
		tokens, err := tx.ListTokens(ctx, sentenceID)
		if err != nil {
			return err
		}
		if len(tokens) != 1 || tokens[0].Surface != "Se" {
			t.Errorf("tokens after rollback = %+v", tokens)
		}
		return nil
	})
}

func TestTokenCascadeDeletesAnnotation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var tokenID int64
	mustTx(t, s, func(tx *Tx) error {
		p, err := tx.CreateProject(ctx, "p")
		if err != nil {
			return err
		}
		sent, err := tx.CreateSentence(ctx, p.ID, 1, "wæs", true)
		if err != nil {
			return err
		}
		tokenID, err = tx.CreateToken(ctx, sent.ID, 0, "wæs")
		return err
	})

	mustView(t, s, func(tx *Tx) error {
		ann, err := tx.GetAnnotation(ctx, tokenID)
		if err != nil {
			return err
		}
		if !ann.Empty() {
			t.Errorf("new annotation not empty: %+v", ann)
		}
		return nil
	})

	mustTx(t, s, func(tx *Tx) error {
		return tx.DeleteToken(ctx, tokenID)
	})
	err := s.View(ctx, func(tx *Tx) error {
		_, err := tx.GetAnnotation(ctx, tokenID)
		return err
	})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("annotation after token delete: err = %v, want ErrNotFound", err)
	}
}

func TestAnnotationRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var tokenID int64
	mustTx(t, s, func(tx *Tx) error {
		p, err := tx.CreateProject(ctx, "p")
		if err != nil {
			return err
		}
		sent, err := tx.CreateSentence(ctx, p.ID, 1, "singan", true)
		if err != nil {
			return err
		}
		tokenID, err = tx.CreateToken(ctx, sent.ID, 0, "singan")
		return err
	})

	person := 3
	confidence := 85
	mustTx(t, s, func(tx *Tx) error {
		return tx.UpdateAnnotation(ctx, &Annotation{
			TokenID:    tokenID,
			POS:        "V",
			VerbClass:  "s3",
			VerbTense:  "p",
			VerbPerson: &person,
			VerbMood:   "i",
			Uncertain:  true,
			Confidence: &confidence,
		})
	})

	mustView(t, s, func(tx *Tx) error {
		ann, err := tx.GetAnnotation(ctx, tokenID)
		if err != nil {
			return err
		}
		if ann.POS != "V" || ann.VerbClass != "s3" || !ann.Uncertain {
			t.Errorf("annotation = %+v", ann)
		}
		if ann.VerbPerson == nil || *ann.VerbPerson != 3 {
			t.Errorf("verb person = %v, want 3", ann.VerbPerson)
		}
		if ann.Confidence == nil || *ann.Confidence != 85 {
			t.Errorf("confidence = %v, want 85", ann.Confidence)
		}
		return nil
	})

	bad := 200
	err := s.WithTx(ctx, func(tx *Tx) error {
		return tx.UpdateAnnotation(ctx, &Annotation{TokenID: tokenID, Confidence: &bad})
	})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("confidence 200: err = %v, want ErrInvalidInput", err)
	}
}

func TestNoteAnchorsNulledOnTokenDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var sentenceID, tokenID, noteID int64
	mustTx(t, s, func(tx *Tx) error {
		p, err := tx.CreateProject(ctx, "p")
		if err != nil {
			return err
		}
		sent, err := tx.CreateSentence(ctx, p.ID, 1, "wæs", true)
		if err != nil {
			return err
		}
		sentenceID = sent.ID
		tokenID, err = tx.CreateToken(ctx, sentenceID, 0, "wæs")
		if err != nil {
			return err
		}
		n, err := tx.CreateNote(ctx, &Note{
			SentenceID: sentenceID,
			StartToken: tokenID,
			EndToken:   tokenID,
			Body:       "past tense of wesan",
			Kind:       NoteKindToken,
		})
		if err != nil {
			return err
		}
		noteID = n.ID
		return nil
	})

	mustTx(t, s, func(tx *Tx) error {
		return tx.DeleteToken(ctx, tokenID)
	})

	mustView(t, s, func(tx *Tx) error {
		n, err := tx.GetNote(ctx, noteID)
		if err != nil {
			return err
		}
		if n.StartToken != 0 || n.EndToken != 0 {
			t.Errorf("note anchors = %d,%d, want nulled", n.StartToken, n.EndToken)
		}
		return nil
	})
}

func TestRenumberSentences(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var projectID int64
	mustTx(t, s, func(tx *Tx) error {
		p, err := tx.CreateProject(ctx, "p")
		if err != nil {
			return err
		}
		projectID = p.ID
		// Leave a gap: 1, 3, 7.
		for _, seq := range []int{1, 3, 7} {
			if _, err := tx.CreateSentence(ctx, projectID, seq, "s", false); err != nil {
				return err
			}
		}
		return nil
	})

	mustTx(t, s, func(tx *Tx) error {
		return tx.RenumberSentences(ctx, projectID)
	})

	mustView(t, s, func(tx *Tx) error {
		sentences, err := tx.ListSentences(ctx, projectID)
		if err != nil {
			return err
		}
		for i, sent := range sentences {
			if sent.Seq != i+1 {
				t.Errorf("seq at index %d = %d, want %d", i, sent.Seq, i+1)
			}
		}
		return nil
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sentinel := errors.NewValidation("test", "forced failure")
	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.CreateProject(ctx, "doomed"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("WithTx error = %v", err)
	}

	mustView(t, s, func(tx *Tx) error {
		projects, err := tx.ListProjects(ctx)
		if err != nil {
			return err
		}
		if len(projects) != 0 {
			t.Errorf("projects after rollback = %+v", projects)
		}
		return nil
	})
}

func mustTx(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	if err := s.WithTx(context.Background(), fn); err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func mustView(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	if err := s.View(context.Background(), fn); err != nil {
		t.Fatalf("view: %v", err)
	}
}
