package exchange

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aelfread/wordhoard/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedProject creates a small annotated project and returns its id.
func seedProject(t *testing.T, s *store.Store) int64 {
	t.Helper()
	ctx := context.Background()
	var projectID int64
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		p, err := tx.CreateProject(ctx, "saga")
		if err != nil {
			return err
		}
		projectID = p.ID

		sent, err := tx.CreateSentence(ctx, p.ID, 1, "Se cyning wæs gōd.", true)
		if err != nil {
			return err
		}
		surfaces := []string{"Se", "cyning", "wæs", "gōd"}
		ids := make([]int64, len(surfaces))
		for i, w := range surfaces {
			id, err := tx.CreateToken(ctx, sent.ID, i, w)
			if err != nil {
				return err
			}
			ids[i] = id
		}
		if err := tx.UpdateTokenLemma(ctx, ids[1], "cyning"); err != nil {
			return err
		}
		conf := 80
		err = tx.UpdateAnnotation(ctx, &store.Annotation{
			TokenID:    ids[1],
			POS:        "noun",
			Gender:     "masculine",
			Number:     "singular",
			Case:       "nominative",
			Confidence: &conf,
		})
		if err != nil {
			return err
		}
		_, err = tx.CreateNote(ctx, &store.Note{
			SentenceID: sent.ID,
			StartToken: ids[1],
			EndToken:   ids[3],
			Kind:       store.NoteKindSpan,
			Body:       "formulaic epithet",
		})
		if err != nil {
			return err
		}

		sent2, err := tx.CreateSentence(ctx, p.ID, 2, "Hē fēoll.", false)
		if err != nil {
			return err
		}
		if err := tx.UpdateSentenceTranslation(ctx, sent2.ID, "He fell."); err != nil {
			return err
		}
		for i, w := range []string{"Hē", "fēoll"} {
			if _, err := tx.CreateToken(ctx, sent2.ID, i, w); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return projectID
}

func TestExportImportRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	projectID := seedProject(t, s)

	env, err := Export(ctx, s, projectID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if env.FormatVersion != FormatVersion {
		t.Errorf("format_version = %q", env.FormatVersion)
	}
	if env.ExportID == "" || env.Checksum == "" || env.ExportedAt == "" {
		t.Errorf("incomplete envelope metadata: %+v", env)
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// Importing into the same store collides with "saga".
	p, err := Import(ctx, s, data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if p.Name != "saga (2)" {
		t.Errorf("imported name = %q, want %q", p.Name, "saga (2)")
	}

	err = s.View(ctx, func(tx *store.Tx) error {
		sents, err := tx.ListSentences(ctx, p.ID)
		if err != nil {
			return err
		}
		if len(sents) != 2 {
			t.Fatalf("got %d sentences, want 2", len(sents))
		}
		if sents[0].Text != "Se cyning wæs gōd." || !sents[0].ParagraphStart {
			t.Errorf("sentence 1 = %+v", sents[0])
		}
		if sents[1].Translation != "He fell." {
			t.Errorf("translation = %q", sents[1].Translation)
		}

		toks, err := tx.ListTokenDetails(ctx, sents[0].ID)
		if err != nil {
			return err
		}
		if len(toks) != 4 || toks[1].Surface != "cyning" || toks[1].Lemma != "cyning" {
			t.Errorf("tokens = %+v", toks)
		}
		ann, err := tx.GetAnnotation(ctx, toks[1].ID)
		if err != nil {
			return err
		}
		if ann.POS != "noun" || ann.Case != "nominative" || ann.Confidence == nil || *ann.Confidence != 80 {
			t.Errorf("annotation = %+v", ann)
		}

		notes, err := tx.ListNotes(ctx, sents[0].ID)
		if err != nil {
			return err
		}
		if len(notes) != 1 {
			t.Fatalf("got %d notes, want 1", len(notes))
		}
		if notes[0].StartToken != toks[1].ID || notes[0].EndToken != toks[3].ID {
			t.Errorf("note anchors = %d..%d, want %d..%d",
				notes[0].StartToken, notes[0].EndToken, toks[1].ID, toks[3].ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestImportChecksumMismatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	projectID := seedProject(t, s)

	env, err := Export(ctx, s, projectID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	env.Project.Name = "tampered"
	data, _ := json.Marshal(env)

	if _, err := Import(ctx, s, data); err == nil {
		t.Fatal("expected checksum error")
	} else if !strings.Contains(err.Error(), "checksum") {
		t.Errorf("error = %v, want checksum mismatch", err)
	}
}

func TestImportLegacyEnvelope(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	legacy := `{
		"format_version": "1.0",
		"export_id": "f0b4c2e8-0000-0000-0000-000000000000",
		"exported_at": "2024-01-01T00:00:00Z",
		"checksum": "ignored-after-migration",
		"project": {
			"name": "chronicle",
			"sentences": [{
				"seq": 1,
				"text_oe": "Þā cōm Grendel.",
				"text_modern": "Then Grendel came.",
				"tokens": [
					{"order_index": 0, "surface": "Þā"},
					{"order_index": 1, "surface": "cōm"},
					{"order_index": 2, "surface": "Grendel"}
				],
				"notes": [{
					"note_type": "token",
					"note_text_md": "the monster",
					"start_position": 2,
					"end_position": 2
				}]
			}]
		}
	}`

	p, err := Import(ctx, s, []byte(legacy))
	if err != nil {
		t.Fatalf("Import legacy: %v", err)
	}
	if p.Name != "chronicle" {
		t.Errorf("name = %q", p.Name)
	}

	err = s.View(ctx, func(tx *store.Tx) error {
		sents, err := tx.ListSentences(ctx, p.ID)
		if err != nil {
			return err
		}
		if len(sents) != 1 || sents[0].Text != "Þā cōm Grendel." {
			t.Fatalf("sentences = %+v", sents)
		}
		if sents[0].Translation != "Then Grendel came." {
			t.Errorf("translation = %q", sents[0].Translation)
		}
		toks, err := tx.ListTokens(ctx, sents[0].ID)
		if err != nil {
			return err
		}
		if len(toks) != 3 || toks[2].Surface != "Grendel" {
			t.Errorf("tokens = %+v", toks)
		}
		notes, err := tx.ListNotes(ctx, sents[0].ID)
		if err != nil {
			return err
		}
		if len(notes) != 1 || notes[0].Kind != store.NoteKindToken || notes[0].Body != "the monster" {
			t.Errorf("notes = %+v", notes)
		}
		if notes[0].StartToken != toks[2].ID {
			t.Errorf("note anchored to %d, want %d", notes[0].StartToken, toks[2].ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestImportUnsupportedVersion(t *testing.T) {
	s := openTestStore(t)
	data := []byte(`{"format_version": "9.9", "project": {"name": "x"}}`)
	if _, err := Import(context.Background(), s, data); err == nil {
		t.Fatal("expected version error")
	}
}

func TestImportMalformedJSON(t *testing.T) {
	s := openTestStore(t)
	if _, err := Import(context.Background(), s, []byte("{not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
