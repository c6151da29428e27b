// Package exchange serializes projects to a versioned JSON envelope
// and imports them back. Envelopes carry a BLAKE3 checksum of the
// canonical project document so transfers and backups can be verified,
// and older envelope versions are migrated forward on import.
package exchange

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/aelfread/wordhoard/core/errors"
	"github.com/aelfread/wordhoard/internal/store"
)

// FormatVersion is the envelope version this package writes.
const FormatVersion = "1.1"

// Envelope is the on-disk export format.
type Envelope struct {
	FormatVersion string     `json:"format_version"`
	ExportID      string     `json:"export_id"`
	ExportedAt    string     `json:"exported_at"`
	Checksum      string     `json:"checksum"`
	Project       ProjectDoc `json:"project"`
}

// ProjectDoc is the canonical project document the checksum covers.
type ProjectDoc struct {
	Name      string        `json:"name"`
	Sentences []SentenceDoc `json:"sentences"`
}

type SentenceDoc struct {
	Seq            int        `json:"seq"`
	Text           string     `json:"text"`
	Translation    string     `json:"translation,omitempty"`
	ParagraphStart bool       `json:"paragraph_start,omitempty"`
	Tokens         []TokenDoc `json:"tokens"`
	Notes          []NoteDoc  `json:"notes,omitempty"`
}

type TokenDoc struct {
	Position   int            `json:"position"`
	Surface    string         `json:"surface"`
	Lemma      string         `json:"lemma,omitempty"`
	Annotation *AnnotationDoc `json:"annotation,omitempty"`
}

type AnnotationDoc struct {
	POS         string `json:"pos,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Number      string `json:"number,omitempty"`
	Case        string `json:"case,omitempty"`
	Declension  string `json:"declension,omitempty"`
	PronounType string `json:"pronoun_type,omitempty"`
	VerbClass   string `json:"verb_class,omitempty"`
	VerbTense   string `json:"verb_tense,omitempty"`
	VerbPerson  *int   `json:"verb_person,omitempty"`
	VerbMood    string `json:"verb_mood,omitempty"`
	VerbAspect  string `json:"verb_aspect,omitempty"`
	VerbForm    string `json:"verb_form,omitempty"`
	PrepCase    string `json:"prep_case,omitempty"`
	Uncertain   bool   `json:"uncertain,omitempty"`
	Confidence  *int   `json:"confidence,omitempty"`
}

// NoteDoc anchors notes by token position rather than id: ids are
// store-assigned and do not survive a round trip.
type NoteDoc struct {
	Kind          string `json:"kind"`
	Body          string `json:"body"`
	StartPosition *int   `json:"start_position,omitempty"`
	EndPosition   *int   `json:"end_position,omitempty"`
}

// Export builds an envelope for one project.
func Export(ctx context.Context, st *store.Store, projectID int64) (*Envelope, error) {
	var doc ProjectDoc
	err := st.View(ctx, func(tx *store.Tx) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		doc.Name = p.Name

		sents, err := tx.ListSentences(ctx, projectID)
		if err != nil {
			return err
		}
		for _, s := range sents {
			sd := SentenceDoc{
				Seq:            s.Seq,
				Text:           s.Text,
				Translation:    s.Translation,
				ParagraphStart: s.ParagraphStart,
				Tokens:         []TokenDoc{},
			}

			toks, err := tx.ListTokenDetails(ctx, s.ID)
			if err != nil {
				return err
			}
			posOf := make(map[int64]int, len(toks))
			for _, tok := range toks {
				posOf[tok.ID] = tok.Position
				td := TokenDoc{Position: tok.Position, Surface: tok.Surface, Lemma: tok.Lemma}
				ann, err := tx.GetAnnotation(ctx, tok.ID)
				if err != nil {
					return err
				}
				if !ann.Empty() {
					td.Annotation = annotationDoc(ann)
				}
				sd.Tokens = append(sd.Tokens, td)
			}

			notes, err := tx.ListNotes(ctx, s.ID)
			if err != nil {
				return err
			}
			for _, n := range notes {
				nd := NoteDoc{Kind: n.Kind, Body: n.Body}
				if pos, ok := posOf[n.StartToken]; ok {
					v := pos
					nd.StartPosition = &v
				}
				if pos, ok := posOf[n.EndToken]; ok {
					v := pos
					nd.EndPosition = &v
				}
				sd.Notes = append(sd.Notes, nd)
			}

			doc.Sentences = append(doc.Sentences, sd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sum, err := checksum(&doc)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		FormatVersion: FormatVersion,
		ExportID:      uuid.NewString(),
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		Checksum:      sum,
		Project:       doc,
	}, nil
}

// Import creates a project from envelope data. Legacy envelopes are
// migrated forward first; the checksum is verified for current-version
// envelopes (migration rewrites the document, so legacy checksums no
// longer apply). A name collision is resolved by suffixing " (2)",
// " (3)" and so on.
func Import(ctx context.Context, st *store.Store, data []byte) (*store.Project, error) {
	env, migrated, err := decode(data)
	if err != nil {
		return nil, err
	}
	if !migrated && env.Checksum != "" {
		sum, err := checksum(&env.Project)
		if err != nil {
			return nil, err
		}
		if sum != env.Checksum {
			return nil, errors.NewValidation("checksum", "envelope checksum mismatch")
		}
	}

	var project *store.Project
	err = st.WithTx(ctx, func(tx *store.Tx) error {
		name, err := availableName(ctx, tx, env.Project.Name)
		if err != nil {
			return err
		}
		p, err := tx.CreateProject(ctx, name)
		if err != nil {
			return err
		}

		for _, sd := range env.Project.Sentences {
			sent, err := tx.CreateSentence(ctx, p.ID, sd.Seq, sd.Text, sd.ParagraphStart)
			if err != nil {
				return err
			}
			if sd.Translation != "" {
				if err := tx.UpdateSentenceTranslation(ctx, sent.ID, sd.Translation); err != nil {
					return err
				}
			}

			idAt := make(map[int]int64, len(sd.Tokens))
			for _, td := range sd.Tokens {
				id, err := tx.CreateToken(ctx, sent.ID, td.Position, td.Surface)
				if err != nil {
					return err
				}
				idAt[td.Position] = id
				if td.Lemma != "" {
					if err := tx.UpdateTokenLemma(ctx, id, td.Lemma); err != nil {
						return err
					}
				}
				if td.Annotation != nil {
					if err := tx.UpdateAnnotation(ctx, storeAnnotation(id, td.Annotation)); err != nil {
						return err
					}
				}
			}

			for _, nd := range sd.Notes {
				n := &store.Note{SentenceID: sent.ID, Kind: nd.Kind, Body: nd.Body}
				if nd.StartPosition != nil {
					n.StartToken = idAt[*nd.StartPosition]
				}
				if nd.EndPosition != nil {
					n.EndToken = idAt[*nd.EndPosition]
				}
				if _, err := tx.CreateNote(ctx, n); err != nil {
					return err
				}
			}
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Marshal renders an envelope as indented JSON for files and stdout.
func Marshal(env *Envelope) ([]byte, error) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal envelope")
	}
	return append(data, '\n'), nil
}

// Verify decodes envelope data and, for current-version envelopes,
// confirms the recorded checksum matches the project document. Legacy
// envelopes pass once they decode: migration rewrites the document the
// old checksum covered.
func Verify(data []byte) error {
	env, migrated, err := decode(data)
	if err != nil {
		return err
	}
	if migrated || env.Checksum == "" {
		return nil
	}
	sum, err := checksum(&env.Project)
	if err != nil {
		return err
	}
	if sum != env.Checksum {
		return errors.NewValidation("checksum", "envelope checksum mismatch")
	}
	return nil
}

// checksum hex-encodes the BLAKE3 digest of the canonical JSON
// encoding of doc.
func checksum(doc *ProjectDoc) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "encode project document")
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// availableName returns name, or the first "name (n)" variant not yet
// taken.
func availableName(ctx context.Context, tx *store.Tx, name string) (string, error) {
	if name == "" {
		return "", errors.NewValidation("name", "envelope has no project name")
	}
	candidate := name
	for n := 2; ; n++ {
		_, err := tx.GetProjectByName(ctx, candidate)
		if errors.Is(err, errors.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
}

func annotationDoc(a *store.Annotation) *AnnotationDoc {
	return &AnnotationDoc{
		POS:         a.POS,
		Gender:      a.Gender,
		Number:      a.Number,
		Case:        a.Case,
		Declension:  a.Declension,
		PronounType: a.PronounType,
		VerbClass:   a.VerbClass,
		VerbTense:   a.VerbTense,
		VerbPerson:  a.VerbPerson,
		VerbMood:    a.VerbMood,
		VerbAspect:  a.VerbAspect,
		VerbForm:    a.VerbForm,
		PrepCase:    a.PrepCase,
		Uncertain:   a.Uncertain,
		Confidence:  a.Confidence,
	}
}

func storeAnnotation(tokenID int64, d *AnnotationDoc) *store.Annotation {
	return &store.Annotation{
		TokenID:     tokenID,
		POS:         d.POS,
		Gender:      d.Gender,
		Number:      d.Number,
		Case:        d.Case,
		Declension:  d.Declension,
		PronounType: d.PronounType,
		VerbClass:   d.VerbClass,
		VerbTense:   d.VerbTense,
		VerbPerson:  d.VerbPerson,
		VerbMood:    d.VerbMood,
		VerbAspect:  d.VerbAspect,
		VerbForm:    d.VerbForm,
		PrepCase:    d.PrepCase,
		Uncertain:   d.Uncertain,
		Confidence:  d.Confidence,
	}
}
