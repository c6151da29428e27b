package api

import (
	"context"

	"github.com/aelfread/wordhoard/internal/store"
)

// SentenceView is the assembled read model for one sentence: tokens
// with their annotations, plus notes. Views are cached per sentence
// and invalidated by the write handlers.
type SentenceView struct {
	ID             int64       `json:"id"`
	ProjectID      int64       `json:"project_id"`
	Seq            int         `json:"seq"`
	Text           string      `json:"text"`
	Translation    string      `json:"translation,omitempty"`
	ParagraphStart bool        `json:"paragraph_start"`
	Tokens         []TokenView `json:"tokens"`
	Notes          []NoteView  `json:"notes,omitempty"`
}

type TokenView struct {
	ID         int64             `json:"id"`
	Position   int               `json:"position"`
	Surface    string            `json:"surface"`
	Lemma      string            `json:"lemma,omitempty"`
	Annotation *store.Annotation `json:"annotation,omitempty"`
}

type NoteView struct {
	ID         int64  `json:"id"`
	Kind       string `json:"kind"`
	Body       string `json:"body"`
	StartToken int64  `json:"start_token,omitempty"`
	EndToken   int64  `json:"end_token,omitempty"`
}

// sentenceView returns the cached view for a sentence, assembling and
// caching it on a miss.
func (s *Server) sentenceView(ctx context.Context, id int64) (*SentenceView, error) {
	if view, ok := s.views.Get(id); ok {
		return view, nil
	}

	view := &SentenceView{Tokens: []TokenView{}}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		sent, err := tx.GetSentence(ctx, id)
		if err != nil {
			return err
		}
		view.ID = sent.ID
		view.ProjectID = sent.ProjectID
		view.Seq = sent.Seq
		view.Text = sent.Text
		view.Translation = sent.Translation
		view.ParagraphStart = sent.ParagraphStart

		toks, err := tx.ListTokenDetails(ctx, id)
		if err != nil {
			return err
		}
		for _, tok := range toks {
			tv := TokenView{ID: tok.ID, Position: tok.Position, Surface: tok.Surface, Lemma: tok.Lemma}
			ann, err := tx.GetAnnotation(ctx, tok.ID)
			if err != nil {
				return err
			}
			if !ann.Empty() {
				tv.Annotation = ann
			}
			view.Tokens = append(view.Tokens, tv)
		}

		notes, err := tx.ListNotes(ctx, id)
		if err != nil {
			return err
		}
		for _, n := range notes {
			view.Notes = append(view.Notes, NoteView{
				ID: n.ID, Kind: n.Kind, Body: n.Body,
				StartToken: n.StartToken, EndToken: n.EndToken,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.views.Put(id, view)
	return view, nil
}
