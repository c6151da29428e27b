package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/aelfread/wordhoard/core/errors"
)

// Sentence is one display unit of a project. Seq is its 1-based
// position in display order, unique per project.
type Sentence struct {
	ID             int64  `json:"id"`
	ProjectID      int64  `json:"project_id"`
	Seq            int    `json:"seq"`
	Text           string `json:"text"`
	Translation    string `json:"translation,omitempty"`
	ParagraphStart bool   `json:"paragraph_start,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// CreateSentence inserts a sentence at the given seq.
func (t *Tx) CreateSentence(ctx context.Context, projectID int64, seq int, text string, paragraphStart bool) (*Sentence, error) {
	ts := now()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO sentences (project_id, seq, text, paragraph_start, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		projectID, seq, text, boolToInt(paragraphStart), ts, ts)
	if err != nil {
		return nil, errors.Wrap(err, "insert sentence")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "sentence id")
	}
	return &Sentence{
		ID:             id,
		ProjectID:      projectID,
		Seq:            seq,
		Text:           text,
		ParagraphStart: paragraphStart,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}, nil
}

// GetSentence fetches a sentence by id.
func (t *Tx) GetSentence(ctx context.Context, id int64) (*Sentence, error) {
	s := &Sentence{}
	var para int
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, project_id, seq, text, translation, paragraph_start, created_at, updated_at
		 FROM sentences WHERE id = ?`, id).
		Scan(&s.ID, &s.ProjectID, &s.Seq, &s.Text, &s.Translation, &para, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("sentence", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.Wrap(err, "get sentence")
	}
	s.ParagraphStart = para != 0
	return s, nil
}

// ListSentences returns a project's sentences in display order.
func (t *Tx) ListSentences(ctx context.Context, projectID int64) ([]Sentence, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, project_id, seq, text, translation, paragraph_start, created_at, updated_at
		 FROM sentences WHERE project_id = ? ORDER BY seq`, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "list sentences")
	}
	defer rows.Close()

	var out []Sentence
	for rows.Next() {
		var s Sentence
		var para int
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Seq, &s.Text, &s.Translation, &para, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan sentence")
		}
		s.ParagraphStart = para != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// NextSentence returns the sentence following the given one in display
// order, or a not-found error at the end of the project.
func (t *Tx) NextSentence(ctx context.Context, s *Sentence) (*Sentence, error) {
	next := &Sentence{}
	var para int
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, project_id, seq, text, translation, paragraph_start, created_at, updated_at
		 FROM sentences WHERE project_id = ? AND seq > ? ORDER BY seq LIMIT 1`,
		s.ProjectID, s.Seq).
		Scan(&next.ID, &next.ProjectID, &next.Seq, &next.Text, &next.Translation, &para, &next.CreatedAt, &next.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("sentence", "after seq "+strconv.Itoa(s.Seq))
	}
	if err != nil {
		return nil, errors.Wrap(err, "next sentence")
	}
	next.ParagraphStart = para != 0
	return next, nil
}

// UpdateSentenceText replaces a sentence's stored text.
func (t *Tx) UpdateSentenceText(ctx context.Context, id int64, text string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE sentences SET text = ?, updated_at = ? WHERE id = ?`, text, now(), id)
	if err != nil {
		return errors.Wrap(err, "update sentence text")
	}
	return affectedOne(res, "sentence", id)
}

// UpdateSentenceTranslation replaces a sentence's translation.
func (t *Tx) UpdateSentenceTranslation(ctx context.Context, id int64, translation string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE sentences SET translation = ?, updated_at = ? WHERE id = ?`, translation, now(), id)
	if err != nil {
		return errors.Wrap(err, "update sentence translation")
	}
	return affectedOne(res, "sentence", id)
}

// DeleteSentence removes a sentence and its tokens and notes.
func (t *Tx) DeleteSentence(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM sentences WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete sentence")
	}
	return affectedOne(res, "sentence", id)
}

// RenumberSentences rewrites a project's seq values to a dense 1..n in
// current display order. UNIQUE(project_id, seq) holds statement by
// statement, so the move happens in two phases: park every sentence at
// a disjoint negative seq, then assign the final numbers. The same
// technique the token reconciler uses, one level up.
func (t *Tx) RenumberSentences(ctx context.Context, projectID int64) error {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id FROM sentences WHERE project_id = ? ORDER BY seq`, projectID)
	if err != nil {
		return errors.Wrap(err, "list sentences for renumber")
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan sentence id")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "list sentences for renumber")
	}

	park := -(len(ids) + 1)
	for _, id := range ids {
		if _, err := t.tx.ExecContext(ctx,
			`UPDATE sentences SET seq = ? WHERE id = ?`, park, id); err != nil {
			return errors.Wrapf(err, "park sentence %d", id)
		}
		park++
	}
	for i, id := range ids {
		if _, err := t.tx.ExecContext(ctx,
			`UPDATE sentences SET seq = ? WHERE id = ?`, i+1, id); err != nil {
			return errors.Wrapf(err, "renumber sentence %d", id)
		}
	}
	return nil
}

func affectedOne(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.NewNotFound(entity, strconv.FormatInt(id, 10))
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
