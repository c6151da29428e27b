package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/aelfread/wordhoard/core/errors"
)

// Note kinds.
const (
	NoteKindToken    = "token"
	NoteKindSpan     = "span"
	NoteKindSentence = "sentence"
)

// Note is a markdown note attached to a sentence, optionally anchored
// to a token range. StartToken and EndToken are 0 when unanchored.
type Note struct {
	ID         int64  `json:"id"`
	SentenceID int64  `json:"sentence_id"`
	StartToken int64  `json:"start_token,omitempty"`
	EndToken   int64  `json:"end_token,omitempty"`
	Body       string `json:"body"`
	Kind       string `json:"kind"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// CreateNote inserts a note. Anchors may be 0 for sentence notes.
func (t *Tx) CreateNote(ctx context.Context, n *Note) (*Note, error) {
	switch n.Kind {
	case NoteKindToken, NoteKindSpan, NoteKindSentence:
	default:
		return nil, errors.NewValidation("kind", "must be token, span, or sentence")
	}
	ts := now()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO notes (sentence_id, start_token, end_token, body, kind, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.SentenceID, nullableID(n.StartToken), nullableID(n.EndToken), n.Body, n.Kind, ts, ts)
	if err != nil {
		return nil, errors.Wrap(err, "insert note")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "note id")
	}
	created := *n
	created.ID = id
	created.CreatedAt = ts
	created.UpdatedAt = ts
	return &created, nil
}

// GetNote fetches one note.
func (t *Tx) GetNote(ctx context.Context, id int64) (*Note, error) {
	n := &Note{}
	var start, end sql.NullInt64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, sentence_id, start_token, end_token, body, kind, created_at, updated_at
		 FROM notes WHERE id = ?`, id).
		Scan(&n.ID, &n.SentenceID, &start, &end, &n.Body, &n.Kind, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("note", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.Wrap(err, "get note")
	}
	n.StartToken = start.Int64
	n.EndToken = end.Int64
	return n, nil
}

// ListNotes returns a sentence's notes in creation order.
func (t *Tx) ListNotes(ctx context.Context, sentenceID int64) ([]Note, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, sentence_id, start_token, end_token, body, kind, created_at, updated_at
		 FROM notes WHERE sentence_id = ? ORDER BY id`, sentenceID)
	if err != nil {
		return nil, errors.Wrap(err, "list notes")
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		var start, end sql.NullInt64
		if err := rows.Scan(&n.ID, &n.SentenceID, &start, &end, &n.Body, &n.Kind, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan note")
		}
		n.StartToken = start.Int64
		n.EndToken = end.Int64
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpdateNoteBody replaces a note's markdown body.
func (t *Tx) UpdateNoteBody(ctx context.Context, id int64, body string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE notes SET body = ?, updated_at = ? WHERE id = ?`, body, now(), id)
	if err != nil {
		return errors.Wrap(err, "update note")
	}
	return affectedOne(res, "note", id)
}

// UpdateNoteAnchors rewrites a note's token range.
func (t *Tx) UpdateNoteAnchors(ctx context.Context, id, startToken, endToken int64) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE notes SET start_token = ?, end_token = ?, updated_at = ? WHERE id = ?`,
		nullableID(startToken), nullableID(endToken), now(), id)
	if err != nil {
		return errors.Wrap(err, "update note anchors")
	}
	return affectedOne(res, "note", id)
}

// MoveNote reattaches a note to another sentence, keeping anchors.
func (t *Tx) MoveNote(ctx context.Context, id, sentenceID int64) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE notes SET sentence_id = ?, updated_at = ? WHERE id = ?`, sentenceID, now(), id)
	if err != nil {
		return errors.Wrap(err, "move note")
	}
	return affectedOne(res, "note", id)
}

// DeleteNote removes a note.
func (t *Tx) DeleteNote(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete note")
	}
	return affectedOne(res, "note", id)
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}
