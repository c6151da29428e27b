package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/aelfread/wordhoard/core/errors"
	"github.com/aelfread/wordhoard/core/reconcile"
)

// Token is the full stored token row. The reconciler sees only the
// identity triple; lemma and timestamps stay store-side.
type Token struct {
	ID         int64  `json:"id"`
	SentenceID int64  `json:"sentence_id"`
	Position   int    `json:"position"`
	Surface    string `json:"surface"`
	Lemma      string `json:"lemma,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// ListTokens returns a sentence's live tokens ordered by position, as
// the identity triples the reconciler consumes. Tx satisfies
// reconcile.Store.
func (t *Tx) ListTokens(ctx context.Context, sentenceID int64) ([]reconcile.Token, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, position, surface FROM tokens WHERE sentence_id = ? ORDER BY position`,
		sentenceID)
	if err != nil {
		return nil, errors.Wrap(err, "list tokens")
	}
	defer rows.Close()

	var out []reconcile.Token
	for rows.Next() {
		var tok reconcile.Token
		if err := rows.Scan(&tok.ID, &tok.Position, &tok.Surface); err != nil {
			return nil, errors.Wrap(err, "scan token")
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

// ListTokenDetails returns full token rows ordered by position.
func (t *Tx) ListTokenDetails(ctx context.Context, sentenceID int64) ([]Token, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, sentence_id, position, surface, lemma, created_at, updated_at
		 FROM tokens WHERE sentence_id = ? ORDER BY position`, sentenceID)
	if err != nil {
		return nil, errors.Wrap(err, "list token details")
	}
	defer rows.Close()

	var out []Token
	for rows.Next() {
		var tok Token
		if err := rows.Scan(&tok.ID, &tok.SentenceID, &tok.Position, &tok.Surface, &tok.Lemma, &tok.CreatedAt, &tok.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan token")
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

// GetToken fetches one token row.
func (t *Tx) GetToken(ctx context.Context, id int64) (*Token, error) {
	tok := &Token{}
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, sentence_id, position, surface, lemma, created_at, updated_at
		 FROM tokens WHERE id = ?`, id).
		Scan(&tok.ID, &tok.SentenceID, &tok.Position, &tok.Surface, &tok.Lemma, &tok.CreatedAt, &tok.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("token", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.Wrap(err, "get token")
	}
	return tok, nil
}

// CreateToken inserts a token and its empty annotation row. Every live
// token has exactly one annotation row from birth; the reconciler
// creating a token therefore never leaves an annotation gap.
func (t *Tx) CreateToken(ctx context.Context, sentenceID int64, position int, surface string) (int64, error) {
	ts := now()
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO tokens (sentence_id, position, surface, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sentenceID, position, surface, ts, ts)
	if err != nil {
		return 0, errors.Wrap(err, "insert token")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "token id")
	}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO annotations (token_id, updated_at) VALUES (?, ?)`, id, ts); err != nil {
		return 0, errors.Wrap(err, "insert annotation")
	}
	return id, nil
}

// UpdateToken rewrites a token's position and surface. Annotation data
// is keyed by id and untouched.
func (t *Tx) UpdateToken(ctx context.Context, id int64, position int, surface string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tokens SET position = ?, surface = ?, updated_at = ? WHERE id = ?`,
		position, surface, now(), id)
	if err != nil {
		return errors.Wrap(err, "update token")
	}
	return affectedOne(res, "token", id)
}

// UpdateTokenLemma sets a token's lemma.
func (t *Tx) UpdateTokenLemma(ctx context.Context, id int64, lemma string) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tokens SET lemma = ?, updated_at = ? WHERE id = ?`, lemma, now(), id)
	if err != nil {
		return errors.Wrap(err, "update token lemma")
	}
	return affectedOne(res, "token", id)
}

// MoveToken reassigns a token to another sentence at a new position.
// Used by sentence merging, which must keep token ids (and with them
// annotations) intact.
func (t *Tx) MoveToken(ctx context.Context, id, sentenceID int64, position int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tokens SET sentence_id = ?, position = ?, updated_at = ? WHERE id = ?`,
		sentenceID, position, now(), id)
	if err != nil {
		return errors.Wrap(err, "move token")
	}
	return affectedOne(res, "token", id)
}

// DeleteToken removes a token; its annotation row cascades away.
func (t *Tx) DeleteToken(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM tokens WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete token")
	}
	return affectedOne(res, "token", id)
}
