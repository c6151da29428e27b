package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/aelfread/wordhoard/core/errors"
	"github.com/aelfread/wordhoard/internal/store"
)

// Result is one matching token with enough context to display.
type Result struct {
	ProjectID    int64  `json:"project_id"`
	ProjectName  string `json:"project_name"`
	SentenceID   int64  `json:"sentence_id"`
	SentenceSeq  int    `json:"sentence_seq"`
	SentenceText string `json:"sentence_text"`
	TokenID      int64  `json:"token_id"`
	Position     int    `json:"position"`
	Surface      string `json:"surface"`
}

// Execute parses input and runs it against the store. A zero
// projectID searches every project.
func Execute(ctx context.Context, st *store.Store, projectID int64, input string) ([]Result, error) {
	q, err := Parse(input)
	if err != nil {
		return nil, err
	}
	sql, args, err := compile(q, projectID)
	if err != nil {
		return nil, err
	}

	var results []Result
	err = st.View(ctx, func(tx *store.Tx) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return errors.Wrap(err, "search query")
		}
		defer rows.Close()
		for rows.Next() {
			var r Result
			err := rows.Scan(&r.ProjectID, &r.ProjectName, &r.SentenceID, &r.SentenceSeq,
				&r.SentenceText, &r.TokenID, &r.Position, &r.Surface)
			if err != nil {
				return errors.Wrap(err, "scan search result")
			}
			results = append(results, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// compile turns a query into one SQL statement. Every term constrains
// the same token row; bare terms match the surface case-insensitively.
func compile(q *Query, projectID int64) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	if projectID > 0 {
		where = append(where, "p.id = ?")
		args = append(args, projectID)
	}

	for _, term := range q.Terms {
		switch term.Field {
		case "":
			where = append(where, "t.surface = ? COLLATE NOCASE")
			args = append(args, term.Value)
		case "uncertain":
			v, err := strconv.ParseBool(term.Value)
			if err != nil {
				return "", nil, errors.NewValidation("uncertain", "must be true or false")
			}
			where = append(where, "a.uncertain = ?")
			args = append(args, boolToInt(v))
		case "person":
			n, err := strconv.Atoi(term.Value)
			if err != nil {
				return "", nil, errors.NewValidation("person", "must be a number")
			}
			where = append(where, "a.verb_person = ?")
			args = append(args, n)
		default:
			where = append(where, fields[term.Field]+" = ? COLLATE NOCASE")
			args = append(args, term.Value)
		}
	}

	sql := `SELECT p.id, p.name, s.id, s.seq, s.text, t.id, t.position, t.surface
		FROM tokens t
		JOIN annotations a ON a.token_id = t.id
		JOIN sentences s ON s.id = t.sentence_id
		JOIN projects p ON p.id = s.project_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY p.name, s.seq, t.position`
	return sql, args, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
