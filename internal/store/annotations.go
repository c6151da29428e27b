package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/aelfread/wordhoard/core/errors"
)

// Annotation is the grammatical metadata attached to one token. Empty
// strings mean "not set"; VerbPerson and Confidence are nil when
// unset. One row exists per live token.
type Annotation struct {
	TokenID     int64  `json:"token_id"`
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
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// GetAnnotation fetches the annotation row for a token.
func (t *Tx) GetAnnotation(ctx context.Context, tokenID int64) (*Annotation, error) {
	a := &Annotation{}
	var person, confidence sql.NullInt64
	var uncertain int
	err := t.tx.QueryRowContext(ctx,
		`SELECT token_id, pos, gender, number, gram_case, declension, pronoun_type,
		        verb_class, verb_tense, verb_person, verb_mood, verb_aspect, verb_form,
		        prep_case, uncertain, confidence, updated_at
		 FROM annotations WHERE token_id = ?`, tokenID).
		Scan(&a.TokenID, &a.POS, &a.Gender, &a.Number, &a.Case, &a.Declension, &a.PronounType,
			&a.VerbClass, &a.VerbTense, &person, &a.VerbMood, &a.VerbAspect, &a.VerbForm,
			&a.PrepCase, &uncertain, &confidence, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("annotation", strconv.FormatInt(tokenID, 10))
	}
	if err != nil {
		return nil, errors.Wrap(err, "get annotation")
	}
	a.Uncertain = uncertain != 0
	if person.Valid {
		v := int(person.Int64)
		a.VerbPerson = &v
	}
	if confidence.Valid {
		v := int(confidence.Int64)
		a.Confidence = &v
	}
	return a, nil
}

// UpdateAnnotation rewrites the full annotation row for a.TokenID.
// This is the only write path for annotation data; the reconciler
// never reaches it.
func (t *Tx) UpdateAnnotation(ctx context.Context, a *Annotation) error {
	if a.Confidence != nil && (*a.Confidence < 0 || *a.Confidence > 100) {
		return errors.NewValidation("confidence", "must be between 0 and 100")
	}
	var person, confidence interface{}
	if a.VerbPerson != nil {
		person = *a.VerbPerson
	}
	if a.Confidence != nil {
		confidence = *a.Confidence
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE annotations SET
			pos = ?, gender = ?, number = ?, gram_case = ?, declension = ?,
			pronoun_type = ?, verb_class = ?, verb_tense = ?, verb_person = ?,
			verb_mood = ?, verb_aspect = ?, verb_form = ?, prep_case = ?,
			uncertain = ?, confidence = ?, updated_at = ?
		 WHERE token_id = ?`,
		a.POS, a.Gender, a.Number, a.Case, a.Declension,
		a.PronounType, a.VerbClass, a.VerbTense, person,
		a.VerbMood, a.VerbAspect, a.VerbForm, a.PrepCase,
		boolToInt(a.Uncertain), confidence, now(), a.TokenID)
	if err != nil {
		return errors.Wrap(err, "update annotation")
	}
	return affectedOne(res, "annotation", a.TokenID)
}

// Empty reports whether the annotation carries no user data.
func (a *Annotation) Empty() bool {
	return a.POS == "" && a.Gender == "" && a.Number == "" && a.Case == "" &&
		a.Declension == "" && a.PronounType == "" && a.VerbClass == "" &&
		a.VerbTense == "" && a.VerbPerson == nil && a.VerbMood == "" &&
		a.VerbAspect == "" && a.VerbForm == "" && a.PrepCase == "" &&
		!a.Uncertain && a.Confidence == nil
}
