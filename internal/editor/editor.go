// Package editor orchestrates edits against the store: project import,
// sentence text edits with token reconciliation, sentence merging,
// annotation writes, and note reattachment. Every operation runs in a
// single store transaction, so a failed reconciliation leaves the
// project exactly as it was.
package editor

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/aelfread/wordhoard/core/errors"
	"github.com/aelfread/wordhoard/core/reconcile"
	"github.com/aelfread/wordhoard/core/splitter"
	"github.com/aelfread/wordhoard/core/tokenizer"
	"github.com/aelfread/wordhoard/internal/logging"
	"github.com/aelfread/wordhoard/internal/store"
)

// Editor runs edit operations against one store.
type Editor struct {
	store *store.Store
}

// New returns an Editor over st.
func New(st *store.Store) *Editor {
	return &Editor{store: st}
}

// Store exposes the underlying store for read-only consumers.
func (e *Editor) Store() *store.Store {
	return e.store
}

// ImportOptions tunes project import.
type ImportOptions struct {
	// Normalize applies Unicode NFC normalization to the document
	// before splitting, so composed and decomposed diacritics match.
	Normalize bool
	// Progress, when set, is called after each sentence is stored.
	Progress func(done, total int)
}

// ImportText creates a new project from a document. The document is
// split into sentences, each sentence tokenized, and all tokens
// created with empty annotations, in one transaction. The store is
// empty for the new sentences so no reconciliation is involved.
func (e *Editor) ImportText(ctx context.Context, name, text string, opts ImportOptions) (*store.Project, error) {
	if opts.Normalize {
		text = norm.NFC.String(text)
	}
	text = normalizeLineEndings(text)

	sentences := splitter.SplitDocument(text)
	if len(sentences) == 0 {
		return nil, errors.NewValidation("text", "no sentences found in document")
	}

	var project *store.Project
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		p, err := tx.CreateProject(ctx, name)
		if err != nil {
			return err
		}
		for i, sent := range sentences {
			row, err := tx.CreateSentence(ctx, p.ID, i+1, sent.Text, sent.ParagraphStart)
			if err != nil {
				return err
			}
			for pos, surface := range tokenizer.Tokenize(sent.Text) {
				if _, err := tx.CreateToken(ctx, row.ID, pos, surface); err != nil {
					return err
				}
			}
			if opts.Progress != nil {
				opts.Progress(i+1, len(sentences))
			}
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.ImportEvent(project.ID, project.Name, len(sentences))
	return project, nil
}

// EditResult reports what a sentence edit did.
type EditResult struct {
	Tokens       int `json:"tokens"`
	Reused       int `json:"reused"`
	Created      int `json:"created"`
	Deleted      int `json:"deleted"`
	NotesMoved   int `json:"notes_moved"`
	NotesDeleted int `json:"notes_deleted"`
}

// EditSentence replaces a sentence's text, reconciles its tokens
// against the new tokenization, and reattaches notes, all in one
// transaction.
func (e *Editor) EditSentence(ctx context.Context, sentenceID int64, newText string) (*EditResult, error) {
	result := &EditResult{}
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		sent, err := tx.GetSentence(ctx, sentenceID)
		if err != nil {
			return err
		}

		oldTokens, err := tx.ListTokens(ctx, sentenceID)
		if err != nil {
			return err
		}
		oldNotes, err := tx.ListNotes(ctx, sentenceID)
		if err != nil {
			return err
		}

		if err := tx.UpdateSentenceText(ctx, sentenceID, newText); err != nil {
			return err
		}

		res, err := reconcile.New(tx).Reconcile(ctx, sentenceID, tokenizer.Tokenize(newText))
		if err != nil {
			return err
		}
		result.Tokens = res.Tokens
		result.Reused = res.Reused
		result.Created = res.Created
		result.Deleted = res.Deleted

		newTokens, err := tx.ListTokens(ctx, sentenceID)
		if err != nil {
			return err
		}
		moved, deleted, err := reattachNotes(ctx, tx, oldNotes, oldTokens, newTokens)
		if err != nil {
			return err
		}
		result.NotesMoved = moved
		result.NotesDeleted = deleted

		if err := tx.TouchProject(ctx, sent.ProjectID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.EditEvent(sentenceID, result.Created, result.Deleted)
	return result, nil
}

// MergeSentences appends the sentence following firstID onto it. Token
// ids from both sentences are preserved: the second sentence's tokens
// are moved (not recreated) onto the first, the merged text is
// reconciled, notes follow their sentence, and the remaining sentences
// are renumbered.
func (e *Editor) MergeSentences(ctx context.Context, firstID int64) (*EditResult, error) {
	result := &EditResult{}
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		first, err := tx.GetSentence(ctx, firstID)
		if err != nil {
			return err
		}
		second, err := tx.NextSentence(ctx, first)
		if err != nil {
			return err
		}

		firstTokens, err := tx.ListTokens(ctx, firstID)
		if err != nil {
			return err
		}
		secondTokens, err := tx.ListTokens(ctx, second.ID)
		if err != nil {
			return err
		}

		// Move the second sentence's tokens onto the first, preserving
		// their ids and therefore their annotations.
		offset := len(firstTokens)
		for i, tok := range secondTokens {
			if err := tx.MoveToken(ctx, tok.ID, firstID, offset+i); err != nil {
				return err
			}
		}

		// Notes follow their tokens.
		secondNotes, err := tx.ListNotes(ctx, second.ID)
		if err != nil {
			return err
		}
		for _, n := range secondNotes {
			if err := tx.MoveNote(ctx, n.ID, firstID); err != nil {
				return err
			}
		}

		mergedText := strings.TrimSpace(first.Text + " " + second.Text)
		if err := tx.UpdateSentenceText(ctx, firstID, mergedText); err != nil {
			return err
		}
		mergedTranslation := strings.TrimSpace(first.Translation + " " + second.Translation)
		if mergedTranslation != first.Translation {
			if err := tx.UpdateSentenceTranslation(ctx, firstID, mergedTranslation); err != nil {
				return err
			}
		}

		if err := tx.DeleteSentence(ctx, second.ID); err != nil {
			return err
		}
		if err := tx.RenumberSentences(ctx, first.ProjectID); err != nil {
			return err
		}

		oldTokens, err := tx.ListTokens(ctx, firstID)
		if err != nil {
			return err
		}
		oldNotes, err := tx.ListNotes(ctx, firstID)
		if err != nil {
			return err
		}

		res, err := reconcile.New(tx).Reconcile(ctx, firstID, tokenizer.Tokenize(mergedText))
		if err != nil {
			return err
		}
		result.Tokens = res.Tokens
		result.Reused = res.Reused
		result.Created = res.Created
		result.Deleted = res.Deleted

		newTokens, err := tx.ListTokens(ctx, firstID)
		if err != nil {
			return err
		}
		moved, deleted, err := reattachNotes(ctx, tx, oldNotes, oldTokens, newTokens)
		if err != nil {
			return err
		}
		result.NotesMoved = moved
		result.NotesDeleted = deleted

		return tx.TouchProject(ctx, first.ProjectID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Annotate rewrites a token's annotation row. This is the one write
// path for annotation data.
func (e *Editor) Annotate(ctx context.Context, ann *store.Annotation) error {
	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		tok, err := tx.GetToken(ctx, ann.TokenID)
		if err != nil {
			return err
		}
		if err := tx.UpdateAnnotation(ctx, ann); err != nil {
			return err
		}
		sent, err := tx.GetSentence(ctx, tok.SentenceID)
		if err != nil {
			return err
		}
		return tx.TouchProject(ctx, sent.ProjectID)
	})
}

// normalizeLineEndings maps CRLF and bare CR to LF.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
