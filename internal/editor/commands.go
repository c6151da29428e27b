package editor

import (
	"context"
	"fmt"

	"github.com/aelfread/wordhoard/core/errors"
	"github.com/aelfread/wordhoard/internal/store"
)

// Command is a reversible edit. Execute captures whatever prior state
// Undo needs on its first run, so commands can be constructed cheaply
// and only touch the store when dispatched.
type Command interface {
	Execute(ctx context.Context) error
	Undo(ctx context.Context) error
	Describe() string
}

// historyLimit bounds the undo stack. Older commands fall off the
// bottom.
const historyLimit = 50

// Manager keeps bounded undo and redo stacks of executed commands.
type Manager struct {
	undo []Command
	redo []Command
}

// NewManager returns an empty command manager.
func NewManager() *Manager {
	return &Manager{}
}

// Do executes cmd and records it for undo. A new command clears the
// redo stack.
func (m *Manager) Do(ctx context.Context, cmd Command) error {
	if err := cmd.Execute(ctx); err != nil {
		return err
	}
	m.undo = append(m.undo, cmd)
	if len(m.undo) > historyLimit {
		m.undo = m.undo[len(m.undo)-historyLimit:]
	}
	m.redo = m.redo[:0]
	return nil
}

// Undo reverses the most recent command and returns its description.
func (m *Manager) Undo(ctx context.Context) (string, error) {
	if len(m.undo) == 0 {
		return "", errors.NewValidation("undo", "nothing to undo")
	}
	cmd := m.undo[len(m.undo)-1]
	if err := cmd.Undo(ctx); err != nil {
		return "", err
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, cmd)
	return cmd.Describe(), nil
}

// Redo re-executes the most recently undone command.
func (m *Manager) Redo(ctx context.Context) (string, error) {
	if len(m.redo) == 0 {
		return "", errors.NewValidation("redo", "nothing to redo")
	}
	cmd := m.redo[len(m.redo)-1]
	if err := cmd.Execute(ctx); err != nil {
		return "", err
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, cmd)
	return cmd.Describe(), nil
}

// CanUndo reports whether the undo stack is non-empty.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// EditSentenceCommand replaces a sentence's text. Undo applies the
// prior text as another edit, so token ids reused in both directions
// keep their annotations.
type EditSentenceCommand struct {
	Editor     *Editor
	SentenceID int64
	NewText    string

	prevText string
	captured bool
}

func (c *EditSentenceCommand) Execute(ctx context.Context) error {
	if !c.captured {
		err := c.Editor.store.View(ctx, func(tx *store.Tx) error {
			sent, err := tx.GetSentence(ctx, c.SentenceID)
			if err != nil {
				return err
			}
			c.prevText = sent.Text
			return nil
		})
		if err != nil {
			return err
		}
		c.captured = true
	}
	_, err := c.Editor.EditSentence(ctx, c.SentenceID, c.NewText)
	return err
}

func (c *EditSentenceCommand) Undo(ctx context.Context) error {
	_, err := c.Editor.EditSentence(ctx, c.SentenceID, c.prevText)
	return err
}

func (c *EditSentenceCommand) Describe() string {
	return fmt.Sprintf("edit sentence %d", c.SentenceID)
}

// AnnotateTokenCommand rewrites a token's annotation.
type AnnotateTokenCommand struct {
	Editor     *Editor
	Annotation *store.Annotation

	prev     *store.Annotation
	captured bool
}

func (c *AnnotateTokenCommand) Execute(ctx context.Context) error {
	if !c.captured {
		err := c.Editor.store.View(ctx, func(tx *store.Tx) error {
			prev, err := tx.GetAnnotation(ctx, c.Annotation.TokenID)
			if err != nil {
				return err
			}
			c.prev = prev
			return nil
		})
		if err != nil {
			return err
		}
		c.captured = true
	}
	return c.Editor.Annotate(ctx, c.Annotation)
}

func (c *AnnotateTokenCommand) Undo(ctx context.Context) error {
	return c.Editor.Annotate(ctx, c.prev)
}

func (c *AnnotateTokenCommand) Describe() string {
	return fmt.Sprintf("annotate token %d", c.Annotation.TokenID)
}

// AddNoteCommand creates a note. Redo recreates it under a fresh id.
type AddNoteCommand struct {
	Editor *Editor
	Note   *store.Note
}

func (c *AddNoteCommand) Execute(ctx context.Context) error {
	return c.Editor.store.WithTx(ctx, func(tx *store.Tx) error {
		created, err := tx.CreateNote(ctx, c.Note)
		if err != nil {
			return err
		}
		c.Note.ID = created.ID
		return nil
	})
}

func (c *AddNoteCommand) Undo(ctx context.Context) error {
	return c.Editor.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.DeleteNote(ctx, c.Note.ID)
	})
}

func (c *AddNoteCommand) Describe() string {
	return fmt.Sprintf("add %s note", c.Note.Kind)
}

// EditNoteCommand rewrites a note's body.
type EditNoteCommand struct {
	Editor  *Editor
	NoteID  int64
	NewBody string

	prevBody string
	captured bool
}

func (c *EditNoteCommand) Execute(ctx context.Context) error {
	if !c.captured {
		err := c.Editor.store.View(ctx, func(tx *store.Tx) error {
			n, err := tx.GetNote(ctx, c.NoteID)
			if err != nil {
				return err
			}
			c.prevBody = n.Body
			return nil
		})
		if err != nil {
			return err
		}
		c.captured = true
	}
	return c.Editor.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.UpdateNoteBody(ctx, c.NoteID, c.NewBody)
	})
}

func (c *EditNoteCommand) Undo(ctx context.Context) error {
	return c.Editor.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.UpdateNoteBody(ctx, c.NoteID, c.prevBody)
	})
}

func (c *EditNoteCommand) Describe() string {
	return fmt.Sprintf("edit note %d", c.NoteID)
}

// DeleteNoteCommand removes a note, keeping a snapshot so undo can
// recreate it.
type DeleteNoteCommand struct {
	Editor *Editor
	NoteID int64

	snapshot *store.Note
}

func (c *DeleteNoteCommand) Execute(ctx context.Context) error {
	return c.Editor.store.WithTx(ctx, func(tx *store.Tx) error {
		if c.snapshot == nil {
			n, err := tx.GetNote(ctx, c.NoteID)
			if err != nil {
				return err
			}
			c.snapshot = n
		}
		return tx.DeleteNote(ctx, c.NoteID)
	})
}

func (c *DeleteNoteCommand) Undo(ctx context.Context) error {
	return c.Editor.store.WithTx(ctx, func(tx *store.Tx) error {
		restored, err := tx.CreateNote(ctx, c.snapshot)
		if err != nil {
			return err
		}
		c.NoteID = restored.ID
		c.snapshot.ID = restored.ID
		return nil
	})
}

func (c *DeleteNoteCommand) Describe() string {
	return fmt.Sprintf("delete note %d", c.NoteID)
}
