package editor

import (
	"context"

	"github.com/aelfread/wordhoard/core/reconcile"
	"github.com/aelfread/wordhoard/internal/store"
)

// reattachNotes fixes up note anchors after a sentence's tokens have
// been reconciled. Anchors whose token survived are kept as-is; a dead
// anchor is re-anchored to the surviving token nearest its old
// position. Span endpoints that end up reversed are swapped. A note
// whose anchors cannot be resolved at all is deleted. Sentence notes
// carry no anchors and pass through untouched.
func reattachNotes(ctx context.Context, tx *store.Tx, notes []store.Note, oldTokens, newTokens []reconcile.Token) (moved, deleted int, err error) {
	oldPos := make(map[int64]int, len(oldTokens))
	for _, t := range oldTokens {
		oldPos[t.ID] = t.Position
	}
	newPos := make(map[int64]int, len(newTokens))
	for _, t := range newTokens {
		newPos[t.ID] = t.Position
	}

	for _, n := range notes {
		if n.StartToken == 0 && n.EndToken == 0 {
			continue
		}
		start := resolveAnchor(n.StartToken, oldPos, newPos, newTokens)
		end := resolveAnchor(n.EndToken, oldPos, newPos, newTokens)
		if start == 0 && end == 0 {
			if err := tx.DeleteNote(ctx, n.ID); err != nil {
				return moved, deleted, err
			}
			deleted++
			continue
		}
		if start == 0 {
			start = end
		}
		if end == 0 {
			end = start
		}
		if newPos[start] > newPos[end] {
			start, end = end, start
		}
		if start != n.StartToken || end != n.EndToken {
			if err := tx.UpdateNoteAnchors(ctx, n.ID, start, end); err != nil {
				return moved, deleted, err
			}
			moved++
		}
	}
	return moved, deleted, nil
}

// resolveAnchor maps an old anchor token id to a live one. A surviving
// id resolves to itself; a dead id resolves to the live token whose
// position is closest to the dead token's old position, lower position
// winning ties. Returns 0 when nothing can anchor the note.
func resolveAnchor(id int64, oldPos, newPos map[int64]int, newTokens []reconcile.Token) int64 {
	if id == 0 {
		return 0
	}
	if _, ok := newPos[id]; ok {
		return id
	}
	if len(newTokens) == 0 {
		return 0
	}
	target, ok := oldPos[id]
	if !ok {
		return 0
	}
	best := newTokens[0]
	bestDist := abs(best.Position - target)
	for _, t := range newTokens[1:] {
		d := abs(t.Position - target)
		if d < bestDist || (d == bestDist && t.Position < best.Position) {
			best = t
			bestDist = d
		}
	}
	return best.ID
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
