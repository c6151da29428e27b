// Package reconcile maps a fresh tokenization onto a sentence's
// existing token identities.
//
// Tokens carry user annotation keyed by token id, so an edit to the
// sentence text must reuse existing ids wherever a token plausibly
// survived the edit. Matching is two-phase: tokens still at the same
// position are bound first regardless of surface, then leftover tokens
// are bound by exact surface in new-index order. Only genuinely new
// words get new ids, and only vanished words lose theirs.
//
// The store enforces one live token per (sentence, position) at every
// observable point, so a token that must move cannot be updated in
// place while its old position is still occupied. Every still-unbound
// token is first parked at a disjoint block of negative positions; real
// position assignment is then collision-free.
//
// The whole reconcile must run inside a single store transaction. The
// planner itself is pure.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/aelfread/wordhoard/core/errors"
)

// Token is the identity triple the reconciler operates on. Annotation
// data keyed by ID is never touched here.
type Token struct {
	ID       int64
	Position int
	Surface  string
}

// Store is the narrow collaborator the reconciler issues operations
// against. Implementations are expected to enforce position uniqueness
// per sentence and to cascade-delete dependent annotation data.
type Store interface {
	ListTokens(ctx context.Context, sentenceID int64) ([]Token, error)
	CreateToken(ctx context.Context, sentenceID int64, position int, surface string) (int64, error)
	UpdateToken(ctx context.Context, id int64, position int, surface string) error
	DeleteToken(ctx context.Context, id int64) error
}

// Retag updates a token's surface in place during phase 1.
type Retag struct {
	ID      int64
	Surface string
}

// Park moves a still-unbound token to a temporary negative position.
type Park struct {
	ID      int64
	TempPos int
}

// Place binds a parked token to its final position.
type Place struct {
	ID       int64
	Position int
	Surface  string
}

// Create introduces a brand-new token.
type Create struct {
	Position int
	Surface  string
}

// Plan is the full set of operations one reconciliation will apply, in
// application order: retags, parks, places, creates, deletes.
type Plan struct {
	Retags  []Retag
	Parks   []Park
	Places  []Place
	Creates []Create
	Deletes []int64

	// Reused is the count of existing ids bound to a new position.
	Reused int
}

// BuildPlan computes the operations that map existing onto surfaces.
// It is pure and total apart from the final self-check, which reports a
// planner bug as a consistency error.
func BuildPlan(existing []Token, surfaces []string) (*Plan, error) {
	plan := &Plan{}

	byPosition := make(map[int]Token, len(existing))
	for _, t := range existing {
		byPosition[t.Position] = t
	}

	// Phase 1: positional match. A token still at index i is the same
	// token even if its surface changed; a changed surface is a retag,
	// not a new identity.
	bound := make(map[int]bool, len(surfaces))
	matched := make(map[int64]bool, len(existing))
	for i, surface := range surfaces {
		t, ok := byPosition[i]
		if !ok {
			continue
		}
		bound[i] = true
		matched[t.ID] = true
		plan.Reused++
		if t.Surface != surface {
			plan.Retags = append(plan.Retags, Retag{ID: t.ID, Surface: surface})
		}
	}

	// Phase 2: surface match for the rest. Unbound tokens are parked at
	// a block of negative positions disjoint from every final position,
	// then consumed left-to-right by new index so duplicate surfaces
	// bind by availability.
	var pool []Token
	for _, t := range existing {
		if !matched[t.ID] {
			pool = append(pool, t)
		}
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].Position < pool[j].Position })

	tempPos := -(len(existing) + len(surfaces) + 1)
	for _, t := range pool {
		plan.Parks = append(plan.Parks, Park{ID: t.ID, TempPos: tempPos})
		tempPos++
	}

	for i, surface := range surfaces {
		if bound[i] {
			continue
		}
		found := false
		for k, t := range pool {
			if t.Surface == surface {
				plan.Places = append(plan.Places, Place{ID: t.ID, Position: i, Surface: surface})
				pool = append(pool[:k], pool[k+1:]...)
				matched[t.ID] = true
				plan.Reused++
				found = true
				break
			}
		}
		if !found {
			plan.Creates = append(plan.Creates, Create{Position: i, Surface: surface})
		}
		bound[i] = true
	}

	// Whatever never bound to a new index is gone.
	for _, t := range pool {
		plan.Deletes = append(plan.Deletes, t.ID)
	}

	// Self-check: every new index bound exactly once. A failure here is
	// a planner defect, never a user condition.
	if len(bound) != len(surfaces) {
		return nil, errors.NewConsistency("plan", 0,
			fmt.Sprintf("bound %d positions, want %d", len(bound), len(surfaces)))
	}
	for i := range surfaces {
		if !bound[i] {
			return nil, errors.NewConsistency("plan", 0,
				fmt.Sprintf("position %d unbound", i))
		}
	}
	return plan, nil
}

// Result summarizes an applied reconciliation.
type Result struct {
	Tokens  int // final token count
	Reused  int // existing ids kept
	Created int
	Deleted int
}

// Reconciler applies plans against a token store.
type Reconciler struct {
	store Store
}

// New returns a Reconciler over the given store. The store is expected
// to be transactional for the duration of each Reconcile call; the
// reconciler itself never commits or rolls back.
func New(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile maps surfaces onto the sentence's current tokens and
// applies the resulting operations in order. After application it
// re-lists the sentence and verifies the density invariant: live
// positions are exactly 0..n-1. A verification failure aborts with a
// consistency error and the caller must roll back.
func (r *Reconciler) Reconcile(ctx context.Context, sentenceID int64, surfaces []string) (*Result, error) {
	existing, err := r.store.ListTokens(ctx, sentenceID)
	if err != nil {
		return nil, errors.Wrap(err, "list tokens")
	}

	plan, err := BuildPlan(existing, surfaces)
	if err != nil {
		return nil, err
	}

	positions := make(map[int64]int, len(existing))
	surfacesByID := make(map[int64]string, len(existing))
	for _, t := range existing {
		positions[t.ID] = t.Position
		surfacesByID[t.ID] = t.Surface
	}

	for _, op := range plan.Retags {
		if err := r.store.UpdateToken(ctx, op.ID, positions[op.ID], op.Surface); err != nil {
			return nil, errors.Wrapf(err, "retag token %d", op.ID)
		}
		surfacesByID[op.ID] = op.Surface
	}
	for _, op := range plan.Parks {
		if err := r.store.UpdateToken(ctx, op.ID, op.TempPos, surfacesByID[op.ID]); err != nil {
			return nil, errors.Wrapf(err, "park token %d", op.ID)
		}
	}
	for _, op := range plan.Places {
		if err := r.store.UpdateToken(ctx, op.ID, op.Position, op.Surface); err != nil {
			return nil, errors.Wrapf(err, "place token %d", op.ID)
		}
	}
	for _, op := range plan.Creates {
		if _, err := r.store.CreateToken(ctx, sentenceID, op.Position, op.Surface); err != nil {
			return nil, errors.Wrapf(err, "create token at %d", op.Position)
		}
	}
	for _, id := range plan.Deletes {
		if err := r.store.DeleteToken(ctx, id); err != nil {
			return nil, errors.Wrapf(err, "delete token %d", id)
		}
	}

	if err := r.verify(ctx, sentenceID, len(surfaces)); err != nil {
		return nil, err
	}

	return &Result{
		Tokens:  len(surfaces),
		Reused:  plan.Reused,
		Created: len(plan.Creates),
		Deleted: len(plan.Deletes),
	}, nil
}

// verify re-lists the sentence and checks that live positions are
// exactly {0..n-1}.
func (r *Reconciler) verify(ctx context.Context, sentenceID int64, n int) error {
	tokens, err := r.store.ListTokens(ctx, sentenceID)
	if err != nil {
		return errors.Wrap(err, "verify tokens")
	}
	if len(tokens) != n {
		return errors.NewConsistency("sentence", sentenceID,
			fmt.Sprintf("%d live tokens after reconcile, want %d", len(tokens), n))
	}
	seen := make(map[int]bool, n)
	for _, t := range tokens {
		if t.Position < 0 || t.Position >= n || seen[t.Position] {
			return errors.NewConsistency("sentence", sentenceID,
				fmt.Sprintf("position %d out of range or duplicated", t.Position))
		}
		seen[t.Position] = true
	}
	return nil
}
