package backup

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/aelfread/wordhoard/internal/store"
)

func newTestManager(t *testing.T, keep int) (*Manager, int64) {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	var projectID int64
	err = s.WithTx(ctx, func(tx *store.Tx) error {
		p, err := tx.CreateProject(ctx, "wanderer")
		if err != nil {
			return err
		}
		projectID = p.ID
		sent, err := tx.CreateSentence(ctx, p.ID, 1, "Oft him ānhaga āre gebīdeð.", true)
		if err != nil {
			return err
		}
		for i, w := range []string{"Oft", "him", "ānhaga", "āre", "gebīdeð"} {
			if _, err := tx.CreateToken(ctx, sent.ID, i, w); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	m, err := NewManager(s, t.TempDir(), keep)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, projectID
}

func TestCreateVerifyRestore(t *testing.T) {
	m, projectID := newTestManager(t, 0)
	ctx := context.Background()

	info, err := m.Create(ctx, projectID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasSuffix(info.Path, ".json.xz") {
		t.Errorf("path = %q, want .json.xz suffix", info.Path)
	}
	if info.Size <= 0 || info.Checksum == "" {
		t.Errorf("info = %+v", info)
	}

	if err := m.Verify(info.Path); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	p, err := m.Restore(ctx, info.Path)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if p.Name != "wanderer (2)" {
		t.Errorf("restored name = %q, want %q", p.Name, "wanderer (2)")
	}
}

func TestVerifyCorruptFile(t *testing.T) {
	m, projectID := newTestManager(t, 0)
	info, err := m.Create(context.Background(), projectID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(info.Path, []byte("not xz data"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if err := m.Verify(info.Path); err == nil {
		t.Fatal("expected error verifying corrupt backup")
	}
}

func TestListNewestFirst(t *testing.T) {
	m, projectID := newTestManager(t, 10)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := m.Create(ctx, projectID); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	backups, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("got %d backups, want 3", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].CreatedAt.After(backups[i-1].CreatedAt) {
			t.Errorf("backups out of order at %d", i)
		}
	}
	for _, b := range backups {
		if b.Project != "wanderer" {
			t.Errorf("project = %q, want wanderer", b.Project)
		}
	}
}

func TestPruneRetention(t *testing.T) {
	m, projectID := newTestManager(t, 2)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := m.Create(ctx, projectID); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	backups, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("got %d backups after pruning, want 2", len(backups))
	}
}
