// Package backup snapshots projects to xz-compressed export envelopes
// on disk, with retention, verification, and a ticker-driven autosaver.
package backup

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/aelfread/wordhoard/core/errors"
	"github.com/aelfread/wordhoard/internal/exchange"
	"github.com/aelfread/wordhoard/internal/logging"
	"github.com/aelfread/wordhoard/internal/store"
)

const (
	// DefaultKeep is how many backups per project survive pruning.
	DefaultKeep = 5
	// DefaultInterval is the autosaver's default period.
	DefaultInterval = 12 * time.Hour

	suffix = ".json.xz"
)

// Manager creates and restores backups under a single directory.
type Manager struct {
	store *store.Store
	dir   string
	keep  int
}

// NewManager returns a Manager writing to dir, creating it if needed.
func NewManager(st *store.Store, dir string, keep int) (*Manager, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewIO("mkdir", dir, err)
	}
	return &Manager{store: st, dir: dir, keep: keep}, nil
}

// Info describes one backup file.
type Info struct {
	Path      string
	Project   string
	CreatedAt time.Time
	Size      int64
	Checksum  string
}

// Create exports the project, compresses the envelope, and prunes old
// backups of the same project past the retention count.
func (m *Manager) Create(ctx context.Context, projectID int64) (*Info, error) {
	env, err := exchange.Export(ctx, m.store, projectID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "encode envelope")
	}

	stamp := time.Now().UTC().Format("20060102T150405.000000000Z")
	path := filepath.Join(m.dir, fmt.Sprintf("%s-%s%s", slug(env.Project.Name), stamp, suffix))

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create", path, err)
	}
	w, err := xz.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "xz writer")
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		f.Close()
		return nil, errors.NewIO("write", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return nil, errors.NewIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, errors.NewIO("close", path, err)
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIO("stat", path, err)
	}
	sum := blake3.Sum256(raw)

	if err := m.prune(env.Project.Name); err != nil {
		return nil, err
	}
	logging.BackupEvent("created", path, "project", env.Project.Name)
	return &Info{
		Path:      path,
		Project:   env.Project.Name,
		CreatedAt: st.ModTime().UTC(),
		Size:      st.Size(),
		Checksum:  hex.EncodeToString(sum[:]),
	}, nil
}

// List returns all backups in the directory, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, errors.NewIO("read dir", m.dir, err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, errors.NewIO("stat", e.Name(), err)
		}
		out = append(out, Info{
			Path:      filepath.Join(m.dir, e.Name()),
			Project:   projectOf(e.Name()),
			CreatedAt: fi.ModTime().UTC(),
			Size:      fi.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Verify decompresses path and checks the envelope checksum without
// touching the store.
func (m *Manager) Verify(path string) error {
	raw, err := decompress(path)
	if err != nil {
		return err
	}
	return exchange.Verify(raw)
}

// Restore imports the backup at path as a new project. Name collisions
// resolve the same way as any import.
func (m *Manager) Restore(ctx context.Context, path string) (*store.Project, error) {
	raw, err := decompress(path)
	if err != nil {
		return nil, err
	}
	p, err := exchange.Import(ctx, m.store, raw)
	if err != nil {
		return nil, err
	}
	logging.BackupEvent("restored", path, "project", p.Name)
	return p, nil
}

// prune deletes the oldest backups of one project beyond the retention
// count.
func (m *Manager) prune(project string) error {
	all, err := m.List()
	if err != nil {
		return err
	}
	var mine []Info
	for _, b := range all {
		if b.Project == project {
			mine = append(mine, b)
		}
	}
	for _, b := range mine[min(m.keep, len(mine)):] {
		if err := os.Remove(b.Path); err != nil {
			return errors.NewIO("remove", b.Path, err)
		}
		logging.BackupEvent("pruned", b.Path)
	}
	return nil
}

func decompress(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()
	r, err := xz.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "xz reader")
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return raw, nil
}

// slug makes a project name safe for a filename.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "project"
	}
	return b.String()
}

// projectOf recovers the slug from a backup filename.
func projectOf(name string) string {
	base := strings.TrimSuffix(name, suffix)
	if i := strings.LastIndex(base, "-"); i > 0 {
		return base[:i]
	}
	return base
}
