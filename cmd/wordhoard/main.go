// Command wordhoard is the CLI for the wordhoard annotation workbench.
// It manages projects of segmented Old English text, token annotations,
// notes, and backups, and serves the REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gosuri/uiprogress"

	"github.com/aelfread/wordhoard/internal/api"
	"github.com/aelfread/wordhoard/internal/backup"
	"github.com/aelfread/wordhoard/internal/editor"
	"github.com/aelfread/wordhoard/internal/exchange"
	"github.com/aelfread/wordhoard/internal/formats"
	"github.com/aelfread/wordhoard/internal/logging"
	"github.com/aelfread/wordhoard/internal/search"
	"github.com/aelfread/wordhoard/internal/store"
)

const version = "0.2.0"

// CLI defines the command-line interface for wordhoard.
var CLI struct {
	// Global flags
	DB        string `help:"Path to the project database" default:"wordhoard.db" type:"path" env:"WORDHOARD_DB"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text"`

	// Command groups (noun-first organization)
	Project  ProjectGroup  `cmd:"" help:"Project operations (import, list, show, export, delete)"`
	Sentence SentenceGroup `cmd:"" help:"Sentence operations (show, edit, merge)"`
	Token    TokenGroup    `cmd:"" help:"Token operations (annotate)"`
	Note     NoteGroup     `cmd:"" help:"Note operations (add, list, rm)"`
	Search   SearchCmd     `cmd:"" help:"Search tokens by surface, lemma, or grammar"`
	Backup   BackupGroup   `cmd:"" help:"Backup operations (create, list, verify, restore)"`
	API      APICmd        `cmd:"" help:"Start the REST API server"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// ProjectGroup contains project lifecycle operations.
type ProjectGroup struct {
	Import        ProjectImportCmd  `cmd:"" help:"Import a document as a new project"`
	List          ProjectListCmd    `cmd:"" help:"List projects"`
	Show          ProjectShowCmd    `cmd:"" help:"Show a project and its sentences"`
	Export        ProjectExportCmd  `cmd:"" help:"Export a project as a JSON archive"`
	ImportArchive ImportArchiveCmd  `cmd:"" name:"import-archive" help:"Import a previously exported archive"`
	Delete        ProjectDeleteCmd  `cmd:"" help:"Delete a project and everything in it"`
}

// SentenceGroup contains sentence operations.
type SentenceGroup struct {
	Show  SentenceShowCmd  `cmd:"" help:"Show a sentence with its tokens and notes"`
	Edit  SentenceEditCmd  `cmd:"" help:"Replace a sentence's text, preserving annotations"`
	Merge SentenceMergeCmd `cmd:"" help:"Merge a sentence with its successor"`
}

// TokenGroup contains token operations.
type TokenGroup struct {
	Annotate AnnotateCmd `cmd:"" help:"Set grammatical annotation on a token"`
}

// NoteGroup contains note operations.
type NoteGroup struct {
	Add  NoteAddCmd  `cmd:"" help:"Attach a note to a sentence or token span"`
	List NoteListCmd `cmd:"" help:"List a sentence's notes"`
	Rm   NoteRmCmd   `cmd:"" help:"Delete a note"`
}

// BackupGroup contains backup operations.
type BackupGroup struct {
	Create  BackupCreateCmd  `cmd:"" help:"Write compressed archives for one or all projects"`
	List    BackupListCmd    `cmd:"" help:"List archives in the backup directory"`
	Verify  BackupVerifyCmd  `cmd:"" help:"Check an archive's integrity"`
	Restore BackupRestoreCmd `cmd:"" help:"Restore an archive into the database"`
}

// openStore initializes logging and opens the database named by the
// global flags.
func openStore() (*store.Store, error) {
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	return store.Open(CLI.DB)
}

// resolveProject accepts a numeric id or a project name.
func resolveProject(ctx context.Context, st *store.Store, ref string) (*store.Project, error) {
	var project *store.Project
	err := st.View(ctx, func(tx *store.Tx) error {
		if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
			p, err := tx.GetProject(ctx, id)
			if err == nil {
				project = p
				return nil
			}
		}
		p, err := tx.GetProjectByName(ctx, ref)
		if err != nil {
			return err
		}
		project = p
		return nil
	})
	return project, err
}

// ProjectImportCmd imports a document as a new project.
type ProjectImportCmd struct {
	Path   string `arg:"" help:"Path to document (plain text or TEI)" type:"existingfile"`
	Name   string `help:"Project name (defaults to the file name)"`
	Format string `help:"Force an input format (text, tei)"`
}

func (c *ProjectImportCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.Path, err)
	}

	var text, format string
	if c.Format != "" {
		h, ok := formats.Lookup(c.Format)
		if !ok {
			return fmt.Errorf("unknown format %q", c.Format)
		}
		text, err = h.ExtractText(data)
		format = h.Name
	} else {
		text, format, err = formats.Extract(c.Path, data)
	}
	if err != nil {
		return err
	}

	name := c.Name
	if name == "" {
		base := c.Path
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			base = base[i+1:]
		}
		if i := strings.LastIndexByte(base, '.'); i > 0 {
			base = base[:i]
		}
		name = base
	}

	uiprogress.Start()
	var bar *uiprogress.Bar
	opts := editor.ImportOptions{
		Normalize: true,
		Progress: func(done, total int) {
			if bar == nil {
				bar = uiprogress.AddBar(total)
				bar.AppendCompleted()
				bar.PrependElapsed()
			}
			bar.Set(done)
		},
	}

	ed := editor.New(st)
	project, err := ed.ImportText(context.Background(), name, text, opts)
	uiprogress.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("Imported: %s\n", c.Path)
	fmt.Printf("  Project: %s (id %d)\n", project.Name, project.ID)
	fmt.Printf("  Format: %s\n", format)
	return nil
}

// ProjectListCmd lists projects.
type ProjectListCmd struct{}

func (c *ProjectListCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	var projects []store.Project
	err = st.View(ctx, func(tx *store.Tx) error {
		projects, err = tx.ListProjects(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects.")
		return nil
	}
	for _, p := range projects {
		fmt.Printf("%4d  %-30s  updated %s\n", p.ID, p.Name, p.UpdatedAt)
	}
	return nil
}

// ProjectShowCmd shows a project and its sentences.
type ProjectShowCmd struct {
	Project string `arg:"" help:"Project id or name"`
}

func (c *ProjectShowCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	p, err := resolveProject(ctx, st, c.Project)
	if err != nil {
		return err
	}

	var sentences []store.Sentence
	err = st.View(ctx, func(tx *store.Tx) error {
		sentences, err = tx.ListSentences(ctx, p.ID)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s (id %d), %d sentences\n", p.Name, p.ID, len(sentences))
	for _, s := range sentences {
		marker := " "
		if s.ParagraphStart {
			marker = "¶"
		}
		fmt.Printf("%s %4d [%d] %s\n", marker, s.Seq, s.ID, s.Text)
		if s.Translation != "" {
			fmt.Printf("         ↳ %s\n", s.Translation)
		}
	}
	return nil
}

// ProjectExportCmd exports a project as a JSON archive.
type ProjectExportCmd struct {
	Project string `arg:"" help:"Project id or name"`
	Out     string `help:"Output path (defaults to stdout)" type:"path"`
}

func (c *ProjectExportCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	p, err := resolveProject(ctx, st, c.Project)
	if err != nil {
		return err
	}
	env, err := exchange.Export(ctx, st, p.ID)
	if err != nil {
		return err
	}
	data, err := exchange.Marshal(env)
	if err != nil {
		return err
	}

	if c.Out == "" {
		os.Stdout.Write(data)
		return nil
	}
	if err := os.WriteFile(c.Out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.Out, err)
	}
	fmt.Printf("Exported %s to %s\n", p.Name, c.Out)
	return nil
}

// ImportArchiveCmd imports a previously exported archive.
type ImportArchiveCmd struct {
	Path string `arg:"" help:"Path to archive" type:"existingfile"`
}

func (c *ImportArchiveCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.Path, err)
	}
	project, err := exchange.Import(context.Background(), st, data)
	if err != nil {
		return err
	}
	fmt.Printf("Imported project %s (id %d)\n", project.Name, project.ID)
	return nil
}

// ProjectDeleteCmd deletes a project.
type ProjectDeleteCmd struct {
	Project string `arg:"" help:"Project id or name"`
	Force   bool   `help:"Delete without confirmation"`
}

func (c *ProjectDeleteCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	p, err := resolveProject(ctx, st, c.Project)
	if err != nil {
		return err
	}

	if !c.Force {
		fmt.Printf("Delete project %q and all its sentences, tokens, annotations, and notes? [y/N] ", p.Name)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		return tx.DeleteProject(ctx, p.ID)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", p.Name)
	return nil
}

// SentenceShowCmd shows a sentence with its tokens and notes.
type SentenceShowCmd struct {
	ID int64 `arg:"" help:"Sentence id"`
}

func (c *SentenceShowCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	return st.View(ctx, func(tx *store.Tx) error {
		s, err := tx.GetSentence(ctx, c.ID)
		if err != nil {
			return err
		}
		tokens, err := tx.ListTokenDetails(ctx, c.ID)
		if err != nil {
			return err
		}
		notes, err := tx.ListNotes(ctx, c.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Sentence %d (seq %d)\n", s.ID, s.Seq)
		fmt.Printf("  %s\n", s.Text)
		if s.Translation != "" {
			fmt.Printf("  ↳ %s\n", s.Translation)
		}
		for _, t := range tokens {
			line := fmt.Sprintf("  %2d [%d] %s", t.Position, t.ID, t.Surface)
			if t.Lemma != "" {
				line += " (" + t.Lemma + ")"
			}
			if a, err := tx.GetAnnotation(ctx, t.ID); err == nil && !a.Empty() {
				line += "  " + describeAnnotation(a)
			}
			fmt.Println(line)
		}
		for _, n := range notes {
			fmt.Printf("  note %d [%s] %s\n", n.ID, n.Kind, n.Body)
		}
		return nil
	})
}

// SentenceEditCmd replaces a sentence's text.
type SentenceEditCmd struct {
	ID   int64  `arg:"" help:"Sentence id"`
	Text string `arg:"" help:"New sentence text"`
}

func (c *SentenceEditCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ed := editor.New(st)
	result, err := ed.EditSentence(context.Background(), c.ID, c.Text)
	if err != nil {
		return err
	}
	fmt.Printf("Edited sentence %d: %d tokens (%d reused, %d created, %d deleted)\n",
		c.ID, result.Tokens, result.Reused, result.Created, result.Deleted)
	if result.NotesMoved > 0 || result.NotesDeleted > 0 {
		fmt.Printf("  notes: %d re-anchored, %d deleted\n", result.NotesMoved, result.NotesDeleted)
	}
	return nil
}

// SentenceMergeCmd merges a sentence with its successor.
type SentenceMergeCmd struct {
	ID int64 `arg:"" help:"Id of the first sentence of the pair"`
}

func (c *SentenceMergeCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ed := editor.New(st)
	result, err := ed.MergeSentences(context.Background(), c.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Merged into sentence %d: %d tokens (%d reused)\n", c.ID, result.Tokens, result.Reused)
	return nil
}

// NoteAddCmd attaches a note to a sentence or token span.
type NoteAddCmd struct {
	Sentence int64  `arg:"" help:"Sentence id"`
	Body     string `arg:"" help:"Note text (Markdown)"`
	Start    int64  `help:"First anchored token id (0 for a sentence note)"`
	End      int64  `help:"Last anchored token id (defaults to --start)"`
}

func (c *NoteAddCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	start, end := c.Start, c.End
	if end == 0 {
		end = start
	}
	kind := store.NoteKindSentence
	switch {
	case start != 0 && start == end:
		kind = store.NoteKindToken
	case start != 0:
		kind = store.NoteKindSpan
	}

	ctx := context.Background()
	var created *store.Note
	err = st.WithTx(ctx, func(tx *store.Tx) error {
		created, err = tx.CreateNote(ctx, &store.Note{
			SentenceID: c.Sentence,
			StartToken: start,
			EndToken:   end,
			Body:       c.Body,
			Kind:       kind,
		})
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added %s note %d\n", created.Kind, created.ID)
	return nil
}

// NoteListCmd lists a sentence's notes.
type NoteListCmd struct {
	Sentence int64 `arg:"" help:"Sentence id"`
}

func (c *NoteListCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	var notes []store.Note
	err = st.View(ctx, func(tx *store.Tx) error {
		notes, err = tx.ListNotes(ctx, c.Sentence)
		return err
	})
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("No notes.")
		return nil
	}
	for _, n := range notes {
		anchors := ""
		if n.StartToken != 0 {
			anchors = fmt.Sprintf(" tokens %d..%d", n.StartToken, n.EndToken)
		}
		fmt.Printf("%4d [%s]%s %s\n", n.ID, n.Kind, anchors, n.Body)
	}
	return nil
}

// NoteRmCmd deletes a note.
type NoteRmCmd struct {
	ID int64 `arg:"" help:"Note id"`
}

func (c *NoteRmCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	err = st.WithTx(ctx, func(tx *store.Tx) error {
		return tx.DeleteNote(ctx, c.ID)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Deleted note %d\n", c.ID)
	return nil
}

// SearchCmd searches tokens by surface, lemma, or grammar.
type SearchCmd struct {
	Query   string `arg:"" help:"Query, e.g. 'cyning' or 'pos:verb tense:past'"`
	Project string `help:"Limit to one project (id or name)"`
}

func (c *SearchCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	var projectID int64
	if c.Project != "" {
		p, err := resolveProject(ctx, st, c.Project)
		if err != nil {
			return err
		}
		projectID = p.ID
	}

	results, err := search.Execute(ctx, st, projectID, c.Query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s #%d token %d %q: %s\n", r.ProjectName, r.SentenceSeq, r.Position, r.Surface, r.SentenceText)
	}
	fmt.Printf("%d match(es)\n", len(results))
	return nil
}

// BackupCreateCmd writes compressed archives.
type BackupCreateCmd struct {
	Project string `help:"Back up one project (id or name) instead of all"`
	Dir     string `help:"Backup directory" default:"backups" type:"path"`
	Keep    int    `help:"Archives to retain per project" default:"5"`
}

func (c *BackupCreateCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := backup.NewManager(st, c.Dir, c.Keep)
	if err != nil {
		return err
	}
	ctx := context.Background()

	var projects []store.Project
	if c.Project != "" {
		p, err := resolveProject(ctx, st, c.Project)
		if err != nil {
			return err
		}
		projects = []store.Project{*p}
	} else {
		err = st.View(ctx, func(tx *store.Tx) error {
			projects, err = tx.ListProjects(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	for _, p := range projects {
		info, err := m.Create(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to back up %s: %w", p.Name, err)
		}
		fmt.Printf("Created %s (%d bytes)\n", info.Path, info.Size)
	}
	return nil
}

// BackupListCmd lists archives.
type BackupListCmd struct {
	Dir string `help:"Backup directory" default:"backups" type:"path"`
}

func (c *BackupListCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := backup.NewManager(st, c.Dir, backup.DefaultKeep)
	if err != nil {
		return err
	}
	infos, err := m.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No backups.")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s  %-20s  %8d bytes  %s\n",
			info.CreatedAt.Format(time.RFC3339), info.Project, info.Size, info.Path)
	}
	return nil
}

// BackupVerifyCmd checks an archive's integrity.
type BackupVerifyCmd struct {
	Path string `arg:"" help:"Path to archive" type:"existingfile"`
	Dir  string `help:"Backup directory" default:"backups" type:"path"`
}

func (c *BackupVerifyCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := backup.NewManager(st, c.Dir, backup.DefaultKeep)
	if err != nil {
		return err
	}
	if err := m.Verify(c.Path); err != nil {
		return err
	}
	fmt.Printf("OK %s\n", c.Path)
	return nil
}

// BackupRestoreCmd restores an archive into the database.
type BackupRestoreCmd struct {
	Path string `arg:"" help:"Path to archive" type:"existingfile"`
	Dir  string `help:"Backup directory" default:"backups" type:"path"`
}

func (c *BackupRestoreCmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := backup.NewManager(st, c.Dir, backup.DefaultKeep)
	if err != nil {
		return err
	}
	project, err := m.Restore(context.Background(), c.Path)
	if err != nil {
		return err
	}
	fmt.Printf("Restored project %s (id %d)\n", project.Name, project.ID)
	return nil
}

// APICmd starts the REST API server.
type APICmd struct {
	Port             int           `help:"Listen port" default:"8080"`
	BackupDir        string        `name:"backup-dir" help:"Autosave backup directory" default:"backups" type:"path"`
	AutosaveInterval time.Duration `name:"autosave-interval" help:"Autosave interval (0 disables autosave)" default:"12h"`
	Keep             int           `help:"Archives to retain per project" default:"5"`
}

func (c *APICmd) Run() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.AutosaveInterval > 0 {
		m, err := backup.NewManager(st, c.BackupDir, c.Keep)
		if err != nil {
			return err
		}
		go backup.NewAutoSaver(m, c.AutosaveInterval).Run(ctx)
	}

	srv := api.New(st, api.Config{Port: c.Port})
	return srv.Run(ctx)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("wordhoard version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("wordhoard"),
		kong.Description("Wordhoard - Old English segmentation and annotation workbench"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
