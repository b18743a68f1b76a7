package cli

import (
	"fmt"
	"os"
	"strings"

	"examshelf/internal/blob"
	"examshelf/internal/format"
	"examshelf/internal/store"
	"examshelf/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir         string
	Workspace   string
	BlobBackend string
	PrettyJSON  bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "examshelf",
		Short:        "Exam document organizer (local-first) CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  examshelf

  # Scriptable commands
  examshelf topics list

  # Find rows still missing an answer file
  examshelf search --answer no

  # Direct row lookup (shortcut for: examshelf rows show <row-id>)
  examshelf row-vth
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("EXAMSHELF_DIR", ""), "Path to store dir (advanced: overrides workspace resolution; use only for fixtures/tests)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", envOr("EXAMSHELF_WORKSPACE", ""), "Workspace name (default: 'default')")
	cmd.PersistentFlags().StringVar(&app.BlobBackend, "blobs", envOr("EXAMSHELF_BLOBS", ""), "Blob backend (filesystem|inline|memory; default from config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newWorkspaceCmd(app))
	cmd.AddCommand(newShelvesCmd(app))
	cmd.AddCommand(newTopicsCmd(app))
	cmd.AddCommand(newRowsCmd(app))
	cmd.AddCommand(newFilesCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newEventsCmd(app))

	return cmd
}

func runTUI(app *App) error {
	db, s, err := loadDB(app)
	if err != nil {
		return err
	}
	blobs, err := openBlobs(app)
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Store:     s,
		Blobs:     blobs,
		DB:        db,
		Workspace: app.Workspace,
	})
}

func loadDB(app *App) (*store.DB, store.Store, error) {
	dir := app.Dir
	if dir == "" {
		// Workspace-first:
		// 1) --workspace
		// 2) ~/.examshelf/config.json currentWorkspace
		// 3) default workspace ("default")
		if app.Workspace != "" {
			d, err := store.WorkspaceDir(app.Workspace)
			if err != nil {
				return nil, store.Store{}, err
			}
			dir = d
		} else if cfg, err := store.LoadConfig(); err == nil && cfg.CurrentWorkspace != "" {
			d, err := store.WorkspaceDir(cfg.CurrentWorkspace)
			if err != nil {
				return nil, store.Store{}, err
			}
			app.Workspace = cfg.CurrentWorkspace
			dir = d
		} else {
			// Create/use the implicit default workspace.
			app.Workspace = "default"
			d, err := store.WorkspaceDir(app.Workspace)
			if err != nil {
				return nil, store.Store{}, err
			}
			dir = d
		}
		app.Dir = dir
	}

	s := store.Store{Dir: dir}
	db, err := s.Load()
	if err != nil {
		return nil, s, err
	}
	return db, s, nil
}

// openBlobs resolves the blob backend: flag/env first, then global config,
// then the filesystem default. loadDB must have run so app.Dir is set.
func openBlobs(app *App) (blob.Store, error) {
	backend := strings.TrimSpace(app.BlobBackend)
	if backend == "" {
		if cfg, err := store.LoadConfig(); err == nil {
			backend = cfg.BlobBackend
		}
	}
	return blob.NewFromConfig(backend, app.Dir)
}

// saveDB persists the document, downgrading failure to a warning. The
// in-memory state stays authoritative for the rest of the invocation.
func saveDB(cmd *cobra.Command, s store.Store, db *store.DB) {
	if err := s.Save(db); err != nil {
		warn(cmd, "save failed: %v (in-memory state unaffected)", err)
	}
}

// releaseBlobs deletes cascaded payloads, soft-failing per id.
func releaseBlobs(cmd *cobra.Command, blobs blob.Store, ids []string) {
	for _, id := range ids {
		if err := blobs.Delete(id); err != nil {
			warn(cmd, "blob %s not released: %v", id, err)
		}
	}
}

func warn(cmd *cobra.Command, formatStr string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: "+formatStr+"\n", args...)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.WriteData(cmd.OutOrStdout(), v, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
