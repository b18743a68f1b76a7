package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"examshelf/internal/store"

	"github.com/spf13/cobra"
)

func newWorkspaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Workspace management (default workspace is recommended unless explicitly told otherwise)",
	}

	cmd.AddCommand(newWorkspaceInitCmd(app))
	cmd.AddCommand(newWorkspaceAddCmd(app))
	cmd.AddCommand(newWorkspaceForgetCmd(app))
	cmd.AddCommand(newWorkspaceUseCmd(app))
	cmd.AddCommand(newWorkspaceCurrentCmd(app))
	cmd.AddCommand(newWorkspaceListCmd(app))

	return cmd
}

func newWorkspaceInitCmd(app *App) *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a named workspace under the config dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeWorkspaceName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			dir, err := store.WorkspaceDir(name)
			if err != nil {
				return writeErr(cmd, err)
			}

			s := store.Store{Dir: dir}
			db, err := s.Load()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Save(db); err != nil {
				return writeErr(cmd, err)
			}

			if use {
				cfg, err := store.LoadConfig()
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg.CurrentWorkspace = name
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
				app.Workspace = name
				app.Dir = dir
			}

			return writeOut(cmd, app, map[string]any{
				"workspace": name,
				"dir":       dir,
				"used":      use,
			})
		},
	}

	cmd.Flags().BoolVar(&use, "use", false, "Also set as current workspace")
	return cmd
}

func newWorkspaceAddCmd(app *App) *cobra.Command {
	var dir string
	var use bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an existing workspace directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeWorkspaceName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			dir = strings.TrimSpace(dir)
			if dir == "" {
				return writeErr(cmd, errors.New("missing --dir"))
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			abs = filepath.Clean(abs)
			if st, err := os.Stat(abs); err != nil {
				return writeErr(cmd, err)
			} else if !st.IsDir() {
				return writeErr(cmd, fmt.Errorf("--dir is not a directory: %s", abs))
			}

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if cfg.Workspaces == nil {
				cfg.Workspaces = map[string]store.WorkspaceRef{}
			}
			cfg.Workspaces[name] = store.WorkspaceRef{Path: abs, Kind: "local"}
			if use {
				cfg.CurrentWorkspace = name
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}

			if use {
				app.Workspace = name
				app.Dir = abs
			}
			return writeOut(cmd, app, map[string]any{
				"workspace": name,
				"dir":       abs,
				"used":      use,
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Workspace directory to register")
	cmd.Flags().BoolVar(&use, "use", false, "Also set as current workspace")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func newWorkspaceForgetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forget <name>",
		Short: "Remove a workspace from the registry (does not delete files)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeWorkspaceName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			_, existed := cfg.Workspaces[name]
			delete(cfg.Workspaces, name)
			if cfg.CurrentWorkspace == name {
				cfg.CurrentWorkspace = ""
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}

			return writeOut(cmd, app, map[string]any{
				"workspace": name,
				"existed":   existed,
			})
		},
	}
	return cmd
}

func newWorkspaceUseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Set the current workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeWorkspaceName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.CurrentWorkspace = name
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			app.Workspace = name
			app.Dir = ""
			return writeOut(cmd, app, map[string]any{"workspace": name})
		},
	}
	return cmd
}

func newWorkspaceCurrentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			name := cfg.CurrentWorkspace
			if app.Workspace != "" {
				name = app.Workspace
			}
			payload := map[string]any{"workspace": name}
			if name != "" {
				if d, err := store.WorkspaceDir(name); err == nil {
					payload["dir"] = d
				}
			}
			return writeOut(cmd, app, payload)
		},
	}
	return cmd
}

func newWorkspaceListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := store.ListWorkspaces()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, _ := store.LoadConfig()
			type ws struct {
				Name    string `json:"name"`
				Current bool   `json:"current"`
			}
			out := make([]ws, 0, len(names))
			for _, n := range names {
				out = append(out, ws{Name: n, Current: cfg != nil && cfg.CurrentWorkspace == n})
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}
