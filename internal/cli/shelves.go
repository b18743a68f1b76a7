package cli

import (
	"errors"

	"examshelf/internal/model"
	"examshelf/internal/mutate"

	"github.com/spf13/cobra"
)

func newShelvesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shelves",
		Short: "Shelf commands",
	}
	cmd.AddCommand(newShelvesCreateCmd(app))
	cmd.AddCommand(newShelvesListCmd(app))
	cmd.AddCommand(newShelvesRenameCmd(app))
	cmd.AddCommand(newShelvesColorCmd(app))
	cmd.AddCommand(newShelvesUseCmd(app))
	cmd.AddCommand(newShelvesDeleteCmd(app))
	return cmd
}

// shelfSummary is the list/detail projection: topic bodies are elided.
type shelfSummary struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Color   model.ColorTag `json:"colorTag"`
	Topics  int            `json:"topics"`
	Current bool           `json:"current"`
}

func summarizeShelf(sh model.Shelf, currentID string) shelfSummary {
	return shelfSummary{
		ID:      sh.ID,
		Name:    sh.Name,
		Color:   sh.ColorTag,
		Topics:  len(sh.Topics),
		Current: sh.ID == currentID,
	}
}

func newShelvesCreateCmd(app *App) *cobra.Command {
	var name string
	var color string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a shelf and make it current",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.AddShelf(db, name, model.ColorTag(color))
			if err != nil {
				return writeErr(cmd, err)
			}
			saveDB(cmd, s, db)
			_ = s.AppendEvent("shelf.create", res.Shelf.ID, res.EventPayload)
			return writeOut(cmd, app, summarizeShelf(*res.Shelf, db.CurrentShelfID))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Shelf name")
	cmd.Flags().StringVar(&color, "color", "blue", "Color tag (slate|red|amber|green|blue|violet)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newShelvesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shelves",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make([]shelfSummary, 0, len(db.Shelves))
			for _, sh := range db.Shelves {
				out = append(out, summarizeShelf(sh, db.CurrentShelfID))
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}

func newShelvesRenameCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <shelf-id>",
		Short: "Rename a shelf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.RenameShelf(db, args[0], name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if res.Changed {
				saveDB(cmd, s, db)
				_ = s.AppendEvent("shelf.rename", res.Shelf.ID, res.EventPayload)
			}
			return writeOut(cmd, app, summarizeShelf(*res.Shelf, db.CurrentShelfID))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New shelf name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newShelvesColorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "color <shelf-id> <color>",
		Short: "Set a shelf's color tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.SetShelfColor(db, args[0], model.ColorTag(args[1]))
			if err != nil {
				return writeErr(cmd, err)
			}
			if res.Changed {
				saveDB(cmd, s, db)
				_ = s.AppendEvent("shelf.color", res.Shelf.ID, res.EventPayload)
			}
			return writeOut(cmd, app, summarizeShelf(*res.Shelf, db.CurrentShelfID))
		},
	}
	return cmd
}

func newShelvesUseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <shelf-id>",
		Short: "Make a shelf the current selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.UseShelf(db, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if res.Changed {
				saveDB(cmd, s, db)
				_ = s.AppendEvent("shelf.use", res.Shelf.ID, res.EventPayload)
			}
			return writeOut(cmd, app, summarizeShelf(*res.Shelf, db.CurrentShelfID))
		},
	}
	return cmd
}

func newShelvesDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <shelf-id>",
		Short: "Delete a shelf and everything beneath it (releases stored file content)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errors.New("refusing to delete without --yes"))
			}
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			blobs, err := openBlobs(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.DeleteShelf(db, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			saveDB(cmd, s, db)
			releaseBlobs(cmd, blobs, res.ReleasedFileIDs)
			_ = s.AppendEvent("shelf.delete", args[0], res.EventPayload)
			return writeOut(cmd, app, map[string]any{
				"deleted":       args[0],
				"releasedBlobs": len(res.ReleasedFileIDs),
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
