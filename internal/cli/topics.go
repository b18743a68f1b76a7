package cli

import (
	"errors"

	"examshelf/internal/model"
	"examshelf/internal/mutate"
	"examshelf/internal/store"

	"github.com/spf13/cobra"
)

func newTopicsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Topic commands (scoped to the current shelf unless --shelf is given)",
	}
	cmd.AddCommand(newTopicsAddCmd(app))
	cmd.AddCommand(newTopicsListCmd(app))
	cmd.AddCommand(newTopicsRenameCmd(app))
	cmd.AddCommand(newTopicsCollapseCmd(app))
	cmd.AddCommand(newTopicsMoveCmd(app))
	cmd.AddCommand(newTopicsSortCmd(app))
	cmd.AddCommand(newTopicsDeleteCmd(app))
	return cmd
}

type topicSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	Collapsed bool   `json:"collapsed"`
	Rows      int    `json:"rows"`
	Completed bool   `json:"completed"`
}

func summarizeTopic(t model.Topic) topicSummary {
	return topicSummary{
		ID:        t.ID,
		Name:      t.Name,
		Order:     t.Order,
		Collapsed: t.IsCollapsed,
		Rows:      len(t.Files),
		Completed: t.Completed(),
	}
}

// resolveShelf picks --shelf when given, the current shelf otherwise.
func resolveShelf(db *store.DB, shelfID string) (*model.Shelf, error) {
	if shelfID != "" {
		sh, ok := db.FindShelf(shelfID)
		if !ok {
			return nil, errNotFound("shelf", shelfID)
		}
		return sh, nil
	}
	sh, ok := db.CurrentShelf()
	if !ok {
		return nil, errors.New("no shelves exist; run `examshelf shelves create --name ...`")
	}
	return sh, nil
}

func newTopicsAddCmd(app *App) *cobra.Command {
	var shelfID string
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a topic at the top of the shelf",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sh, err := resolveShelf(db, shelfID)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.AddTopic(db, sh.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if name != "" {
				if _, err := mutate.UpdateTopic(db, sh.ID, res.Topic.ID, mutate.TopicPatch{Name: &name}); err != nil {
					return writeErr(cmd, err)
				}
				// The event records the name the topic ends up with, not the
				// auto-numbered placeholder.
				res.EventPayload["name"] = res.Topic.Name
			}
			saveDB(cmd, s, db)
			_ = s.AppendEvent("topic.add", res.Topic.ID, res.EventPayload)
			return writeOut(cmd, app, summarizeTopic(*res.Topic))
		},
	}

	cmd.Flags().StringVar(&shelfID, "shelf", "", "Shelf id (default: current shelf)")
	cmd.Flags().StringVar(&name, "name", "", "Topic name (default: auto-numbered)")
	return cmd
}

func newTopicsListCmd(app *App) *cobra.Command {
	var shelfID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List topics on a shelf",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sh, err := resolveShelf(db, shelfID)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make([]topicSummary, 0, len(sh.Topics))
			for _, t := range sh.Topics {
				out = append(out, summarizeTopic(t))
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&shelfID, "shelf", "", "Shelf id (default: current shelf)")
	return cmd
}

func newTopicsRenameCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <topic-id>",
		Short: "Rename a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.UpdateTopic(db, "", args[0], mutate.TopicPatch{Name: &name})
			if err != nil {
				return writeErr(cmd, err)
			}
			if res.Changed {
				saveDB(cmd, s, db)
				_ = s.AppendEvent("topic.rename", res.Topic.ID, res.EventPayload)
			}
			return writeOut(cmd, app, summarizeTopic(*res.Topic))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New topic name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTopicsCollapseCmd(app *App) *cobra.Command {
	var expand bool

	cmd := &cobra.Command{
		Use:   "collapse <topic-id>",
		Short: "Collapse (or, with --expand, expand) a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			collapsed := !expand
			res, err := mutate.UpdateTopic(db, "", args[0], mutate.TopicPatch{IsCollapsed: &collapsed})
			if err != nil {
				return writeErr(cmd, err)
			}
			if res.Changed {
				saveDB(cmd, s, db)
				_ = s.AppendEvent("topic.collapse", res.Topic.ID, res.EventPayload)
			}
			return writeOut(cmd, app, summarizeTopic(*res.Topic))
		},
	}

	cmd.Flags().BoolVar(&expand, "expand", false, "Expand instead of collapse")
	return cmd
}

func newTopicsMoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <topic-id> <up|down>",
		Short: "Swap a topic with its neighbor (boundary moves are no-ops)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			dir := mutate.Direction(args[1])
			if dir != mutate.DirectionUp && dir != mutate.DirectionDown {
				return writeErr(cmd, errors.New("direction must be up or down"))
			}
			sh, t, ok := db.FindTopic(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("topic", args[0]))
			}
			idx := -1
			for i := range sh.Topics {
				if sh.Topics[i].ID == t.ID {
					idx = i
					break
				}
			}
			res, err := mutate.MoveTopic(db, sh.ID, idx, dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			if res.Changed {
				saveDB(cmd, s, db)
				_ = s.AppendEvent("topic.move", res.Topic.ID, res.EventPayload)
			}
			return writeOut(cmd, app, summarizeTopic(*res.Topic))
		},
	}
	return cmd
}

func newTopicsSortCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort <topic-id>",
		Short: "Sort a topic's rows by question file name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.SortRowsByQuestionName(db, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			saveDB(cmd, s, db)
			_ = s.AppendEvent("topic.sort", res.Topic.ID, res.EventPayload)
			return writeOut(cmd, app, summarizeTopic(*res.Topic))
		},
	}
	return cmd
}

func newTopicsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <topic-id>",
		Short: "Delete a topic and its rows (releases stored file content)",
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
			res, err := mutate.DeleteTopic(db, "", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			saveDB(cmd, s, db)
			releaseBlobs(cmd, blobs, res.ReleasedFileIDs)
			_ = s.AppendEvent("topic.delete", args[0], res.EventPayload)
			return writeOut(cmd, app, map[string]any{
				"deleted":       args[0],
				"releasedBlobs": len(res.ReleasedFileIDs),
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
