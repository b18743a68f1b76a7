package cli

import (
	"errors"

	"examshelf/internal/model"
	"examshelf/internal/mutate"

	"github.com/spf13/cobra"
)

func newRowsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "File row commands",
	}
	cmd.AddCommand(newRowsAddCmd(app))
	cmd.AddCommand(newRowsListCmd(app))
	cmd.AddCommand(newRowsShowCmd(app))
	cmd.AddCommand(newRowsCompleteCmd(app, true))
	cmd.AddCommand(newRowsCompleteCmd(app, false))
	cmd.AddCommand(newRowsDeleteCmd(app))
	return cmd
}

type rowSummary struct {
	ID        string          `json:"id"`
	Order     int             `json:"order"`
	Completed bool            `json:"completed"`
	Question  *model.FileMeta `json:"question,omitempty"`
	Answer    *model.FileMeta `json:"answer,omitempty"`
}

func summarizeRow(r model.FileRow) rowSummary {
	return rowSummary{
		ID:        r.ID,
		Order:     r.Order,
		Completed: r.IsCompleted,
		Question:  r.QuestionFile,
		Answer:    r.AnswerFile,
	}
}

func newRowsAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <topic-id>",
		Short: "Append an empty placeholder row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.AddRow(db, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			saveDB(cmd, s, db)
			_ = s.AppendEvent("row.add", res.Row.ID, res.EventPayload)
			return writeOut(cmd, app, summarizeRow(*res.Row))
		},
	}
	return cmd
}

func newRowsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <topic-id>",
		Short: "List a topic's rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, t, ok := db.FindTopic(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("topic", args[0]))
			}
			out := make([]rowSummary, 0, len(t.Files))
			for _, r := range t.Files {
				out = append(out, summarizeRow(r))
			}
			return writeOut(cmd, app, out)
		},
	}
	return cmd
}

func newRowsShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <row-id>",
		Short: "Show one row (searched across all shelves)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, r, ok := findRowAnywhere(db.Shelves, args[0])
			if !ok {
				return writeErr(cmd, errNotFound("row", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"topicId":   t.ID,
				"topicName": t.Name,
				"row":       summarizeRow(*r),
			})
		},
	}
	return cmd
}

func newRowsCompleteCmd(app *App, completed bool) *cobra.Command {
	use, short, event := "complete", "Mark a row completed", "row.complete"
	if !completed {
		use, short, event = "uncomplete", "Clear a row's completed flag", "row.uncomplete"
	}

	cmd := &cobra.Command{
		Use:   use + " <topic-id> <row-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.SetRowCompleted(db, args[0], args[1], completed)
			if err != nil {
				return writeErr(cmd, err)
			}
			if res.Changed {
				saveDB(cmd, s, db)
				_ = s.AppendEvent(event, res.Row.ID, res.EventPayload)
			}
			return writeOut(cmd, app, summarizeRow(*res.Row))
		},
	}
	return cmd
}

func newRowsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <topic-id> <row-id>",
		Short: "Delete a row (releases stored file content)",
		Args:  cobra.ExactArgs(2),
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
			res, err := mutate.DeleteRow(db, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			saveDB(cmd, s, db)
			releaseBlobs(cmd, blobs, res.ReleasedFileIDs)
			_ = s.AppendEvent("row.delete", args[1], res.EventPayload)
			return writeOut(cmd, app, map[string]any{
				"deleted":       args[1],
				"releasedBlobs": len(res.ReleasedFileIDs),
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func findRowAnywhere(shelves []model.Shelf, rowID string) (*model.Topic, *model.FileRow, bool) {
	for i := range shelves {
		for j := range shelves[i].Topics {
			t := &shelves[i].Topics[j]
			for k := range t.Files {
				if t.Files[k].ID == rowID {
					return t, &t.Files[k], true
				}
			}
		}
	}
	return nil, nil, false
}
