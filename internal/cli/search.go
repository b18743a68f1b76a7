package cli

import (
	"examshelf/internal/filter"
	"examshelf/internal/model"

	"github.com/spf13/cobra"
)

func newSearchCmd(app *App) *cobra.Command {
	var shelfID string
	var topicStatus string
	var rowStatus string
	var answer string

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Filter topics and rows on the current shelf",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := filter.Criteria{
				TopicStatus: filter.TopicStatus(topicStatus),
				RowStatus:   filter.RowStatus(rowStatus),
				Answer:      filter.AnswerStatus(answer),
			}
			if len(args) == 1 {
				c.Search = args[0]
			}
			if err := c.Validate(); err != nil {
				return writeErr(cmd, err)
			}

			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sh, err := resolveShelf(db, shelfID)
			if err != nil {
				return writeErr(cmd, err)
			}

			visible := filter.VisibleTopics(sh.Topics, c)

			type hit struct {
				Topic topicSummary `json:"topic"`
				Rows  []rowSummary `json:"rows"`
			}
			out := make([]hit, 0, len(visible))
			for _, v := range visible {
				rows := make([]rowSummary, 0, len(v.Rows))
				for _, r := range v.Rows {
					rows = append(rows, summarizeRow(r))
				}
				out = append(out, hit{Topic: summarizeTopic(v.Topic), Rows: rows})
			}
			return writeOut(cmd, app, map[string]any{
				"shelf":  sh.Name,
				"topics": out,
			})
		},
	}

	cmd.Flags().StringVar(&shelfID, "shelf", "", "Shelf id (default: current shelf)")
	cmd.Flags().StringVar(&topicStatus, "topic-status", string(filter.TopicAll), "Topic completion (all|completed|incomplete)")
	cmd.Flags().StringVar(&rowStatus, "row-status", string(filter.RowAll), "Row completion (all|completed|incomplete)")
	cmd.Flags().StringVar(&answer, "answer", string(filter.AnswerAll), "Answer presence (all|has|no)")
	return cmd
}

// countRows tallies every row on the shelf, for status output.
func countRows(sh *model.Shelf) (rows, completed, withAnswer int) {
	for _, t := range sh.Topics {
		for _, r := range t.Files {
			rows++
			if r.IsCompleted {
				completed++
			}
			if r.AnswerFile != nil {
				withAnswer++
			}
		}
	}
	return rows, completed, withAnswer
}
