package cli

import (
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Workspace overview: shelves, topics, rows, completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			type shelfStatus struct {
				ID         string `json:"id"`
				Name       string `json:"name"`
				Topics     int    `json:"topics"`
				Completed  int    `json:"completedTopics"`
				Rows       int    `json:"rows"`
				DoneRows   int    `json:"completedRows"`
				WithAnswer int    `json:"rowsWithAnswer"`
				Current    bool   `json:"current"`
			}

			out := make([]shelfStatus, 0, len(db.Shelves))
			for i := range db.Shelves {
				sh := &db.Shelves[i]
				rows, done, withAnswer := countRows(sh)
				completedTopics := 0
				for _, t := range sh.Topics {
					if t.Completed() {
						completedTopics++
					}
				}
				out = append(out, shelfStatus{
					ID:         sh.ID,
					Name:       sh.Name,
					Topics:     len(sh.Topics),
					Completed:  completedTopics,
					Rows:       rows,
					DoneRows:   done,
					WithAnswer: withAnswer,
					Current:    sh.ID == db.CurrentShelfID,
				})
			}
			return writeOut(cmd, app, map[string]any{
				"workspace": app.Workspace,
				"dir":       app.Dir,
				"shelves":   out,
			})
		},
	}
	return cmd
}
