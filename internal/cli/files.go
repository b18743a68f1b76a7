package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"examshelf/internal/blob"
	"examshelf/internal/model"
	"examshelf/internal/mutate"

	"github.com/spf13/cobra"
)

func newFilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "File attachment commands",
	}
	cmd.AddCommand(newFilesAttachCmd(app))
	cmd.AddCommand(newFilesPasteCmd(app))
	cmd.AddCommand(newFilesIngestCmd(app))
	cmd.AddCommand(newFilesDetachCmd(app))
	cmd.AddCommand(newFilesExportCmd(app))
	return cmd
}

func parseFileKind(s string) (model.FileKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "question", "q":
		return model.FileKindQuestion, nil
	case "answer", "a":
		return model.FileKindAnswer, nil
	default:
		return "", fmt.Errorf("slot must be question or answer, got %q", s)
	}
}

func newFilesAttachCmd(app *App) *cobra.Command {
	var slot string
	var name string

	cmd := &cobra.Command{
		Use:   "attach <topic-id> <row-id> <path>",
		Short: "Attach a file from disk to a row slot (overwrites the slot)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFileKind(slot)
			if err != nil {
				return writeErr(cmd, err)
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return writeErr(cmd, err)
			}
			fileName := strings.TrimSpace(name)
			if fileName == "" {
				fileName = filepath.Base(args[2])
			}

			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			blobs, err := openBlobs(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			res, err := mutate.AttachFile(db, args[0], args[1], kind, fileName, uint64(len(data)), true)
			if err != nil {
				return writeErr(cmd, err)
			}

			// Remove-then-upload: release the displaced payload before
			// storing the new one under the fresh id.
			if res.ReplacedFileID != "" {
				if err := blobs.Delete(res.ReplacedFileID); err != nil {
					warn(cmd, "replaced blob %s not released: %v", res.ReplacedFileID, err)
				}
			}
			if err := blobs.Put(res.File.ID, data); err != nil {
				if errors.Is(err, blob.ErrCapacity) {
					warn(cmd, "blob store capacity exceeded; metadata kept without content")
					res.File.HasBlob = false
				} else {
					return writeErr(cmd, err)
				}
			}

			saveDB(cmd, s, db)
			_ = s.AppendEvent("file.attach", res.File.ID, res.EventPayload)
			return writeOut(cmd, app, summarizeRow(*res.Row))
		},
	}

	cmd.Flags().StringVar(&slot, "slot", "question", "Row slot (question|answer)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: file base name)")
	return cmd
}

func newFilesPasteCmd(app *App) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "paste <topic-id>",
		Short: "Add a row named after pasted text (no content stored)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.PasteTextRow(db, args[0], text)
			if err != nil {
				return writeErr(cmd, err)
			}
			saveDB(cmd, s, db)
			_ = s.AppendEvent("file.paste", res.Row.ID, res.EventPayload)
			return writeOut(cmd, app, summarizeRow(*res.Row))
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Pasted text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newFilesIngestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <topic-id> <path>...",
		Short: "Add one question row per file, preserving argument order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topicID := args[0]
			paths := args[1:]

			// Read payloads up front so a bad path fails before any mutation.
			payloads := make([][]byte, len(paths))
			incoming := make([]mutate.IngestedFile, len(paths))
			for i, p := range paths {
				data, err := os.ReadFile(p)
				if err != nil {
					return writeErr(cmd, err)
				}
				payloads[i] = data
				incoming[i] = mutate.IngestedFile{
					Name:      filepath.Base(p),
					SizeBytes: uint64(len(data)),
					HasBlob:   true,
				}
			}

			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			blobs, err := openBlobs(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			res, err := mutate.IngestFiles(db, topicID, incoming)
			if err != nil {
				return writeErr(cmd, err)
			}
			for i, meta := range res.Files {
				if err := blobs.Put(meta.ID, payloads[i]); err != nil {
					if errors.Is(err, blob.ErrCapacity) {
						warn(cmd, "blob store capacity exceeded at %s; metadata kept without content", meta.Name)
						meta.HasBlob = false
						continue
					}
					return writeErr(cmd, err)
				}
			}

			saveDB(cmd, s, db)
			_ = s.AppendEvent("file.ingest", topicID, res.EventPayload)
			return writeOut(cmd, app, map[string]any{
				"topicId": res.Topic.ID,
				"added":   len(res.Files),
				"rows":    len(res.Topic.Files),
			})
		},
	}
	return cmd
}

func newFilesDetachCmd(app *App) *cobra.Command {
	var slot string

	cmd := &cobra.Command{
		Use:   "detach <topic-id> <row-id>",
		Short: "Clear a row slot and release its stored content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFileKind(slot)
			if err != nil {
				return writeErr(cmd, err)
			}
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			blobs, err := openBlobs(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, released, err := mutate.ClearRowFile(db, args[0], args[1], kind)
			if err != nil {
				return writeErr(cmd, err)
			}
			if res.Changed {
				saveDB(cmd, s, db)
				if released != "" {
					releaseBlobs(cmd, blobs, []string{released})
				}
				_ = s.AppendEvent("file.detach", args[1], res.EventPayload)
			}
			return writeOut(cmd, app, summarizeRow(*res.Row))
		},
	}

	cmd.Flags().StringVar(&slot, "slot", "question", "Row slot (question|answer)")
	return cmd
}

func newFilesExportCmd(app *App) *cobra.Command {
	var slot string
	var out string

	cmd := &cobra.Command{
		Use:   "export <topic-id> <row-id>",
		Short: "Write a row's stored file content to disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFileKind(slot)
			if err != nil {
				return writeErr(cmd, err)
			}
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, r, ok := db.FindRow(args[0], args[1])
			if !ok || r == nil {
				return writeErr(cmd, errNotFound("row", args[1]))
			}
			meta := r.QuestionFile
			if kind == model.FileKindAnswer {
				meta = r.AnswerFile
			}
			if meta == nil {
				return writeErr(cmd, fmt.Errorf("row %s has no %s file", args[1], kind))
			}

			blobs, err := openBlobs(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			data, err := blobs.Get(meta.ID)
			if err != nil {
				if errors.Is(err, blob.ErrNotFound) {
					return writeErr(cmd, fmt.Errorf("content not found for %s (%s)", meta.Name, meta.ID))
				}
				return writeErr(cmd, err)
			}

			dest := strings.TrimSpace(out)
			if dest == "" {
				dest = meta.Name
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"path":  dest,
				"name":  meta.Name,
				"bytes": len(data),
			})
		},
	}

	cmd.Flags().StringVar(&slot, "slot", "question", "Row slot (question|answer)")
	cmd.Flags().StringVar(&out, "out", "", "Destination path (default: the stored file name)")
	return cmd
}
