package mutate

import (
	"errors"
	"strings"
	"time"

	"examshelf/internal/model"
	"examshelf/internal/store"
)

var ErrInvalidColorTag = errors.New("invalid color tag")

type ShelfResult struct {
	Shelf        *model.Shelf
	Changed      bool
	EventPayload map[string]any
}

// DeleteResult carries the ids of blob payloads released by a delete
// cascade. The caller removes them from the blob store (soft-failing);
// the document mutation itself never touches storage.
type DeleteResult struct {
	ReleasedFileIDs []string
	EventPayload    map[string]any
}

// AddShelf appends a new shelf with an empty topic list and makes it the
// current selection.
func AddShelf(db *store.DB, name string, colorTag model.ColorTag) (ShelfResult, error) {
	name = strings.TrimSpace(name)
	if db == nil || name == "" {
		return ShelfResult{}, errors.New("missing shelf name")
	}
	if colorTag == "" {
		colorTag = model.ColorBlue
	}
	if !model.ValidColorTag(colorTag) {
		return ShelfResult{}, ErrInvalidColorTag
	}

	sh := model.Shelf{
		ID:        (store.Store{}).NextID(db, "shelf"),
		Name:      name,
		ColorTag:  colorTag,
		CreatedAt: time.Now().UTC(),
		Topics:    []model.Topic{},
	}
	db.Shelves = append(db.Shelves, sh)
	db.CurrentShelfID = sh.ID

	created, _ := db.FindShelf(sh.ID)
	return ShelfResult{
		Shelf:        created,
		Changed:      true,
		EventPayload: map[string]any{"name": sh.Name, "colorTag": string(sh.ColorTag)},
	}, nil
}

func RenameShelf(db *store.DB, shelfID, name string) (ShelfResult, error) {
	shelfID = strings.TrimSpace(shelfID)
	name = strings.TrimSpace(name)
	if db == nil || shelfID == "" || name == "" {
		return ShelfResult{}, errors.New("missing shelf id or name")
	}
	sh, ok := db.FindShelf(shelfID)
	if !ok {
		return ShelfResult{}, NotFoundError{Kind: "shelf", ID: shelfID}
	}
	if sh.Name == name {
		return ShelfResult{Shelf: sh, Changed: false}, nil
	}
	prev := sh.Name
	sh.Name = name
	return ShelfResult{
		Shelf:        sh,
		Changed:      true,
		EventPayload: map[string]any{"from": prev, "to": name},
	}, nil
}

func SetShelfColor(db *store.DB, shelfID string, colorTag model.ColorTag) (ShelfResult, error) {
	shelfID = strings.TrimSpace(shelfID)
	if db == nil || shelfID == "" {
		return ShelfResult{}, errors.New("missing shelf id")
	}
	if !model.ValidColorTag(colorTag) {
		return ShelfResult{}, ErrInvalidColorTag
	}
	sh, ok := db.FindShelf(shelfID)
	if !ok {
		return ShelfResult{}, NotFoundError{Kind: "shelf", ID: shelfID}
	}
	if sh.ColorTag == colorTag {
		return ShelfResult{Shelf: sh, Changed: false}, nil
	}
	prev := sh.ColorTag
	sh.ColorTag = colorTag
	return ShelfResult{
		Shelf:        sh,
		Changed:      true,
		EventPayload: map[string]any{"from": string(prev), "to": string(colorTag)},
	}, nil
}

// DeleteShelf removes the shelf and reports every blob id held beneath it so
// the caller can release the payloads.
func DeleteShelf(db *store.DB, shelfID string) (DeleteResult, error) {
	shelfID = strings.TrimSpace(shelfID)
	if db == nil || shelfID == "" {
		return DeleteResult{}, errors.New("missing shelf id")
	}
	idx := -1
	for i := range db.Shelves {
		if db.Shelves[i].ID == shelfID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return DeleteResult{}, NotFoundError{Kind: "shelf", ID: shelfID}
	}

	released := db.Shelves[idx].FileIDs()
	name := db.Shelves[idx].Name
	db.Shelves = append(db.Shelves[:idx], db.Shelves[idx+1:]...)

	if db.CurrentShelfID == shelfID {
		db.CurrentShelfID = ""
		if len(db.Shelves) > 0 {
			db.CurrentShelfID = db.Shelves[0].ID
		}
	}

	return DeleteResult{
		ReleasedFileIDs: released,
		EventPayload: map[string]any{
			"name":          name,
			"releasedBlobs": len(released),
		},
	}, nil
}

// UseShelf makes the shelf the current selection.
func UseShelf(db *store.DB, shelfID string) (ShelfResult, error) {
	shelfID = strings.TrimSpace(shelfID)
	if db == nil || shelfID == "" {
		return ShelfResult{}, errors.New("missing shelf id")
	}
	sh, ok := db.FindShelf(shelfID)
	if !ok {
		return ShelfResult{}, NotFoundError{Kind: "shelf", ID: shelfID}
	}
	changed := db.CurrentShelfID != shelfID
	db.CurrentShelfID = shelfID
	return ShelfResult{Shelf: sh, Changed: changed, EventPayload: map[string]any{"name": sh.Name}}, nil
}
