package store

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32
// (lowercase, no padding). 40 bits of space is plenty for a single-user
// document.
func newRandomID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

func idExists(db *DB, id string) bool {
	for _, sh := range db.Shelves {
		if sh.ID == id {
			return true
		}
		for _, t := range sh.Topics {
			if t.ID == id {
				return true
			}
			for _, r := range t.Files {
				if r.ID == id {
					return true
				}
			}
		}
	}
	return false
}
