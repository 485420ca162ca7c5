// Package catalog holds the category tree rules: placement under a parent,
// cycle detection and descendant path recomputation.
package catalog

import (
	"errors"
	"regexp"
	"slices"

	"github.com/dukerupert/eventory/internal/model"
)

var (
	ErrSelfParent = errors.New("category cannot be its own parent")
	ErrCycle      = errors.New("category cannot be moved under its own descendant")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is lowercase alphanumeric words joined by
// single hyphens.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// PlacementUnder returns the placement of a category whose parent is parent.
// A nil parent places the category at the root.
func PlacementUnder(parent *model.Category) model.Placement {
	if parent == nil {
		return model.Placement{Path: []string{}}
	}
	id := parent.ID
	path := make([]string, 0, len(parent.Path)+1)
	path = append(path, parent.Path...)
	path = append(path, parent.ID)
	return model.Placement{ParentID: &id, Level: parent.Level + 1, Path: path}
}

// CheckParent rejects moving category id under parent when that would make
// the category its own ancestor.
func CheckParent(id string, parent *model.Category) error {
	if parent == nil {
		return nil
	}
	if parent.ID == id {
		return ErrSelfParent
	}
	if slices.Contains(parent.Path, id) {
		return ErrCycle
	}
	return nil
}

// Move is a recomputed placement for one category.
type Move struct {
	ID        string
	Placement model.Placement
}

// Rebase recomputes the placement of every descendant of movedID after the
// moved category takes the placement moved. Descendants carry their paths
// from before the move; entries that do not have movedID as an ancestor are
// skipped.
func Rebase(movedID string, moved model.Placement, descendants []model.Category) []Move {
	prefix := make([]string, 0, len(moved.Path)+1)
	prefix = append(prefix, moved.Path...)
	prefix = append(prefix, movedID)

	var moves []Move
	for _, d := range descendants {
		i := slices.Index(d.Path, movedID)
		if i < 0 {
			continue
		}
		path := make([]string, 0, len(prefix)+len(d.Path)-i-1)
		path = append(path, prefix...)
		path = append(path, d.Path[i+1:]...)
		moves = append(moves, Move{
			ID: d.ID,
			Placement: model.Placement{
				ParentID: d.ParentID,
				Level:    len(path),
				Path:     path,
			},
		})
	}
	return moves
}
