// Package rank produces the user-visible ordered, filtered opportunity list
// from the raw collection plus the current selection state (category filter,
// sort key, saved-only toggle).
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/learnlocal/backend/internal/models"
)

// Special category selections.
const (
	SelectionAll   = "all"
	SelectionSaved = "saved"
)

// Sort keys.
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortDeadlineSoon = "deadline-soon"
	SortDeadlineFar  = "deadline-far"
)

// BookmarkKey identifies a bookmarked record. Ids are only unique within a
// partition, so both parts participate in the match.
type BookmarkKey struct {
	ID        uuid.UUID
	Partition string
}

// BookmarkSet is the user's saved (id, partition) pairs.
type BookmarkSet map[BookmarkKey]struct{}

// Resolver maps a record to its deadline for deadline-based sorting.
// Typically deadline.ResolveEarliest or a cache lookup.
type Resolver func(models.Opportunity) time.Time

// Filter narrows records by the selected category and bookmark state.
//
//   - Records whose category normalizes to "resources" never appear; they
//     have their own browsing surface.
//   - "saved" returns exactly the bookmarked (id, partition) set.
//   - "all" passes every non-resource record.
//   - Anything else matches the category case-insensitively.
//
// In every mode, records without a verified organization are excluded.
func Filter(records []models.Opportunity, selectedCategory string, saved BookmarkSet) []models.Opportunity {
	selected := strings.ToLower(strings.TrimSpace(selectedCategory))
	out := make([]models.Opportunity, 0, len(records))

	for _, r := range records {
		if isResources(r.Category) {
			continue
		}
		if !r.Verified() {
			continue
		}

		switch selected {
		case SelectionSaved:
			if _, ok := saved[BookmarkKey{ID: r.ID, Partition: r.Partition}]; !ok {
				continue
			}
		case SelectionAll, "":
			// pass through
		default:
			if !strings.EqualFold(strings.TrimSpace(r.Category), selected) {
				continue
			}
		}

		out = append(out, r)
	}

	return out
}

func isResources(category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), "resources")
}

// Sort orders records by the given key. The sort is stable; records with an
// unparseable createdAt sort as epoch 0.
func Sort(records []models.Opportunity, key string, resolve Resolver) []models.Opportunity {
	out := make([]models.Opportunity, len(records))
	copy(out, records)

	switch key {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return createdAt(out[i]).Before(createdAt(out[j]))
		})
	case SortDeadlineSoon:
		sort.SliceStable(out, func(i, j int) bool {
			return resolve(out[i]).Before(resolve(out[j]))
		})
	case SortDeadlineFar:
		sort.SliceStable(out, func(i, j int) bool {
			return resolve(out[j]).Before(resolve(out[i]))
		})
	default: // SortNewest
		sort.SliceStable(out, func(i, j int) bool {
			return createdAt(out[j]).Before(createdAt(out[i]))
		})
	}

	return out
}

func createdAt(o models.Opportunity) time.Time {
	if t, ok := o.CreatedAt.Resolve(); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}

// Displayed composes Filter then Sort. With the "saved" selection the filter
// step already narrows to exactly the bookmarked set, which is then sorted
// directly.
func Displayed(records []models.Opportunity, selectedCategory string, saved BookmarkSet, sortKey string, resolve Resolver) []models.Opportunity {
	return Sort(Filter(records, selectedCategory, saved), sortKey, resolve)
}
