// Package deadline computes the single canonical "earliest actionable
// deadline" for an opportunity record. Resolution is total: every record
// yields a date, falling back to createdAt+30d and finally to now.
package deadline

import (
	"time"

	"github.com/learnlocal/backend/internal/models"
)

// FallbackOffset is added to createdAt when a record carries no milestones
// and no deadline.
const FallbackOffset = 30 * 24 * time.Hour

// ResolveEarliest returns the earliest relevant deadline for a record.
//
// Strategy, in order:
//  1. the earliest parseable milestone date (unparseable milestones are
//     skipped, first-encountered earliest wins on ties),
//  2. the record's single deadline field,
//  3. createdAt + 30 days, with createdAt defaulting to now if unusable.
//
// The function is pure over its inputs and never fails.
func ResolveEarliest(opp models.Opportunity, now time.Time) time.Time {
	if t, ok := earliestMilestone(opp.DateMilestones); ok {
		return t
	}

	if opp.Deadline != nil {
		if t, ok := opp.Deadline.Resolve(); ok {
			return t
		}
	}

	created := now
	if t, ok := opp.CreatedAt.Resolve(); ok {
		created = t
	}
	return created.Add(FallbackOffset)
}

func earliestMilestone(milestones []models.Milestone) (time.Time, bool) {
	var best time.Time
	found := false
	for _, m := range milestones {
		t, ok := m.Date.Resolve()
		if !ok {
			continue
		}
		if !found || t.Before(best) {
			best = t
			found = true
		}
	}
	return best, found
}

// Source identifies which fallback produced a resolved deadline. Used by the
// audit tool; ranking only needs the date itself.
type Source string

const (
	SourceMilestone Source = "milestone"
	SourceDeadline  Source = "deadline"
	SourceCreatedAt Source = "created_at+30d"
	SourceNow       Source = "now+30d"
)

// ResolveEarliestWithSource is ResolveEarliest plus the strategy that won.
func ResolveEarliestWithSource(opp models.Opportunity, now time.Time) (time.Time, Source) {
	if t, ok := earliestMilestone(opp.DateMilestones); ok {
		return t, SourceMilestone
	}
	if opp.Deadline != nil {
		if t, ok := opp.Deadline.Resolve(); ok {
			return t, SourceDeadline
		}
	}
	if t, ok := opp.CreatedAt.Resolve(); ok {
		return t.Add(FallbackOffset), SourceCreatedAt
	}
	return now.Add(FallbackOffset), SourceNow
}
