package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/learnlocal/backend/internal/db"
	"github.com/learnlocal/backend/internal/deadline"
	"github.com/learnlocal/backend/internal/store"
)

// deadline_audit prints every active opportunity with its resolved deadline
// and the source the resolver picked, so bad upstream dates are easy to spot.
func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	st := store.NewStore(pool)
	records, err := st.ListActiveOpportunities(ctx)
	if err != nil {
		log.Fatal(err)
	}

	now := time.Now().UTC()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Partition", "Title", "Category", "Resolved Deadline", "Source", "Milestones"})

	fallbacks := 0
	for _, opp := range records {
		resolved, source := deadline.ResolveEarliestWithSource(opp, now)
		if source != deadline.SourceMilestone && source != deadline.SourceDeadline {
			fallbacks++
		}

		title := opp.Title
		if len(title) > 48 {
			title = title[:45] + "..."
		}

		t.AppendRow(table.Row{opp.Partition, title, opp.Category, resolved.Format("2006-01-02"), source, len(opp.DateMilestones)})
	}
	t.Render()

	log.Printf("%d records, %d resolved via fallback", len(records), fallbacks)
}
