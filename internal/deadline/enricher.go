package deadline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/learnlocal/backend/internal/catalog"
	"github.com/learnlocal/backend/internal/models"
)

// WarmBatchSize bounds the number of in-flight detail fetches while warming
// a cache. Batches run strictly in sequence; fetches within a batch run
// concurrently.
const WarmBatchSize = 5

// DetailFetcher retrieves the authoritative full record from its backing
// partition. A nil record or an error both mean "no enrichment available".
type DetailFetcher interface {
	GetOpportunityDetails(ctx context.Context, id uuid.UUID, partition string) (*models.Opportunity, error)
}

// Cache maps record id to its resolved deadline. It is owned by the caller
// (one per list request/screen), never shared or persisted.
type Cache map[uuid.UUID]time.Time

// Enricher resolves deadlines from authoritative records when the preview
// lacks milestone detail.
type Enricher struct {
	fetcher DetailFetcher
}

func NewEnricher(fetcher DetailFetcher) *Enricher {
	return &Enricher{fetcher: fetcher}
}

// ResolveFromFullData resolves a record's deadline, fetching the full record
// from its partition when the preview has no milestones. Every failure path
// degrades to resolving the preview locally; the caller always gets a date.
func (e *Enricher) ResolveFromFullData(ctx context.Context, opp models.Opportunity, now time.Time) time.Time {
	if len(opp.DateMilestones) > 0 {
		return ResolveEarliest(opp, now)
	}

	partition := opp.Partition
	if partition == "" {
		partition = catalog.PartitionFor(opp.Category)
	}

	// Generic-partition records are already authoritative; skip the round trip.
	if e.fetcher == nil || opp.ID == uuid.Nil || catalog.IsGenericPartition(partition) {
		return ResolveEarliest(opp, now)
	}

	full, err := e.fetcher.GetOpportunityDetails(ctx, opp.ID, partition)
	if err != nil {
		log.Printf("deadline: detail fetch failed for %s/%s: %v", partition, opp.ID, err)
		return ResolveEarliest(opp, now)
	}
	if full == nil || len(full.DateMilestones) == 0 {
		return ResolveEarliest(opp, now)
	}
	return ResolveEarliest(*full, now)
}

// WarmCache populates cache with a resolved deadline for every record, in
// batches of WarmBatchSize. Batch results are collected before the cache is
// written, so the map is only ever touched by the calling goroutine.
func (e *Enricher) WarmCache(ctx context.Context, records []models.Opportunity, cache Cache, now time.Time) {
	for start := 0; start < len(records); start += WarmBatchSize {
		end := start + WarmBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		resolved := make([]time.Time, len(batch))

		var wg sync.WaitGroup
		for i, opp := range batch {
			wg.Add(1)
			go func(i int, opp models.Opportunity) {
				defer wg.Done()
				resolved[i] = e.ResolveFromFullData(ctx, opp, now)
			}(i, opp)
		}
		wg.Wait()

		for i, opp := range batch {
			cache[opp.ID] = resolved[i]
		}
	}
}

// FromCache returns the cached deadline for a record, resolving locally on a
// miss so callers never see a zero time.
func (e *Enricher) FromCache(cache Cache, opp models.Opportunity, now time.Time) time.Time {
	if t, ok := cache[opp.ID]; ok {
		return t
	}
	return ResolveEarliest(opp, now)
}
