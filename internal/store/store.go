// Package store is the document-store access layer. Opportunities live in
// per-category partitions; previews are served across partitions while the
// authoritative record (with milestones) is fetched per (id, partition).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnlocal/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// selectCols is the shared column list; verification is joined in from the
// owning organization so downstream code only ever sees the canonical flag.
const selectCols = `o.id, o.partition, o.title, o.summary, o.description_html, o.category,
	o.organization_id, COALESCE(org.name, ''), COALESCE(org.verification_status, ''),
	o.latitude, o.longitude, o.address, o.deadline_at, o.date_milestones,
	o.external_url, o.created_at, o.updated_at`

const fromClause = `FROM opportunities o
	LEFT JOIN organizations org ON org.id = o.organization_id`

func scanOpportunity(scan func(dest ...interface{}) error) (models.Opportunity, error) {
	var o models.Opportunity
	var deadlineAt *time.Time
	var milestonesRaw []byte
	var createdAt, updatedAt time.Time

	err := scan(
		&o.ID, &o.Partition, &o.Title, &o.Summary, &o.Description, &o.Category,
		&o.OrganizationID, &o.OrganizationName, &o.VerificationStatus,
		&o.Latitude, &o.Longitude, &o.Address, &deadlineAt, &milestonesRaw,
		&o.ExternalURL, &createdAt, &updatedAt,
	)
	if err != nil {
		return o, err
	}

	o.CreatedAt = models.NewTimestamp(createdAt)
	o.UpdatedAt = &updatedAt
	if deadlineAt != nil {
		ts := models.NewTimestamp(*deadlineAt)
		o.Deadline = &ts
	}
	if len(milestonesRaw) > 0 {
		// Milestone dates come back in whatever encoding the writing client
		// used; the Timestamp decoder absorbs all of them. A corrupt payload
		// degrades to no milestones, not a failed scan.
		_ = json.Unmarshal(milestonesRaw, &o.DateMilestones)
	}

	return o, nil
}

// ListActiveOpportunities returns the current preview set across all
// partitions, newest first.
func (s *Store) ListActiveOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	sql := fmt.Sprintf("SELECT %s %s WHERE o.active ORDER BY o.created_at DESC", selectCols, fromClause)
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list iteration failed: %w", err)
	}

	if opps == nil {
		opps = []models.Opportunity{}
	}
	return opps, nil
}

// GetOpportunityDetails fetches the authoritative record from its partition.
// Returns ErrNotFound when the record does not exist.
func (s *Store) GetOpportunityDetails(ctx context.Context, id uuid.UUID, partition string) (*models.Opportunity, error) {
	sql := fmt.Sprintf("SELECT %s %s WHERE o.id = $1 AND o.partition = $2", selectCols, fromClause)
	row := s.pool.QueryRow(ctx, sql, id, partition)

	o, err := scanOpportunity(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("detail query failed: %w", err)
	}
	return &o, nil
}

// SaveOpportunity upserts an organization-submitted listing into its
// partition. Milestones are stored as-is; deadline_at mirrors the single
// deadline field when it resolves.
func (s *Store) SaveOpportunity(ctx context.Context, opp models.Opportunity) (uuid.UUID, error) {
	if opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}

	milestonesJSON, err := json.Marshal(opp.DateMilestones)
	if err != nil {
		milestonesJSON = []byte("[]")
	}

	var deadlineAt *time.Time
	if opp.Deadline != nil {
		if t, ok := opp.Deadline.Resolve(); ok {
			deadlineAt = &t
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO opportunities (
			id, partition, title, summary, description_html, category,
			organization_id, latitude, longitude, address,
			deadline_at, date_milestones, external_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13)
		ON CONFLICT (partition, id) DO UPDATE SET
			updated_at = NOW(),
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			description_html = EXCLUDED.description_html,
			category = EXCLUDED.category,
			latitude = COALESCE(EXCLUDED.latitude, opportunities.latitude),
			longitude = COALESCE(EXCLUDED.longitude, opportunities.longitude),
			address = EXCLUDED.address,
			deadline_at = COALESCE(EXCLUDED.deadline_at, opportunities.deadline_at),
			date_milestones = EXCLUDED.date_milestones,
			external_url = EXCLUDED.external_url
	`, opp.ID, opp.Partition, opp.Title, opp.Summary, opp.Description, opp.Category,
		opp.OrganizationID, opp.Latitude, opp.Longitude, opp.Address,
		deadlineAt, string(milestonesJSON), opp.ExternalURL,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save failed: %w", err)
	}
	return opp.ID, nil
}

// ListNearby returns active records within radiusKm of a point, closest
// first, using a haversine distance computed in SQL.
func (s *Store) ListNearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.Opportunity, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	sql := fmt.Sprintf(`
		SELECT %s %s
		WHERE o.active AND o.latitude IS NOT NULL AND o.longitude IS NOT NULL
		  AND (6371 * acos(LEAST(1.0,
				cos(radians($1)) * cos(radians(o.latitude)) * cos(radians(o.longitude) - radians($2))
				+ sin(radians($1)) * sin(radians(o.latitude))
			))) <= $3
		ORDER BY (6371 * acos(LEAST(1.0,
				cos(radians($1)) * cos(radians(o.latitude)) * cos(radians(o.longitude) - radians($2))
				+ sin(radians($1)) * sin(radians(o.latitude))
			))) ASC
		LIMIT $4
	`, selectCols, fromClause)

	rows, err := s.pool.Query(ctx, sql, lat, lng, radiusKm, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby query failed: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("nearby scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nearby iteration failed: %w", err)
	}

	if opps == nil {
		opps = []models.Opportunity{}
	}
	return opps, nil
}

func (s *Store) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities WHERE active").Scan(&total)
	stats["total"] = total

	partitionCounts := map[string]int{}
	rows, err := s.pool.Query(ctx, "SELECT partition, COUNT(*) FROM opportunities WHERE active GROUP BY partition")
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var partition string
			var count int
			if scanErr := rows.Scan(&partition, &count); scanErr == nil {
				partitionCounts[partition] = count
			}
		}
	}
	stats["partition_counts"] = partitionCounts

	var verifiedOrgs int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM organizations WHERE verification_status = 'verified'").Scan(&verifiedOrgs)
	stats["verified_organizations"] = verifiedOrgs

	var bookmarks int
	s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bookmarks").Scan(&bookmarks)
	stats["bookmarks"] = bookmarks

	return stats, nil
}
