package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnlocal/backend/internal/models"
)

// BookmarkRef identifies a saved record. Ids are only unique within a
// partition, so the pair is the key.
type BookmarkRef struct {
	ID        uuid.UUID `json:"id"`
	Partition string    `json:"partition"`
}

func (s *Store) AddBookmark(ctx context.Context, userID, oppID uuid.UUID, partition string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookmarks (user_id, opportunity_id, partition)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, partition, opportunity_id) DO NOTHING
	`, userID, oppID, partition)
	return err
}

func (s *Store) RemoveBookmark(ctx context.Context, userID, oppID uuid.UUID, partition string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM bookmarks
		WHERE user_id = $1 AND opportunity_id = $2 AND partition = $3
	`, userID, oppID, partition)
	return err
}

// ListBookmarkRefs returns the user's saved (id, partition) pairs.
func (s *Store) ListBookmarkRefs(ctx context.Context, userID uuid.UUID) ([]BookmarkRef, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT opportunity_id, partition FROM bookmarks
		WHERE user_id = $1
		ORDER BY saved_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []BookmarkRef
	for rows.Next() {
		var ref BookmarkRef
		if err := rows.Scan(&ref.ID, &ref.Partition); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GetBookmarkedOpportunities returns the full preview records the user has
// saved, most recently saved first.
func (s *Store) GetBookmarkedOpportunities(ctx context.Context, userID uuid.UUID) ([]models.Opportunity, error) {
	sql := fmt.Sprintf(`
		SELECT %s %s
		JOIN bookmarks b ON b.opportunity_id = o.id AND b.partition = o.partition
		WHERE b.user_id = $1
		ORDER BY b.saved_at DESC
	`, selectCols, fromClause)

	rows, err := s.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("bookmarks query failed: %w", err)
	}
	defer rows.Close()

	var opps []models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("bookmarks scan failed: %w", err)
		}
		opps = append(opps, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookmarks iteration failed: %w", err)
	}

	if opps == nil {
		opps = []models.Opportunity{}
	}
	return opps, nil
}
