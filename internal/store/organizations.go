package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/learnlocal/backend/internal/models"
)

const orgCols = `id, name, email, website, verification_status, created_at, updated_at`

func scanOrganization(scan func(dest ...interface{}) error) (models.Organization, error) {
	var org models.Organization
	err := scan(&org.ID, &org.Name, &org.Email, &org.Website, &org.VerificationStatus, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}

// CreateOrganization registers a provider profile for a user account.
// New organizations start as pending.
func (s *Store) CreateOrganization(ctx context.Context, userID uuid.UUID, name, email, website string) (*models.Organization, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO organizations (user_id, name, email, website)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, orgCols), userID, name, email, website)

	org, err := scanOrganization(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("create organization failed: %w", err)
	}
	return &org, nil
}

// GetOrganizationByUser fetches the organization owned by a user account.
func (s *Store) GetOrganizationByUser(ctx context.Context, userID uuid.UUID) (*models.Organization, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM organizations WHERE user_id = $1", orgCols), userID)

	org, err := scanOrganization(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// ListOrganizations returns organizations, optionally filtered by
// verification status ("" means all).
func (s *Store) ListOrganizations(ctx context.Context, status string) ([]models.Organization, error) {
	sql := fmt.Sprintf("SELECT %s FROM organizations", orgCols)
	var args []interface{}
	if status != "" {
		sql += " WHERE verification_status = $1"
		args = append(args, status)
	}
	sql += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows.Scan)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	return orgs, rows.Err()
}

// SetVerificationStatus transitions an organization's verification flag.
func (s *Store) SetVerificationStatus(ctx context.Context, orgID uuid.UUID, status string) error {
	switch status {
	case models.VerificationPending, models.VerificationVerified, models.VerificationRejected:
	default:
		return fmt.Errorf("invalid verification status %q", status)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE organizations SET verification_status = $1, updated_at = NOW() WHERE id = $2
	`, status, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
