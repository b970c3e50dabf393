package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category labels as displayed in the app. These are fixed; filtering and
// partition routing key off them.
const (
	CategoryScholarship = "Scholarship / Grant"
	CategoryWorkshop    = "Workshop / Seminar"
	CategoryCompetition = "Competition / Event"
	CategoryStudySpot   = "Study Spot"
	CategoryResources   = "Resources"
)

// Verification status values for organizations.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Milestone is a named, dated sub-event within an opportunity, e.g.
// "Application Opens" or "Submission Deadline".
type Milestone struct {
	Name string    `json:"name"`
	Date Timestamp `json:"date"`
}

// UnmarshalJSON accepts both `name` and the legacy `description` key for the
// milestone label.
func (m *Milestone) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Date        Timestamp `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Name = raw.Name
	if m.Name == "" {
		m.Name = raw.Description
	}
	m.Date = raw.Date
	return nil
}

// Opportunity is the canonical record every downstream component operates on.
// Wire records arrive in a duck-typed shape (see RawRecord); normalization
// happens once, immediately after decode.
type Opportunity struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Partition   string    `json:"partition"`

	OrganizationID   *uuid.UUID `json:"organization_id"`
	OrganizationName string     `json:"organization_name"`
	// VerificationStatus is the normalized organization verification flag.
	// Empty means no path was populated; such records are treated as
	// unverified everywhere.
	VerificationStatus string `json:"verification_status"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`

	CreatedAt      Timestamp   `json:"created_at"`
	UpdatedAt      *time.Time  `json:"updated_at"`
	Deadline       *Timestamp  `json:"deadline"`
	DateMilestones []Milestone `json:"date_milestones"`

	ExternalURL string `json:"external_url"`
}

// Verified reports whether the record's organization passed verification.
func (o Opportunity) Verified() bool {
	return o.VerificationStatus == VerificationVerified
}

// RawRecord is the wire shape of an opportunity as the document API emits it.
// Organization verification can arrive under three alternate nesting paths and
// the category under a legacy `type` alias; Normalize is the only place those
// variants are consulted.
type RawRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        string `json:"type"` // legacy category alias
	Partition   string `json:"partition"`

	CreatedAt      Timestamp   `json:"createdAt"`
	Deadline       *Timestamp  `json:"deadline"`
	DateMilestones []Milestone `json:"dateMilestones"`

	OrganizationProfile *struct {
		Name               string `json:"name"`
		VerificationStatus string `json:"verificationStatus"`
	} `json:"organizationProfile"`
	OrganizationVerificationStatus string `json:"organizationVerificationStatus"`
	Organization                   *struct {
		Name               string `json:"name"`
		VerificationStatus string `json:"verificationStatus"`
	} `json:"organization"`
	OrganizationName string `json:"organizationName"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`

	ExternalURL string `json:"externalUrl"`
}

// Normalize collapses a wire record into the canonical Opportunity shape.
// Verification is read from the first populated alternate path; category
// falls back to the legacy alias. A malformed id yields a nil UUID rather
// than an error so a single corrupt record never breaks a list decode.
func Normalize(raw RawRecord) Opportunity {
	o := Opportunity{
		Title:          strings.TrimSpace(raw.Title),
		Summary:        strings.TrimSpace(raw.Summary),
		Description:    raw.Description,
		Category:       strings.TrimSpace(raw.Category),
		Partition:      strings.TrimSpace(raw.Partition),
		CreatedAt:      raw.CreatedAt,
		Deadline:       raw.Deadline,
		DateMilestones: raw.DateMilestones,
		Latitude:       raw.Latitude,
		Longitude:      raw.Longitude,
		Address:        strings.TrimSpace(raw.Address),
		ExternalURL:    raw.ExternalURL,
	}

	if id, err := uuid.Parse(raw.ID); err == nil {
		o.ID = id
	}
	if o.Category == "" {
		o.Category = strings.TrimSpace(raw.Type)
	}

	// First populated verification path wins.
	switch {
	case raw.OrganizationProfile != nil && raw.OrganizationProfile.VerificationStatus != "":
		o.VerificationStatus = raw.OrganizationProfile.VerificationStatus
	case raw.OrganizationVerificationStatus != "":
		o.VerificationStatus = raw.OrganizationVerificationStatus
	case raw.Organization != nil && raw.Organization.VerificationStatus != "":
		o.VerificationStatus = raw.Organization.VerificationStatus
	}

	switch {
	case raw.OrganizationName != "":
		o.OrganizationName = raw.OrganizationName
	case raw.OrganizationProfile != nil:
		o.OrganizationName = raw.OrganizationProfile.Name
	case raw.Organization != nil:
		o.OrganizationName = raw.Organization.Name
	}

	return o
}
