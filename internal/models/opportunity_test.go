package models

import (
	"encoding/json"
	"testing"
)

func TestNormalize_VerificationPathPrecedence(t *testing.T) {
	payload := `{
		"id": "7b7c0b3e-5f9a-4d2a-9a49-30d5f2f9a111",
		"title": "Robotics Bootcamp",
		"category": "Workshop / Seminar",
		"organizationProfile": {"name": "MakerSpace", "verificationStatus": "verified"},
		"organizationVerificationStatus": "pending",
		"organization": {"name": "Other", "verificationStatus": "rejected"}
	}`

	var raw RawRecord
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatal(err)
	}

	opp := Normalize(raw)
	if opp.VerificationStatus != VerificationVerified {
		t.Fatalf("expected organizationProfile path to win, got %q", opp.VerificationStatus)
	}
	if !opp.Verified() {
		t.Fatal("expected Verified()=true")
	}
	if opp.OrganizationName != "MakerSpace" {
		t.Fatalf("expected profile name, got %q", opp.OrganizationName)
	}
}

func TestNormalize_FallbackPaths(t *testing.T) {
	var raw RawRecord
	if err := json.Unmarshal([]byte(`{"organizationVerificationStatus": "verified"}`), &raw); err != nil {
		t.Fatal(err)
	}
	if got := Normalize(raw).VerificationStatus; got != VerificationVerified {
		t.Fatalf("expected flat path, got %q", got)
	}

	raw = RawRecord{}
	if err := json.Unmarshal([]byte(`{"organization": {"verificationStatus": "pending"}}`), &raw); err != nil {
		t.Fatal(err)
	}
	if got := Normalize(raw).VerificationStatus; got != VerificationPending {
		t.Fatalf("expected nested organization path, got %q", got)
	}
}

func TestNormalize_NoVerificationIsUnverified(t *testing.T) {
	opp := Normalize(RawRecord{Title: "Untracked"})
	if opp.VerificationStatus != "" {
		t.Fatalf("expected empty status, got %q", opp.VerificationStatus)
	}
	if opp.Verified() {
		t.Fatal("records without verification info must not count as verified")
	}
}

func TestNormalize_LegacyTypeAlias(t *testing.T) {
	opp := Normalize(RawRecord{Type: "Competition / Event"})
	if opp.Category != CategoryCompetition {
		t.Fatalf("expected legacy type alias to fill category, got %q", opp.Category)
	}

	opp = Normalize(RawRecord{Category: "Study Spot", Type: "Resources"})
	if opp.Category != CategoryStudySpot {
		t.Fatalf("explicit category must win over alias, got %q", opp.Category)
	}
}

func TestNormalize_MalformedIDDoesNotError(t *testing.T) {
	opp := Normalize(RawRecord{ID: "not-a-uuid", Title: "Broken"})
	if opp.ID.String() != "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected nil uuid, got %s", opp.ID)
	}
	if opp.Title != "Broken" {
		t.Fatal("other fields should survive a bad id")
	}
}
