package store

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSelectCols_JoinVerificationAlwaysPresent(t *testing.T) {
	mustContain := []string{
		"COALESCE(org.verification_status, '')",
		"COALESCE(org.name, '')",
		"o.date_milestones",
		"o.deadline_at",
	}
	for _, token := range mustContain {
		if !strings.Contains(selectCols, token) {
			t.Fatalf("select columns missing %q", token)
		}
	}
	if !strings.Contains(fromClause, "LEFT JOIN organizations") {
		t.Fatalf("from clause must left-join organizations: %s", fromClause)
	}
}

// fakeRow replays canned scan values in column order.
type fakeRow struct {
	vals []interface{}
}

func (r fakeRow) scan(dest ...interface{}) error {
	for i, d := range dest {
		switch v := r.vals[i].(type) {
		case uuid.UUID:
			*d.(*uuid.UUID) = v
		case *uuid.UUID:
			*d.(**uuid.UUID) = v
		case string:
			*d.(*string) = v
		case *float64:
			*d.(**float64) = v
		case *time.Time:
			*d.(**time.Time) = v
		case time.Time:
			*d.(*time.Time) = v
		case []byte:
			*d.(*[]byte) = v
		case nil:
			// leave zero value
		}
	}
	return nil
}

func TestScanOpportunity_DecodesPolymorphicMilestones(t *testing.T) {
	id := uuid.New()
	created := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	milestones := []byte(`[
		{"name": "Apply", "date": "Nov 18, 2025"},
		{"description": "Legacy label", "date": {"_seconds": 1763424000, "_nanoseconds": 0}},
		{"name": "Broken", "date": "sometime"}
	]`)

	row := fakeRow{vals: []interface{}{
		id, "scholarships", "STEM Grant", "summary", "<p>desc</p>", "Scholarship / Grant",
		(*uuid.UUID)(nil), "Acme Org", "verified",
		(*float64)(nil), (*float64)(nil), "", (*time.Time)(nil), milestones,
		"https://example.org", created, created,
	}}

	o, err := scanOpportunity(row.scan)
	if err != nil {
		t.Fatal(err)
	}

	if o.ID != id || o.Partition != "scholarships" {
		t.Fatalf("identity fields wrong: %s %s", o.ID, o.Partition)
	}
	if !o.Verified() {
		t.Fatal("joined verification status should mark the record verified")
	}
	if got, ok := o.CreatedAt.Resolve(); !ok || !got.Equal(created) {
		t.Fatalf("createdAt wrong: %v %v", got, ok)
	}
	if len(o.DateMilestones) != 3 {
		t.Fatalf("expected 3 milestones, got %d", len(o.DateMilestones))
	}
	if o.DateMilestones[1].Name != "Legacy label" {
		t.Fatalf("legacy milestone label lost: %q", o.DateMilestones[1].Name)
	}
	if _, ok := o.DateMilestones[1].Date.Resolve(); !ok {
		t.Fatal("wrapper-encoded milestone date should resolve")
	}
	if _, ok := o.DateMilestones[2].Date.Resolve(); ok {
		t.Fatal("unparseable milestone date should stay unresolvable")
	}
}

func TestScanOpportunity_CorruptMilestonesDegradeToNone(t *testing.T) {
	created := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	row := fakeRow{vals: []interface{}{
		uuid.New(), "workshops", "Title", "", "", "Workshop / Seminar",
		(*uuid.UUID)(nil), "", "",
		(*float64)(nil), (*float64)(nil), "", (*time.Time)(nil), []byte("{not json"),
		"", created, created,
	}}

	o, err := scanOpportunity(row.scan)
	if err != nil {
		t.Fatalf("corrupt milestones must not fail the scan: %v", err)
	}
	if len(o.DateMilestones) != 0 {
		t.Fatalf("expected no milestones, got %d", len(o.DateMilestones))
	}
}
