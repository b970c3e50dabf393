package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/learnlocal/backend/internal/models"
)

func TestSanitizeListing_StripsMarkupFromTitle(t *testing.T) {
	opp := models.Opportunity{
		Title:   "<b>STEM   Scholarship</b>",
		Summary: "<p>Open to all <em>undergraduates</em></p>",
	}
	SanitizeListing(&opp)

	if opp.Title != "STEM Scholarship" {
		t.Fatalf("expected plain title, got %q", opp.Title)
	}
	if strings.Contains(opp.Summary, "<") {
		t.Fatalf("summary still contains markup: %q", opp.Summary)
	}
}

func TestSanitizeListing_DescriptionDropsScripts(t *testing.T) {
	opp := models.Opportunity{
		Description: `<p>Apply now</p><script>alert("x")</script>`,
	}
	SanitizeListing(&opp)

	if strings.Contains(opp.Description, "script") {
		t.Fatalf("script survived sanitization: %q", opp.Description)
	}
	if !strings.Contains(opp.Description, "Apply now") {
		t.Fatalf("content lost: %q", opp.Description)
	}
}

func TestSanitizeListing_DerivesSummaryFromDescription(t *testing.T) {
	opp := models.Opportunity{
		Description: "<p>" + strings.Repeat("word ", 100) + "</p>",
	}
	SanitizeListing(&opp)

	if opp.Summary == "" {
		t.Fatal("expected summary derived from description")
	}
	if len(opp.Summary) > 280 {
		t.Fatalf("summary too long: %d", len(opp.Summary))
	}
	if !strings.HasSuffix(opp.Summary, "...") {
		t.Fatalf("expected truncation ellipsis, got %q", opp.Summary)
	}
}

func TestSanitizeListing_DropsNamelessMilestones(t *testing.T) {
	opp := models.Opportunity{
		DateMilestones: []models.Milestone{
			{Name: "  ", Date: models.NewTimestamp(time.Now())},
			{Name: "<b>Submission</b> Deadline", Date: models.Timestamp{}},
		},
	}
	SanitizeListing(&opp)

	if len(opp.DateMilestones) != 1 {
		t.Fatalf("expected 1 milestone, got %d", len(opp.DateMilestones))
	}
	// Markup in milestone names is not interpreted, but whitespace is cleaned
	// and the unparseable date survives for the resolver to skip.
	if opp.DateMilestones[0].Name == "" {
		t.Fatal("kept milestone lost its name")
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("short", 10); got != "short" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	if got := TruncateText("abcdefghij", 8); got != "abcde..." {
		t.Fatalf("expected abcde..., got %q", got)
	}
	if len(TruncateText("abcdefghij", 8)) != 8 {
		t.Fatal("truncated string exceeds max length")
	}
}

func TestHTMLToText_CollapsesWhitespace(t *testing.T) {
	got := HTMLToText("<div>one\n\n  two <span>three</span></div>")
	if got != "one two three" {
		t.Fatalf("unexpected text: %q", got)
	}
}
