// Package ingest cleans organization-submitted listings before they are
// stored: HTML is sanitized, titles and summaries are reduced to plain text,
// and invalid UTF-8 is scrubbed.
package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/learnlocal/backend/internal/models"
)

const summaryMaxLen = 280

// SanitizeListing normalizes a submitted listing in place.
func SanitizeListing(opp *models.Opportunity) {
	opp.Title = sanitizeUTF8(HTMLToText(opp.Title))
	opp.Summary = sanitizeUTF8(HTMLToText(opp.Summary))
	opp.Description = sanitizeHTML(sanitizeUTF8(opp.Description))
	opp.Address = cleanText(opp.Address)
	opp.OrganizationName = cleanText(opp.OrganizationName)

	// Derive a summary from the description when none was submitted.
	if strings.TrimSpace(opp.Summary) == "" && strings.TrimSpace(opp.Description) != "" {
		opp.Summary = TruncateText(HTMLToText(opp.Description), summaryMaxLen)
	}

	// Drop milestones whose label is empty after cleanup; an unparseable
	// date is kept (the resolver skips it), but a nameless milestone is
	// meaningless to display.
	kept := opp.DateMilestones[:0]
	for _, m := range opp.DateMilestones {
		m.Name = cleanText(sanitizeUTF8(m.Name))
		if m.Name == "" {
			continue
		}
		kept = append(kept, m)
	}
	opp.DateMilestones = kept
}

// TruncateText cuts a string to max length, appending ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return text[:maxLen-3] + "..."
	}
	return text[:maxLen]
}

// HTMLToText converts HTML to plain text, collapsing whitespace.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return cleanText(doc.Text())
}

// cleanText collapses runs of whitespace and trims the string.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sanitizeUTF8 removes invalid UTF-8 byte sequences that would be rejected
// by the database.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// sanitizeHTML strips unsafe tags and attributes (scripts, iframes) while
// keeping user content markup.
func sanitizeHTML(s string) string {
	p := bluemonday.UGCPolicy()
	return p.Sanitize(s)
}
