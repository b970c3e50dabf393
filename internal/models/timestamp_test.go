package models

import (
	"encoding/json"
	"testing"
	"time"
)

func mustDecode(t *testing.T, raw string) Timestamp {
	t.Helper()
	var ts Timestamp
	if err := json.Unmarshal([]byte(raw), &ts); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return ts
}

func TestTimestamp_WrapperObject(t *testing.T) {
	for _, raw := range []string{
		`{"_seconds": 1763424000, "_nanoseconds": 0}`,
		`{"seconds": 1763424000, "nanos": 0}`,
	} {
		ts := mustDecode(t, raw)
		got, ok := ts.Resolve()
		if !ok {
			t.Fatalf("%s: expected resolvable", raw)
		}
		expected := time.Unix(1763424000, 0).UTC()
		if !got.Equal(expected) {
			t.Fatalf("%s: expected %s, got %s", raw, expected, got)
		}
	}
}

func TestTimestamp_EpochSecondsVsMillis(t *testing.T) {
	secs := mustDecode(t, `1763424000`)
	millis := mustDecode(t, `1763424000000`)

	sGot, ok := secs.Resolve()
	if !ok {
		t.Fatal("seconds form should resolve")
	}
	mGot, ok := millis.Resolve()
	if !ok {
		t.Fatal("milliseconds form should resolve")
	}
	if !sGot.Equal(mGot) {
		t.Fatalf("seconds and millis of the same instant diverge: %s vs %s", sGot, mGot)
	}
	if sGot.Year() != 2025 {
		t.Fatalf("expected a 2025 instant, got %s", sGot)
	}
}

func TestTimestamp_StringFormsAgree(t *testing.T) {
	expected := time.Date(2025, time.November, 18, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		`"2025-11-18"`,
		`"Nov 18, 2025"`,
		`"November 18, 2025"`,
		`"November 18th, 2025"`,
		`"Apply by Nov 18, 2025 at noon"`,
	} {
		ts := mustDecode(t, raw)
		got, ok := ts.Resolve()
		if !ok {
			t.Fatalf("%s: expected resolvable", raw)
		}
		if !got.Equal(expected) {
			t.Fatalf("%s: expected %s, got %s", raw, expected, got)
		}
	}
}

func TestTimestamp_RFC3339KeepsTimeOfDay(t *testing.T) {
	ts := mustDecode(t, `"2025-11-18T09:30:00Z"`)
	got, ok := ts.Resolve()
	if !ok {
		t.Fatal("expected resolvable")
	}
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Fatalf("time of day lost: %s", got)
	}
}

func TestTimestamp_ISOPrefixWithGarbageSuffix(t *testing.T) {
	ts := mustDecode(t, `"2025-11-18Tgarbage"`)
	got, ok := ts.Resolve()
	if !ok {
		t.Fatal("expected ISO prefix to resolve")
	}
	if got.Day() != 18 || got.Month() != time.November {
		t.Fatalf("unexpected date %s", got)
	}
}

func TestTimestamp_UnrecognizedNeverErrors(t *testing.T) {
	for _, raw := range []string{
		`"soon"`,
		`"TBD"`,
		`null`,
		`{"unexpected": true}`,
		`true`,
	} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Fatalf("%s: decode must not fail: %v", raw, err)
		}
		if _, ok := ts.Resolve(); ok {
			t.Fatalf("%s: should be unresolvable", raw)
		}
	}
}

func TestTimestamp_RawPreservedForStrings(t *testing.T) {
	ts := mustDecode(t, `"soon"`)
	if ts.Raw() != "soon" {
		t.Fatalf("expected raw string preserved, got %q", ts.Raw())
	}
	if ts.IsZero() {
		t.Fatal("a populated-but-unparseable value is not zero")
	}
}

func TestTimestamp_MarshalUnresolvableAsNull(t *testing.T) {
	ts := mustDecode(t, `"whenever"`)
	out, err := json.Marshal(ts)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "null" {
		t.Fatalf("expected null, got %s", out)
	}
}

func TestMilestone_LegacyDescriptionKey(t *testing.T) {
	var m Milestone
	if err := json.Unmarshal([]byte(`{"description": "Early bird", "date": "2025-10-01"}`), &m); err != nil {
		t.Fatal(err)
	}
	if m.Name != "Early bird" {
		t.Fatalf("expected legacy description to populate name, got %q", m.Name)
	}
	if _, ok := m.Date.Resolve(); !ok {
		t.Fatal("expected milestone date to resolve")
	}
}
