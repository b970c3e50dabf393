package catalog

import "testing"

func TestPartitionFor_KnownLabels(t *testing.T) {
	cases := map[string]string{
		"Scholarship / Grant": "scholarships",
		"Workshop / Seminar":  "workshops",
		"Competition / Event": "competitions",
		"Study Spot":          "study_spots",
		"Resources":           "resources",
	}
	for label, partition := range cases {
		if got := PartitionFor(label); got != partition {
			t.Fatalf("%q: expected %q, got %q", label, partition, got)
		}
	}
}

func TestPartitionFor_CaseInsensitiveAndTrimmed(t *testing.T) {
	if got := PartitionFor("  scholarship / grant  "); got != "scholarships" {
		t.Fatalf("expected scholarships, got %q", got)
	}
	if got := PartitionFor("STUDY SPOT"); got != "study_spots" {
		t.Fatalf("expected study_spots, got %q", got)
	}
}

func TestPartitionFor_UnknownFallsBack(t *testing.T) {
	if got := PartitionFor("Mystery Category"); got != GenericPartition() {
		t.Fatalf("expected fallback partition, got %q", got)
	}
	if got := PartitionFor(""); got != GenericPartition() {
		t.Fatalf("empty category should fall back, got %q", got)
	}
}

func TestIsGenericPartition(t *testing.T) {
	if !IsGenericPartition("opportunities") {
		t.Fatal("opportunities is the fallback partition")
	}
	if IsGenericPartition("scholarships") {
		t.Fatal("scholarships is a dedicated partition")
	}
}

func TestTableMatchesLabelsAndPartitions(t *testing.T) {
	table := Table()
	labels := Labels()
	if len(table) != len(labels) {
		t.Fatalf("table has %d entries for %d labels", len(table), len(labels))
	}
	for _, label := range labels {
		if _, ok := table[label]; !ok {
			t.Fatalf("label %q missing from table", label)
		}
	}
}
