package fhir

import (
	"reflect"
	"testing"
	"time"
)

func normalized(title, date, provider string) NormalizedRecord {
	ts, _ := ParseDate(date)
	return NormalizedRecord{
		ID:        title + date + provider,
		Title:     title,
		Date:      FormatDate(date),
		Provider:  provider,
		Category:  CategoryLabResults,
		Kind:      KindObservation,
		Timestamp: ts,
	}
}

func TestDedupeNormalizedUnknownProvider(t *testing.T) {
	unknown := normalized("Glucose: 98 mg/dL", "2023-05-15", UnknownProvider)
	named := normalized("Glucose: 98 mg/dL", "2023-05-15", "Quest Labs")

	tests := []struct {
		name  string
		input []NormalizedRecord
	}{
		{name: "Unknown first", input: []NormalizedRecord{unknown, named}},
		{name: "Named first", input: []NormalizedRecord{named, unknown}},
		{name: "Repeated", input: []NormalizedRecord{unknown, named, unknown, named}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DedupeNormalized(tt.input)
			if len(out) != 1 {
				t.Fatalf("Expected 1 record, got %d", len(out))
			}
			if out[0].Provider != "Quest Labs" {
				t.Errorf("Expected named provider to survive, got %q", out[0].Provider)
			}
		})
	}
}

func TestDedupeNormalizedKeepsDistinctProviders(t *testing.T) {
	out := DedupeNormalized([]NormalizedRecord{
		normalized("CBC", "2023-05-15", "Lab A"),
		normalized("CBC", "2023-05-15", "Lab B"),
		normalized("CBC", "2023-05-15", "Lab A"),
	})
	if len(out) != 2 {
		t.Errorf("Expected 2 records, got %d", len(out))
	}
}

func TestDedupeNormalizedOrdering(t *testing.T) {
	out := DedupeNormalized([]NormalizedRecord{
		normalized("Old", "2020-01-01", "A"),
		normalized("Undated 1", "", "A"),
		normalized("New", "2023-01-01", "A"),
		normalized("Undated 2", "", "A"),
		normalized("Middle", "2021-06-01", "A"),
	})

	var titles []string
	for _, r := range out {
		titles = append(titles, r.Title)
	}
	expected := []string{"New", "Middle", "Old", "Undated 1", "Undated 2"}
	if !reflect.DeepEqual(titles, expected) {
		t.Errorf("Expected %v, got %v", expected, titles)
	}
}

func TestDedupeNormalizedIdempotent(t *testing.T) {
	input := []NormalizedRecord{
		normalized("A", "2023-01-01", UnknownProvider),
		normalized("A", "2023-01-01", "Dr. X"),
		normalized("B", "2022-01-01", "Dr. Y"),
		normalized("B", "2022-01-01", "Dr. Y"),
		normalized("C", "", UnknownProvider),
	}

	once := DedupeNormalized(input)
	twice := DedupeNormalized(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Expected dedup to be idempotent:\n%v\n%v", once, twice)
	}

	seen := make(map[string]bool)
	for _, r := range twice {
		key := r.Title + "|" + r.Date + "|" + r.Provider
		if seen[key] {
			t.Errorf("Duplicate key %q", key)
		}
		seen[key] = true
	}
}

func TestDedupeRaw(t *testing.T) {
	records := recordList(t, `[
		{"resourceType":"Observation","id":"1","valueString":"first"},
		{"resourceType":"Observation","id":"1","valueString":"second"},
		{"resourceType":"Condition","id":"1"},
		{"resourceType":"Condition"},
		{"resourceType":"Condition"},
		{"source_resource_type":"Observation","source_resource_id":"1","resource_raw":{"valueString":"wrapped"}}
	]`)

	out := DedupeRaw(records)
	if len(out) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(out))
	}
	if out[0].Str("valueString") != "first" {
		t.Errorf("Expected first occurrence to win, got %q", out[0].Str("valueString"))
	}
}

func TestSortByDateStable(t *testing.T) {
	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []NormalizedRecord{
		{Title: "a", Timestamp: day},
		{Title: "b", Timestamp: day},
		{Title: "c"},
	}
	SortByDate(records)
	if records[0].Title != "a" || records[1].Title != "b" || records[2].Title != "c" {
		t.Errorf("Expected stable order, got %v", records)
	}
}

func TestBundleToDedupedRecords(t *testing.T) {
	raw := recordList(t, `{"resourceType":"Bundle","entry":[
		{"resource":{"resourceType":"Observation","code":{"text":"Glucose"},
			"effectiveDateTime":"2023-05-15","valueQuantity":{"value":98,"unit":"mg/dL"}}},
		{"resource":{"resourceType":"Observation","code":{"text":"Glucose"},
			"effectiveDateTime":"2023-05-15","valueQuantity":{"value":98,"unit":"mg/dL"},
			"performer":[{"display":"Quest Labs"}]}},
		{"resource":{"resourceType":"Condition","id":"c1","code":{"text":"Asthma"},
			"recordedDate":"2024-01-02"}},
		{"resource":{"resourceType":"Observation","id":"pending","code":{"text":"Pending lab"}}}
	]}`)
	if len(raw) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(raw))
	}

	records, skipped := ExtractAll(raw)
	if skipped != 1 {
		t.Errorf("Expected 1 skipped record, got %d", skipped)
	}

	out := DedupeNormalized(records)
	if len(out) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(out))
	}
	if out[0].Kind != KindCondition {
		t.Errorf("Expected newest record first, got %s", out[0].Kind)
	}
	if out[1].Title != "Glucose: 98 mg/dL" || out[1].Provider != "Quest Labs" {
		t.Errorf("Expected glucose from Quest Labs, got %q from %q", out[1].Title, out[1].Provider)
	}
}
