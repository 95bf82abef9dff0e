package fhir

import (
	"errors"
	"testing"
)

const mixedBundle = `[
	{"resourceType":"Patient","id":"p1","name":[{"text":"Jane Doe"}]},
	{"resourceType":"Patient","id":"p2","name":[{"given":["John"],"family":"Roe"}]},
	{"resourceType":"Patient","id":"p1","name":[{"text":"Jane Doe"}]},
	{"resourceType":"Observation","id":"o1","subject":{"reference":"Patient/p1"},"code":{"coding":[{"code":"8867-4","display":"Heart rate"}]},"category":[{"coding":[{"code":"vital-signs"}]}],"valueQuantity":{"value":72,"unit":"bpm"},"effectiveDateTime":"2023-04-01"},
	{"resourceType":"Observation","id":"o2","subject":{"reference":"Patient/p2"},"code":{"text":"Heart rate"},"valueQuantity":{"value":99,"unit":"bpm"},"effectiveDateTime":"2023-05-01"},
	{"resourceType":"Condition","id":"c1","subject":{"reference":"Patient/p1"},"code":{"text":"Asthma"},"recordedDate":"2021-02-03"},
	{"resourceType":"Observation","id":"o3","subject":{"reference":"Patient/p1"},"code":{"text":"Pending"}},
	{"resourceType":"Condition","id":"c2","code":{"text":"Orphan"}}
]`

func TestBuildSnapshot(t *testing.T) {
	snap, err := BuildSnapshot(recordList(t, mixedBundle), "p1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(snap.Patients) != 2 {
		t.Errorf("Expected 2 patients, got %d", len(snap.Patients))
	}
	if len(snap.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d: %v", len(snap.Records), snap.Records)
	}
	if snap.Records[0].Title != "Heart rate: 72 bpm" {
		t.Errorf("Expected newest record first, got %q", snap.Records[0].Title)
	}
	if snap.Skipped != 1 {
		t.Errorf("Expected 1 skipped record, got %d", snap.Skipped)
	}
	if len(snap.Vitals) != 1 || snap.Vitals[0].Value != "72 bpm" {
		t.Errorf("Expected only the self-patient heart rate, got %v", snap.Vitals)
	}

	for _, c := range snap.Categories {
		if c.Category == CategoryConditions && c.Count != 1 {
			t.Errorf("Expected 1 condition, got %d", c.Count)
		}
	}
}

func TestBuildSnapshotWithoutSelfPatient(t *testing.T) {
	snap, err := BuildSnapshot(recordList(t, mixedBundle), "")
	if !errors.Is(err, ErrMissingPatientContext) {
		t.Fatalf("Expected ErrMissingPatientContext, got %v", err)
	}
	if len(snap.Records) != 0 || len(snap.Vitals) != 0 {
		t.Errorf("Expected no records without a self-patient, got %d records %d vitals", len(snap.Records), len(snap.Vitals))
	}
	if len(snap.Patients) != 2 {
		t.Errorf("Expected patients to still be listed, got %d", len(snap.Patients))
	}
	if len(snap.Categories) != len(Categories) {
		t.Errorf("Expected zero counts for every category, got %d", len(snap.Categories))
	}
}

func TestExtractPatients(t *testing.T) {
	patients := ExtractPatients(recordList(t, mixedBundle))
	if len(patients) != 2 {
		t.Fatalf("Expected 2 patients, got %d", len(patients))
	}
	if patients[0].DisplayName != "Jane Doe" || patients[1].DisplayName != "John Roe" {
		t.Errorf("Unexpected patient names: %v", patients)
	}
}

func TestOwnedBy(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		expected bool
	}{
		{"Own patient record", `{"resourceType":"Patient","id":"p1"}`, true},
		{"Other patient record", `{"resourceType":"Patient","id":"p2"}`, false},
		{"Subject reference", `{"resourceType":"Observation","subject":{"reference":"Patient/p1"}}`, true},
		{"Patient reference", `{"resourceType":"AllergyIntolerance","patient":{"reference":"Patient/p1"}}`, true},
		{"URN reference", `{"resourceType":"Encounter","subject":{"reference":"urn:uuid:p1"}}`, true},
		{"No owner", `{"resourceType":"Observation"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OwnedBy(record(t, tt.record), "p1"); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
