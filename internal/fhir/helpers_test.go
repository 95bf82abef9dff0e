package fhir

import (
	"encoding/json"
	"testing"
)

func record(t *testing.T, s string) RawRecord {
	t.Helper()
	var r RawRecord
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		t.Fatalf("Invalid test record %q: %v", s, err)
	}
	return r
}

func recordList(t *testing.T, s string) []RawRecord {
	t.Helper()
	records, err := UnwrapJSON([]byte(s))
	if err != nil {
		t.Fatalf("Invalid test records: %v", err)
	}
	return records
}
