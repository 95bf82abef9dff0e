package fhir

import (
	"errors"
	"testing"
)

func TestUnwrapJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expected    int
		expectError bool
	}{
		{
			name:     "Direct array",
			body:     `[{"resourceType":"Observation","id":"1"},{"resourceType":"Observation","id":"2"}]`,
			expected: 2,
		},
		{
			name:     "Bundle entries",
			body:     `{"resourceType":"Bundle","entry":[{"resource":{"resourceType":"Condition","id":"c1"}},{"resource":{"resourceType":"Condition","id":"c2"}},{"fullUrl":"no-resource"}]}`,
			expected: 2,
		},
		{
			name:     "Bundle without entries is empty",
			body:     `{"resourceType":"Bundle","total":0}`,
			expected: 0,
		},
		{
			name:     "Results list",
			body:     `{"results":[{"resourceType":"Procedure","id":"p1"}]}`,
			expected: 1,
		},
		{
			name:     "Data list",
			body:     `{"success":true,"data":[{"id":"a"},{"id":"b"},{"id":"c"}]}`,
			expected: 3,
		},
		{
			name:     "Rows list",
			body:     `{"rows":[{"id":"a"},{"id":"b"}]}`,
			expected: 2,
		},
		{
			name:     "Results win over data",
			body:     `{"results":[{"id":"a"}],"data":[{"id":"b"},{"id":"c"}]}`,
			expected: 1,
		},
		{
			name:     "Nested data object",
			body:     `{"success":true,"data":{"results":[{"id":"a"},{"id":"b"}]}}`,
			expected: 2,
		},
		{
			name:     "Single resource",
			body:     `{"resourceType":"Patient","id":"p1"}`,
			expected: 1,
		},
		{
			name:     "Single wrapped resource",
			body:     `{"source_resource_type":"Observation","resource_raw":{"id":"o1"}}`,
			expected: 1,
		},
		{
			name:     "Non-object array items are skipped",
			body:     `[{"id":"a"},"junk",42,null]`,
			expected: 1,
		},
		{
			name:        "Unrecognized object",
			body:        `{"message":"hello"}`,
			expectError: true,
		},
		{
			name:        "Not JSON",
			body:        `<html>login</html>`,
			expectError: true,
		},
		{
			name:        "Null body",
			body:        `null`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := UnwrapJSON([]byte(tt.body))
			if tt.expectError {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("Expected ErrMalformedResponse, got %v", err)
				}
				if len(records) != 0 {
					t.Errorf("Expected no records, got %d", len(records))
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(records) != tt.expected {
				t.Errorf("Expected %d records, got %d", tt.expected, len(records))
			}
		})
	}
}
