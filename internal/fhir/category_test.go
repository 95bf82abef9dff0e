package fhir

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		kind     ResourceKind
		resource string
		expected Category
	}{
		{"Lab observation", KindObservation, `{"category":[{"coding":[{"code":"laboratory"}]}]}`, CategoryLabResults},
		{"Vital observation", KindObservation, `{"category":[{"coding":[{"code":"vital-signs"}]}]}`, CategoryVitals},
		{"Single category object", KindObservation, `{"category":{"text":"Vital Signs"}}`, CategoryVitals},
		{"Uncategorized observation", KindObservation, `{}`, CategoryVisits},
		{"Radiology report", KindDiagnosticReport, `{"category":[{"coding":[{"code":"LP29684-5"}]}]}`, CategoryImaging},
		{"Lab report", KindDiagnosticReport, `{"category":[{"coding":[{"code":"LAB"}]}]}`, CategoryLabResults},
		{"Condition", KindCondition, `{}`, CategoryConditions},
		{"Medication statement", KindMedicationStatement, `{}`, CategoryMedications},
		{"Imaging study", KindImagingStudy, `{}`, CategoryImaging},
		{"Encounter", KindEncounter, `{}`, CategoryVisits},
		{"Allergy", KindAllergyIntolerance, `{}`, CategoryVisits},
		{"Unknown", KindUnknown, `{}`, CategoryVisits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.kind, record(t, tt.resource)); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCategoryCounts(t *testing.T) {
	records := []NormalizedRecord{
		{Category: CategoryLabResults},
		{Category: CategoryLabResults},
		{Category: CategoryConditions},
	}

	counts := CategoryCounts(records)
	if len(counts) != len(Categories) {
		t.Fatalf("Expected %d categories, got %d", len(Categories), len(counts))
	}
	for _, c := range counts {
		want := 0
		switch c.Category {
		case CategoryLabResults:
			want = 2
		case CategoryConditions:
			want = 1
		}
		if c.Count != want {
			t.Errorf("Expected %d for %s, got %d", want, c.Category, c.Count)
		}
	}

	if got := FilterByCategory(records, CategoryLabResults); len(got) != 2 {
		t.Errorf("Expected 2 lab results, got %d", len(got))
	}
}

func TestResourceKindLabel(t *testing.T) {
	if got := KindAllergyIntolerance.Label(); got != "Allergy Intolerance" {
		t.Errorf("Expected Allergy Intolerance, got %q", got)
	}
	if got := ParseResourceKind("Basic"); got != KindUnknown {
		t.Errorf("Expected Unknown, got %q", got)
	}
}
