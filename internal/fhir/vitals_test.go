package fhir

import "testing"

func TestReduceVitalsKeepsLatest(t *testing.T) {
	records := recordList(t, `[
		{"resourceType":"Observation","id":"hr2","code":{"coding":[{"code":"8867-4","display":"Heart rate"}]},"valueQuantity":{"value":80,"unit":"bpm"},"effectiveDateTime":"2023-06-01T08:00:00Z"},
		{"resourceType":"Observation","id":"hr1","code":{"coding":[{"code":"8867-4","display":"Heart rate"}]},"valueQuantity":{"value":70,"unit":"bpm"},"effectiveDateTime":"2023-01-01T08:00:00Z"},
		{"resourceType":"Observation","id":"hr3","code":{"coding":[{"code":"8867-4","display":"Heart rate"}]},"valueQuantity":{"value":90,"unit":"bpm"}},
		{"resourceType":"Observation","id":"bp1","code":{"coding":[{"code":"85354-9"}]},"effectiveDateTime":"2023-03-01","component":[{"code":{"coding":[{"code":"8480-6"}]},"valueQuantity":{"value":120,"unit":"mmHg"}},{"code":{"coding":[{"code":"8462-4"}]},"valueQuantity":{"value":80,"unit":"mmHg"}}]},
		{"resourceType":"Observation","id":"lab1","code":{"text":"Hemoglobin"},"category":[{"coding":[{"code":"laboratory"}]}],"valueQuantity":{"value":13.5,"unit":"g/dL"}},
		{"resourceType":"Observation","id":"w1","code":{"text":"Body weight"},"effectiveDateTime":"2023-02-01"},
		{"resourceType":"Condition","id":"c1","code":{"text":"Heart rate issue"}}
	]`)

	vitals := ReduceVitals(records)
	if len(vitals) != 2 {
		t.Fatalf("Expected 2 vitals, got %d: %v", len(vitals), vitals)
	}

	bp, hr := vitals[0], vitals[1]
	if bp.Type != VitalBloodPressure || bp.Value != "120/80 mmHg" {
		t.Errorf("Expected blood pressure 120/80 mmHg, got %s %q", bp.Type, bp.Value)
	}
	if bp.FormattedDate != "March 1, 2023" {
		t.Errorf("Expected March 1, 2023, got %q", bp.FormattedDate)
	}
	if hr.Type != VitalHeartRate || hr.Value != "80 bpm" {
		t.Errorf("Expected heart rate 80 bpm, got %s %q", hr.Type, hr.Value)
	}
}

func TestReduceVitalsDatedReplacesUndated(t *testing.T) {
	records := recordList(t, `[
		{"resourceType":"Observation","code":{"text":"Body temperature"},"valueQuantity":{"value":37.1,"unit":"C"}},
		{"resourceType":"Observation","code":{"text":"Body temperature"},"valueQuantity":{"value":36.8,"unit":"C"},"effectiveDateTime":"2022-12-01"}
	]`)

	vitals := ReduceVitals(records)
	if len(vitals) != 1 {
		t.Fatalf("Expected 1 vital, got %d", len(vitals))
	}
	if vitals[0].Value != "36.8 C" {
		t.Errorf("Expected dated sample to win, got %q", vitals[0].Value)
	}
}

func TestReduceVitalsOther(t *testing.T) {
	records := recordList(t, `[
		{"resourceType":"Observation","code":{"text":"Head circumference"},"category":[{"coding":[{"code":"vital-signs"}]}],"valueQuantity":{"value":35,"unit":"cm"}}
	]`)

	vitals := ReduceVitals(records)
	if len(vitals) != 1 {
		t.Fatalf("Expected 1 vital, got %d", len(vitals))
	}
	if vitals[0].Type != VitalOther || vitals[0].DisplayName != "Head circumference" {
		t.Errorf("Expected other vital named Head circumference, got %s %q", vitals[0].Type, vitals[0].DisplayName)
	}
}

func TestClassifyVital(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		expected VitalType
	}{
		{"Code wins over keyword", `{"code":{"text":"Oxygen saturation","coding":[{"code":"8867-4"}]}}`, VitalHeartRate},
		{"Keyword", `{"code":{"text":"Oxygen saturation in Arterial blood"}}`, VitalOxygen},
		{"BMI code", `{"code":{"coding":[{"code":"39156-5"}]}}`, VitalBMI},
		{"Height keyword", `{"code":{"text":"Body height"}}`, VitalHeight},
		{"Respiratory code", `{"code":{"coding":[{"code":"9279-1"}]}}`, VitalRespiratory},
		{"Pulse oximetry is oxygen", `{"code":{"text":"Oxygen saturation in Arterial blood by Pulse oximetry"}}`, VitalOxygen},
		{"SpO2 keyword", `{"code":{"text":"SpO2 by pulse ox"}}`, VitalOxygen},
		{"Pulse keyword", `{"code":{"text":"Pulse"}}`, VitalHeartRate},
		{"Unmatched", `{"code":{"text":"Cholesterol"}}`, VitalOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ClassifyVital(record(t, tt.record))
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestReduceVitalsPulseOximetryKeepsHeartRate(t *testing.T) {
	vitals := ReduceVitals(recordList(t, `[
		{"resourceType":"Observation","id":"hr","effectiveDateTime":"2024-01-10",
		 "code":{"coding":[{"code":"8867-4"}],"text":"Heart rate"},
		 "valueQuantity":{"value":72,"unit":"/min"}},
		{"resourceType":"Observation","id":"ox","effectiveDateTime":"2024-02-10",
		 "code":{"text":"Oxygen saturation in Arterial blood by Pulse oximetry"},
		 "valueQuantity":{"value":98,"unit":"%"}}
	]`))

	got := make(map[VitalType]string)
	for _, v := range vitals {
		got[v.Type] = v.Value
	}
	if got[VitalHeartRate] != "72 /min" {
		t.Errorf("Expected heart rate 72 /min, got %q", got[VitalHeartRate])
	}
	if got[VitalOxygen] != "98 %" {
		t.Errorf("Expected oxygen saturation 98 %%, got %q", got[VitalOxygen])
	}
}
