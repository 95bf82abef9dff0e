package fhir

// Snapshot is the display-ready result of one fetch-and-render cycle. It is
// replaced wholesale on the next cycle.
type Snapshot struct {
	Records    []NormalizedRecord `json:"records"`
	Vitals     []VitalSignSample  `json:"vitals"`
	Categories []CategoryCount    `json:"categories"`
	Patients   []PatientIdentity  `json:"patients"`
	Skipped    int                `json:"skipped"`
}

// BuildSnapshot runs the normalization pipeline over the raw records of one
// fetch: raw dedup, ownership filtering, extraction, semantic dedup, then
// categorization and vital reduction. Without a self-patient only the patient
// identities are returned, together with ErrMissingPatientContext.
func BuildSnapshot(raw []RawRecord, selfPatientID string) (Snapshot, error) {
	deduped := DedupeRaw(raw)
	snap := Snapshot{
		Records:    []NormalizedRecord{},
		Vitals:     []VitalSignSample{},
		Categories: CategoryCounts(nil),
		Patients:   ExtractPatients(deduped),
	}

	owned, err := FilterBySelfPatient(deduped, selfPatientID)
	if err != nil {
		return snap, err
	}

	normalized, skipped := ExtractAll(owned)
	snap.Records = DedupeNormalized(normalized)
	snap.Vitals = ReduceVitals(owned)
	snap.Categories = CategoryCounts(snap.Records)
	snap.Skipped = skipped
	return snap, nil
}
