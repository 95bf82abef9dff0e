package fhir

import "strings"

// PatientIdentity is a patient the signed-in user may designate as self
type PatientIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// ExtractPatients lists the Patient-kind records as identities, one per id
func ExtractPatients(records []RawRecord) []PatientIdentity {
	seen := make(map[string]bool)
	var out []PatientIdentity

	for _, r := range records {
		env := Open(r)
		if env.Kind() != KindPatient {
			continue
		}
		id := env.NaturalID()
		if id == "" {
			id = syntheticID(r)
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		name := PatientName(env.Resource)
		if name == "" {
			name = env.Meta.SortTitle
		}
		if name == "" {
			name = "Unknown Patient"
		}
		out = append(out, PatientIdentity{ID: id, DisplayName: name})
	}
	return out
}

// ownerFields hold the patient a clinical resource belongs to
var ownerFields = []string{"subject", "patient", "beneficiary"}

// FilterBySelfPatient keeps the records owned by the self-patient: Patient
// records with its id, and resources whose subject or patient reference points
// at it. Records with no owner reference are dropped.
func FilterBySelfPatient(records []RawRecord, selfPatientID string) ([]RawRecord, error) {
	selfPatientID = strings.TrimSpace(selfPatientID)
	if selfPatientID == "" {
		return nil, ErrMissingPatientContext
	}

	out := make([]RawRecord, 0, len(records))
	for _, r := range records {
		if OwnedBy(r, selfPatientID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// OwnedBy reports whether a record belongs to the given patient id
func OwnedBy(record RawRecord, patientID string) bool {
	env := Open(record)
	if env.Kind() == KindPatient {
		return env.NaturalID() == patientID
	}
	for _, field := range ownerFields {
		ref := env.Resource.Map(field).Str("reference")
		if ref == "" {
			continue
		}
		ref = strings.TrimPrefix(ref, "urn:uuid:")
		if referenceTail(ref) == patientID {
			return true
		}
	}
	return false
}
