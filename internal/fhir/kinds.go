package fhir

import (
	"strings"
	"unicode"
)

// ResourceKind is the clinical resource type of a record
type ResourceKind string

const (
	KindObservation         ResourceKind = "Observation"
	KindMedicationRequest   ResourceKind = "MedicationRequest"
	KindMedicationStatement ResourceKind = "MedicationStatement"
	KindCondition           ResourceKind = "Condition"
	KindDiagnosticReport    ResourceKind = "DiagnosticReport"
	KindProcedure           ResourceKind = "Procedure"
	KindEncounter           ResourceKind = "Encounter"
	KindPatient             ResourceKind = "Patient"
	KindImagingStudy        ResourceKind = "ImagingStudy"
	KindAllergyIntolerance  ResourceKind = "AllergyIntolerance"
	KindCarePlan            ResourceKind = "CarePlan"
	KindImmunization        ResourceKind = "Immunization"
	KindDocumentReference   ResourceKind = "DocumentReference"
	KindUnknown             ResourceKind = "Unknown"
)

var knownKinds = map[string]ResourceKind{
	string(KindObservation):         KindObservation,
	string(KindMedicationRequest):   KindMedicationRequest,
	string(KindMedicationStatement): KindMedicationStatement,
	string(KindCondition):           KindCondition,
	string(KindDiagnosticReport):    KindDiagnosticReport,
	string(KindProcedure):           KindProcedure,
	string(KindEncounter):           KindEncounter,
	string(KindPatient):             KindPatient,
	string(KindImagingStudy):        KindImagingStudy,
	string(KindAllergyIntolerance):  KindAllergyIntolerance,
	string(KindCarePlan):            KindCarePlan,
	string(KindImmunization):        KindImmunization,
	string(KindDocumentReference):   KindDocumentReference,
}

// DefaultQueryKinds is the fixed list of kinds queried per fetch cycle
var DefaultQueryKinds = []ResourceKind{
	KindPatient,
	KindObservation,
	KindMedicationRequest,
	KindMedicationStatement,
	KindCondition,
	KindDiagnosticReport,
	KindProcedure,
	KindEncounter,
	KindImagingStudy,
	KindAllergyIntolerance,
	KindImmunization,
}

// ParseResourceKind maps a resourceType string to a ResourceKind, Unknown if unrecognized
func ParseResourceKind(s string) ResourceKind {
	if kind, ok := knownKinds[strings.TrimSpace(s)]; ok {
		return kind
	}
	return KindUnknown
}

// IsKnown reports whether s names one of the enumerated kinds
func IsKnown(s string) bool {
	_, ok := knownKinds[strings.TrimSpace(s)]
	return ok
}

// Label renders the kind name space-separated, "AllergyIntolerance" -> "Allergy Intolerance"
func (k ResourceKind) Label() string {
	return splitCamel(string(k))
}

func splitCamel(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
