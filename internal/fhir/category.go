package fhir

import "strings"

// Category is a fixed UI grouping of normalized records
type Category string

const (
	CategoryLabResults  Category = "Lab Results"
	CategoryVitals      Category = "Vitals"
	CategoryMedications Category = "Medications"
	CategoryConditions  Category = "Conditions"
	CategoryImaging     Category = "Imaging"
	CategoryVisits      Category = "Visits"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryLabResults,
	CategoryVitals,
	CategoryMedications,
	CategoryConditions,
	CategoryImaging,
	CategoryVisits,
}

// CategoryCount is the number of records in one category
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

var kindCategories = map[ResourceKind]Category{
	KindCondition:           CategoryConditions,
	KindMedicationRequest:   CategoryMedications,
	KindMedicationStatement: CategoryMedications,
	KindEncounter:           CategoryVisits,
	KindPatient:             CategoryVisits,
	KindImagingStudy:        CategoryImaging,
}

var imagingReportCodes = map[string]bool{
	"rad":        true,
	"imaging":    true,
	"radiology":  true,
	"lp29684-5":  true,
	"18748-4":    true,
	"ct":         true,
	"mri":        true,
	"us":         true,
	"xray":       true,
	"x-ray":      true,
	"mammogram":  true,
	"ultrasound": true,
}

// Categorize maps a kind to its category. Observation and DiagnosticReport
// records are further split by their coded category.
func Categorize(kind ResourceKind, resource RawRecord) Category {
	switch kind {
	case KindObservation:
		for _, term := range categoryTerms(resource) {
			switch term {
			case "laboratory":
				return CategoryLabResults
			case "vital-signs", "vital signs":
				return CategoryVitals
			}
		}
		return CategoryVisits
	case KindDiagnosticReport:
		for _, term := range categoryTerms(resource) {
			if imagingReportCodes[term] {
				return CategoryImaging
			}
		}
		return CategoryLabResults
	}
	if c, ok := kindCategories[kind]; ok {
		return c
	}
	return CategoryVisits
}

// categoryTerms lists lowercased codes and texts of the category field,
// which may be a single CodeableConcept or an array of them.
func categoryTerms(resource RawRecord) []string {
	var concepts []RawRecord
	if list := resource.Slice("category"); list != nil {
		for _, c := range list {
			if rec := asRecord(c); rec != nil {
				concepts = append(concepts, rec)
			}
		}
	} else if c := resource.Map("category"); c != nil {
		concepts = append(concepts, c)
	}

	var terms []string
	for _, c := range concepts {
		for _, code := range conceptCodes(c) {
			terms = append(terms, strings.ToLower(code))
		}
		if t := c.Str("text"); t != "" {
			terms = append(terms, strings.ToLower(t))
		}
	}
	return terms
}

// CountByCategory counts records per category, recomputed on every call
func CountByCategory(records []NormalizedRecord) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, r := range records {
		counts[r.Category]++
	}
	return counts
}

// CategoryCounts returns the counts of every category in display order,
// zero counts included
func CategoryCounts(records []NormalizedRecord) []CategoryCount {
	counts := CountByCategory(records)
	out := make([]CategoryCount, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, CategoryCount{Category: c, Count: counts[c]})
	}
	return out
}

// FilterByCategory keeps the records of one category
func FilterByCategory(records []NormalizedRecord, category Category) []NormalizedRecord {
	var out []NormalizedRecord
	for _, r := range records {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}
