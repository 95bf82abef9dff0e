package fhir

import (
	"fmt"
	"strings"
	"time"
)

// NormalizedRecord is a display-ready summary of one clinical record
type NormalizedRecord struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Date      string       `json:"date"`
	Provider  string       `json:"provider"`
	Category  Category     `json:"category"`
	Kind      ResourceKind `json:"resourceKind"`
	Timestamp time.Time    `json:"timestamp"`
}

// Dated reports whether the record date could be parsed
func (r NormalizedRecord) Dated() bool {
	return !r.Timestamp.IsZero()
}

// titleAdapter renders the title of one resource variant. ok is false when
// the resource carries no usable value.
type titleAdapter func(resource RawRecord) (title string, ok bool)

var titleAdapters = map[ResourceKind]titleAdapter{
	KindObservation:         observationTitle,
	KindMedicationRequest:   medicationTitle,
	KindMedicationStatement: medicationTitle,
	KindCondition:           conditionTitle,
	KindDiagnosticReport:    diagnosticReportTitle,
	KindProcedure:           procedureTitle,
	KindEncounter:           encounterTitle,
	KindPatient:             patientTitle,
}

// Extract normalizes one raw record. It returns false when the record has no
// usable value, which is an expected outcome and not an error.
func Extract(record RawRecord) (NormalizedRecord, bool) {
	if record == nil {
		return NormalizedRecord{}, false
	}
	env := Open(record)
	kind := env.Kind()

	title, ok := resolveTitle(kind, env.Resource)
	if !ok {
		return NormalizedRecord{}, false
	}
	if env.Meta.SortTitle != "" {
		title = env.Meta.SortTitle
	}

	date := rawDate(env)
	ts, _ := ParseDate(date)

	id := env.NaturalID()
	if id == "" {
		id = syntheticID(record)
	}

	return NormalizedRecord{
		ID:        id,
		Title:     title,
		Date:      FormatDate(date),
		Provider:  resolveProvider(env.Resource),
		Category:  Categorize(kind, env.Resource),
		Kind:      kind,
		Timestamp: ts,
	}, true
}

// ExtractAll normalizes every record, silently skipping those without a value
func ExtractAll(records []RawRecord) (out []NormalizedRecord, skipped int) {
	out = make([]NormalizedRecord, 0, len(records))
	for _, r := range records {
		n, ok := Extract(r)
		if !ok {
			skipped++
			continue
		}
		out = append(out, n)
	}
	return out, skipped
}

func resolveTitle(kind ResourceKind, resource RawRecord) (string, bool) {
	if adapter, ok := titleAdapters[kind]; ok {
		return adapter(resource)
	}
	return genericTitle(kind, resource), true
}

func withSuffix(title, suffix string) string {
	if suffix == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, suffix)
}

func observationTitle(res RawRecord) (string, bool) {
	value, ok := ObservationValue(res)
	if !ok {
		return "", false
	}
	name := conceptText(res.Map("code"))
	if name == "" {
		name = KindObservation.Label()
	}
	return name + ": " + value, true
}

// ObservationValue formats the value of an Observation: a quantity, a coded
// value, a primitive value or a systolic/diastolic component pair.
func ObservationValue(res RawRecord) (string, bool) {
	if q, ok := quantityText(res.Map("valueQuantity")); ok {
		return q, true
	}
	if c := conceptText(res.Map("valueCodeableConcept")); c != "" {
		return c, true
	}
	if s := res.Str("valueString"); s != "" {
		return s, true
	}
	if n, ok := formatNumber(res["valueInteger"]); ok {
		return n, true
	}
	if b, ok := res["valueBoolean"].(bool); ok {
		if b {
			return "Yes", true
		}
		return "No", true
	}
	return componentText(res.Slice("component"))
}

func quantityText(q RawRecord) (string, bool) {
	if q == nil {
		return "", false
	}
	value, ok := formatNumber(q["value"])
	if !ok {
		return "", false
	}
	unit := q.Str("unit")
	if unit == "" {
		unit = q.Str("code")
	}
	return strings.TrimSpace(value + " " + unit), true
}

const (
	loincSystolic  = "8480-6"
	loincDiastolic = "8462-4"
)

func componentText(components []interface{}) (string, bool) {
	var systolic, diastolic, unit string
	var parts []string

	for _, c := range components {
		comp := asRecord(c)
		if comp == nil {
			continue
		}
		quantity := comp.Map("valueQuantity")
		value, ok := formatNumber(quantity["value"])
		if !ok {
			if v, vok := ObservationValue(withoutComponents(comp)); vok {
				if name := conceptText(comp.Map("code")); name != "" {
					parts = append(parts, name+": "+v)
				} else {
					parts = append(parts, v)
				}
			}
			continue
		}

		codes := conceptCodes(comp.Map("code"))
		switch {
		case containsCode(codes, loincSystolic):
			systolic = value
			if unit == "" {
				unit = quantity.Str("unit")
			}
		case containsCode(codes, loincDiastolic):
			diastolic = value
			if unit == "" {
				unit = quantity.Str("unit")
			}
		default:
			q, _ := quantityText(quantity)
			if name := conceptText(comp.Map("code")); name != "" {
				q = name + ": " + q
			}
			parts = append(parts, q)
		}
	}

	switch {
	case systolic != "" && diastolic != "":
		return strings.TrimSpace(fmt.Sprintf("%s/%s %s", systolic, diastolic, unit)), true
	case systolic != "":
		parts = append([]string{strings.TrimSpace("Systolic: " + systolic + " " + unit)}, parts...)
	case diastolic != "":
		parts = append([]string{strings.TrimSpace("Diastolic: " + diastolic + " " + unit)}, parts...)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", "), true
	}
	return "", false
}

func withoutComponents(r RawRecord) RawRecord {
	if !r.Has("component") {
		return r
	}
	cp := make(RawRecord, len(r))
	for k, v := range r {
		if k != "component" {
			cp[k] = v
		}
	}
	return cp
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// MedicationName resolves a medication's name: coded display, reference
// display, then the raw reference id
func MedicationName(res RawRecord) string {
	if n := conceptText(res.Map("medicationCodeableConcept")); n != "" {
		return n
	}
	ref := res.Map("medicationReference")
	if d := ref.Str("display"); d != "" {
		return d
	}
	if r := ref.Str("reference"); r != "" {
		return referenceTail(r)
	}
	if n := conceptText(res.Map("medication").Map("concept")); n != "" {
		return n
	}
	return ""
}

func medicationTitle(res RawRecord) (string, bool) {
	name := MedicationName(res)
	if name == "" {
		name = "Medication"
	}
	if dosage := dosageText(res); dosage != "" {
		return name + " - " + dosage, true
	}
	return name, true
}

func dosageText(res RawRecord) string {
	d := res.First("dosageInstruction")
	if d == nil {
		d = res.First("dosage")
	}
	if d == nil {
		return ""
	}
	if text := d.Str("text"); text != "" {
		return text
	}

	dose, hasDose := quantityText(d.First("doseAndRate").Map("doseQuantity"))
	freq := timingText(d.Map("timing"))
	switch {
	case hasDose && freq != "":
		return dose + ", " + freq
	case hasDose:
		return dose
	}
	return freq
}

var periodUnits = map[string]string{
	"s":   "second",
	"min": "minute",
	"h":   "hour",
	"d":   "day",
	"wk":  "week",
	"mo":  "month",
	"a":   "year",
}

func timingText(timing RawRecord) string {
	if timing == nil {
		return ""
	}
	if t := conceptText(timing.Map("code")); t != "" {
		return t
	}
	repeat := timing.Map("repeat")
	freq, ok := formatNumber(repeat["frequency"])
	if !ok {
		return ""
	}
	unit := periodUnits[repeat.Str("periodUnit")]
	if unit == "" {
		unit = repeat.Str("periodUnit")
	}
	period, _ := formatNumber(repeat["period"])
	switch {
	case unit == "":
		return freq + " times"
	case period == "" || period == "1":
		return fmt.Sprintf("%s times per %s", freq, unit)
	}
	return fmt.Sprintf("%s times every %s %ss", freq, period, unit)
}

func conditionTitle(res RawRecord) (string, bool) {
	name := conceptText(res.Map("code"))
	if name == "" {
		name = KindCondition.Label()
	}
	status := res.Str("clinicalStatus")
	if status == "" {
		status = conceptText(res.Map("clinicalStatus"))
	}
	return withSuffix(name, status), true
}

func diagnosticReportTitle(res RawRecord) (string, bool) {
	name := conceptText(res.Map("code"))
	if name == "" {
		if cat := conceptText(res.First("category")); cat != "" {
			name = cat + " Report"
		} else {
			name = KindDiagnosticReport.Label()
		}
	}
	if results := res.Slice("result"); len(results) > 0 {
		name = fmt.Sprintf("%s (%d results)", name, len(results))
	}
	return name, true
}

func procedureTitle(res RawRecord) (string, bool) {
	name := conceptText(res.Map("code"))
	if name == "" {
		name = KindProcedure.Label()
	}
	return withSuffix(name, res.Str("status")), true
}

func encounterTitle(res RawRecord) (string, bool) {
	name := conceptText(res.First("type"))
	if name == "" {
		class := res.Map("class")
		name = class.Str("display")
		if name == "" {
			name = class.Str("code")
		}
	}
	if name == "" {
		name = conceptText(res.Map("serviceType"))
	}
	if name == "" {
		name = KindEncounter.Label()
	}
	return withSuffix(name, res.Str("status")), true
}

func patientTitle(res RawRecord) (string, bool) {
	if name := PatientName(res); name != "" {
		return "Patient: " + name, true
	}
	return KindPatient.Label(), true
}

// PatientName renders the first name entry of a Patient, preferring its text
func PatientName(res RawRecord) string {
	name := res.First("name")
	if name == nil {
		return ""
	}
	if text := name.Str("text"); text != "" {
		return text
	}

	var parts []string
	for _, g := range name.Slice("given") {
		if s, ok := g.(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	if family := name.Str("family"); family != "" {
		parts = append(parts, family)
	} else {
		for _, f := range name.Slice("family") {
			if s, ok := f.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
	}
	return strings.Join(parts, " ")
}

// genericTitle probes common title-bearing fields for kinds without a
// dedicated adapter
func genericTitle(kind ResourceKind, res RawRecord) string {
	code := res.Map("code")
	candidates := []func() string{
		func() string { return code.Str("text") },
		func() string { return code.First("coding").Str("display") },
		func() string { return code.First("coding").Str("code") },
		func() string { return conceptText(res.Map("vaccineCode")) },
		func() string { return MedicationName(res) },
		func() string { return res.First("category").Str("text") },
		func() string { return res.First("type").Str("text") },
		func() string { return res.Str("name") },
		func() string { return res.First("name").Str("text") },
		func() string { return res.Str("title") },
		func() string { return res.Str("description") },
	}
	for _, c := range candidates {
		if s := c(); s != "" {
			return s
		}
	}
	return kind.Label()
}
