package fhir

import (
	"sort"
	"strings"
	"time"
)

// VitalType is a coarse measurement category
type VitalType string

const (
	VitalBloodPressure VitalType = "blood-pressure"
	VitalHeartRate     VitalType = "heart-rate"
	VitalTemperature   VitalType = "temperature"
	VitalWeight        VitalType = "weight"
	VitalBMI           VitalType = "bmi"
	VitalHeight        VitalType = "height"
	VitalGlucose       VitalType = "glucose"
	VitalOxygen        VitalType = "oxygen"
	VitalRespiratory   VitalType = "respiratory"
	VitalOther         VitalType = "other"
)

// VitalSignSample is the latest value of one vital type
type VitalSignSample struct {
	Type          VitalType `json:"vitalType"`
	DisplayName   string    `json:"displayName"`
	Value         string    `json:"value"`
	ObservedAt    time.Time `json:"observedAt"`
	FormattedDate string    `json:"formattedDate"`
}

type vitalRule struct {
	vital    VitalType
	display  string
	codes    []string
	keywords []string
}

// vitalRules are checked in order; codes of every rule are matched before any
// keyword is tried
var vitalRules = []vitalRule{
	{VitalBloodPressure, "Blood Pressure", []string{"8480-6", "8462-4", "85354-9", "55284-4"}, []string{"blood pressure"}},
	// oxygen before heart rate: pulse oximetry displays mention "pulse"
	{VitalOxygen, "Oxygen Saturation", []string{"2708-6", "59408-5"}, []string{"oxygen", "spo2", "pulse ox"}},
	{VitalHeartRate, "Heart Rate", []string{"8867-4"}, []string{"heart rate", "pulse"}},
	{VitalTemperature, "Temperature", []string{"8310-5"}, []string{"temperature"}},
	{VitalWeight, "Weight", []string{"29463-7"}, []string{"weight"}},
	{VitalBMI, "BMI", []string{"39156-5"}, []string{"bmi", "body mass index"}},
	{VitalHeight, "Height", []string{"8302-2"}, []string{"height"}},
	{VitalGlucose, "Glucose", []string{"2339-0"}, []string{"glucose"}},
	{VitalRespiratory, "Respiratory Rate", []string{"9279-1"}, []string{"respiratory", "respiration"}},
}

// ClassifyVital returns the vital type of an Observation resource, matching
// LOINC codes first and display keywords second. Unmatched observations are
// VitalOther.
func ClassifyVital(res RawRecord) (VitalType, string) {
	code := res.Map("code")
	codes := conceptCodes(code)
	for _, c := range res.Slice("component") {
		codes = append(codes, conceptCodes(asRecord(c).Map("code"))...)
	}

	for _, rule := range vitalRules {
		for _, want := range rule.codes {
			if containsCode(codes, want) {
				return rule.vital, rule.display
			}
		}
	}

	text := strings.ToLower(conceptText(code) + " " + code.Str("text"))
	for _, rule := range vitalRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.vital, rule.display
			}
		}
	}
	return VitalOther, ""
}

// ReduceVitals keeps the most recent sample per vital type. A sample replaces
// the stored one only when its timestamp is strictly later; undated samples
// never replace a stored one, and a dated sample always replaces an undated
// one. Observations without a value are skipped. Unclassified observations
// only count as VitalOther when categorized as vital signs. Output is sorted
// by display name.
func ReduceVitals(records []RawRecord) []VitalSignSample {
	slots := make(map[VitalType]VitalSignSample)

	for _, r := range records {
		env := Open(r)
		if env.Kind() != KindObservation {
			continue
		}
		value, ok := ObservationValue(env.Resource)
		if !ok {
			continue
		}

		vital, display := ClassifyVital(env.Resource)
		if vital == VitalOther {
			if Categorize(KindObservation, env.Resource) != CategoryVitals {
				continue
			}
			display = conceptText(env.Resource.Map("code"))
			if display == "" {
				display = "Other"
			}
		}

		raw := rawDate(env)
		observedAt, _ := ParseDate(raw)
		sample := VitalSignSample{
			Type:          vital,
			DisplayName:   display,
			Value:         value,
			ObservedAt:    observedAt,
			FormattedDate: FormatDate(raw),
		}

		current, exists := slots[vital]
		if !exists || newerSample(sample, current) {
			slots[vital] = sample
		}
	}

	out := make([]VitalSignSample, 0, len(slots))
	for _, s := range slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName == out[j].DisplayName {
			return out[i].Type < out[j].Type
		}
		return out[i].DisplayName < out[j].DisplayName
	})
	return out
}

func newerSample(candidate, current VitalSignSample) bool {
	if candidate.ObservedAt.IsZero() {
		return false
	}
	if current.ObservedAt.IsZero() {
		return true
	}
	return candidate.ObservedAt.After(current.ObservedAt)
}
