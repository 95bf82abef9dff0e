package fhir

import (
	"encoding/json"

	"github.com/google/uuid"
)

var syntheticIDSpace = uuid.MustParse("6f1c2a8e-3b7d-4c52-9e0a-5d8f41b7c903")

// syntheticID derives a stable id from the record content. encoding/json
// sorts map keys, so equal records always hash to the same id.
func syntheticID(record RawRecord) string {
	data, err := json.Marshal(record)
	if err != nil {
		return uuid.NewString()
	}
	return uuid.NewSHA1(syntheticIDSpace, data).String()
}
