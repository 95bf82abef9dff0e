package fhir

import "errors"

var (
	// ErrMalformedResponse marks a body that is not JSON or has no recognizable envelope
	ErrMalformedResponse = errors.New("malformed response")

	// ErrMissingPatientContext means no identity has been designated as the self-patient
	ErrMissingPatientContext = errors.New("no self-patient designated")
)
