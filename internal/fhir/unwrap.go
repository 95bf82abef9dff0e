package fhir

import (
	"encoding/json"
	"fmt"
)

// listFields are probed in this order after the Bundle check
var listFields = []string{"results", "data", "rows"}

// UnwrapJSON decodes a response body and unwraps it. Undecodable bodies yield
// no records and an ErrMalformedResponse error for the caller's diagnostics.
func UnwrapJSON(data []byte) ([]RawRecord, error) {
	var body interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return Unwrap(body)
}

// Unwrap locates the list of resource records in a decoded response body.
// Shapes are checked in a fixed order: direct array, Bundle entries,
// results, data, rows, a nested data object, then a single resource.
func Unwrap(body interface{}) ([]RawRecord, error) {
	return unwrap(body, 0)
}

func unwrap(body interface{}, depth int) ([]RawRecord, error) {
	switch v := body.(type) {
	case []interface{}:
		return recordsOf(v), nil
	case map[string]interface{}:
		obj := RawRecord(v)

		if obj.Str(resourceTypeField) == "Bundle" {
			var out []RawRecord
			for _, e := range obj.Slice("entry") {
				if res := asRecord(e).Map("resource"); res != nil {
					out = append(out, res)
				}
			}
			return out, nil
		}

		for _, field := range listFields {
			if list, ok := obj[field].([]interface{}); ok {
				return recordsOf(list), nil
			}
		}

		if nested, ok := obj["data"].(map[string]interface{}); ok && depth == 0 {
			if records, err := unwrap(nested, depth+1); err == nil {
				return records, nil
			}
		}

		if looksLikeResource(obj) {
			return []RawRecord{obj}, nil
		}
		return nil, fmt.Errorf("%w: no record list in object with %d fields", ErrMalformedResponse, len(obj))
	case nil:
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	return nil, fmt.Errorf("%w: unexpected %T body", ErrMalformedResponse, body)
}

func recordsOf(list []interface{}) []RawRecord {
	out := make([]RawRecord, 0, len(list))
	for _, item := range list {
		if rec := asRecord(item); rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

func looksLikeResource(obj RawRecord) bool {
	return obj.Str(resourceTypeField) != "" ||
		obj.Has("code") ||
		obj.Has(wrapperRawField) ||
		obj.Str(wrapperSourceType) != ""
}
