package fhir

import (
	"encoding/json"
	"strings"
)

// Wrapper field names added by the gateway around a raw clinical resource
const (
	wrapperRawField        = "resource_raw"
	wrapperSortDate        = "sort_date"
	wrapperSortTitle       = "sort_title"
	wrapperSourceType      = "source_resource_type"
	wrapperSourceID        = "source_resource_id"
	wrapperCreatedAt       = "created_at"
	wrapperUpdatedAt       = "updated_at"
	resourceTypeField      = "resourceType"
	resourceTypeFieldAltCC = "resource_type"
)

// WrapperMeta is the indexing metadata a gateway envelope carries
type WrapperMeta struct {
	ID         string
	SortDate   string
	SortTitle  string
	SourceType string
	SourceID   string
	CreatedAt  string
	UpdatedAt  string
}

// Envelope is a record split into its clinical resource and wrapper metadata.
// Records without a wrapper have Wrapped false and Resource set to the record.
type Envelope struct {
	Resource RawRecord
	Outer    RawRecord
	Meta     WrapperMeta
	Wrapped  bool
}

// Open splits a record into resource and wrapper metadata. A resource_raw
// value that is a malformed JSON string is treated as absent.
func Open(record RawRecord) Envelope {
	env := Envelope{Resource: record, Outer: record}
	if record == nil {
		return env
	}

	env.Meta = WrapperMeta{
		ID:         record.ID(),
		SortDate:   record.Str(wrapperSortDate),
		SortTitle:  record.Str(wrapperSortTitle),
		SourceType: record.Str(wrapperSourceType),
		SourceID:   record.Str(wrapperSourceID),
		CreatedAt:  record.Str(wrapperCreatedAt),
		UpdatedAt:  record.Str(wrapperUpdatedAt),
	}

	if inner := decodeInner(record[wrapperRawField]); inner != nil {
		env.Resource = inner
		env.Wrapped = true
	}
	return env
}

func decodeInner(v interface{}) RawRecord {
	switch raw := v.(type) {
	case map[string]interface{}:
		return RawRecord(raw)
	case RawRecord:
		return raw
	case string:
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		var inner map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &inner); err != nil {
			return nil
		}
		return RawRecord(inner)
	}
	return nil
}

// Kind resolves the resource kind: the resource's own type, then the outer
// record's type, then the wrapper's declared source type.
func (e Envelope) Kind() ResourceKind {
	candidates := []string{
		e.Resource.Str(resourceTypeField),
		e.Outer.Str(resourceTypeField),
		e.Outer.Str(resourceTypeFieldAltCC),
		e.Meta.SourceType,
	}
	for _, c := range candidates {
		if c != "" {
			return ParseResourceKind(c)
		}
	}
	return KindUnknown
}

// NaturalID is the resource's own id, then the wrapper's source id, then the
// wrapper's own id. Empty when none exists.
func (e Envelope) NaturalID() string {
	if id := e.Resource.ID(); id != "" {
		return id
	}
	if e.Wrapped {
		if e.Meta.SourceID != "" {
			return e.Meta.SourceID
		}
		return e.Meta.ID
	}
	return ""
}

// SelfReportsKind reports whether the record names its own type anywhere
func SelfReportsKind(record RawRecord) bool {
	env := Open(record)
	return env.Resource.Str(resourceTypeField) != "" ||
		env.Outer.Str(resourceTypeField) != "" ||
		env.Outer.Str(resourceTypeFieldAltCC) != "" ||
		env.Meta.SourceType != ""
}

// TagKind returns a shallow copy of record carrying kind as its resourceType.
// Records that already report a type are returned unchanged.
func TagKind(record RawRecord, kind ResourceKind) RawRecord {
	if record == nil || SelfReportsKind(record) {
		return record
	}
	tagged := make(RawRecord, len(record)+1)
	for k, v := range record {
		tagged[k] = v
	}
	tagged[resourceTypeField] = string(kind)
	return tagged
}
