package fhir

// UnknownProvider is shown when no performer-like field is present
const UnknownProvider = "Unknown Provider"

// providerProbe extracts a provider label from one resource field
type providerProbe struct {
	field string
	list  bool
}

// providerProbes is the fixed priority list of provider fields
var providerProbes = []providerProbe{
	{field: "performer", list: true},
	{field: "requester"},
	{field: "participant", list: true},
	{field: "author", list: true},
	{field: "organization"},
	{field: "custodian"},
}

func resolveProvider(resource RawRecord) string {
	for _, probe := range providerProbes {
		var v interface{}
		if probe.list {
			list := resource.Slice(probe.field)
			if len(list) == 0 {
				if resource.Has(probe.field) {
					v = resource[probe.field]
				} else {
					continue
				}
			} else {
				v = list[0]
			}
		} else {
			v = resource[probe.field]
		}

		if probe.field == "participant" {
			v = asRecord(v).Map("individual")
		}
		if label := referenceLabel(v); label != "" {
			return label
		}
	}
	return UnknownProvider
}

// referenceLabel turns a Reference-like value into a display label: its
// display, its actor's display, then the tail of its reference.
func referenceLabel(v interface{}) string {
	switch ref := v.(type) {
	case string:
		return referenceTail(ref)
	case map[string]interface{}, RawRecord:
		rec := asRecord(ref)
		if d := rec.Str("display"); d != "" {
			return d
		}
		actor := rec.Map("actor")
		if d := actor.Str("display"); d != "" {
			return d
		}
		if r := rec.Str("reference"); r != "" {
			return referenceTail(r)
		}
		if r := actor.Str("reference"); r != "" {
			return referenceTail(r)
		}
	}
	return ""
}
