package fhir

import "sort"

// DedupeRaw drops repeated raw records sharing kind and id, first occurrence
// winning. Records without any id cannot be keyed and are all kept.
func DedupeRaw(records []RawRecord) []RawRecord {
	seen := make(map[string]bool, len(records))
	out := make([]RawRecord, 0, len(records))

	for _, r := range records {
		env := Open(r)
		id := env.NaturalID()
		if id == "" {
			out = append(out, r)
			continue
		}
		key := string(env.Kind()) + "|" + id
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// DedupeNormalized collapses records describing the same clinical fact, keyed
// by title|date|provider. A record naming its provider replaces an earlier
// record with the same title and date whose provider is unknown; otherwise
// the first occurrence wins. The result is sorted by date, newest first, with
// undated records last in their original order.
func DedupeNormalized(records []NormalizedRecord) []NormalizedRecord {
	out := make([]NormalizedRecord, 0, len(records))
	exact := make(map[string]bool, len(records))
	// title|date -> positions in out, used to match unknown-provider duplicates
	byFact := make(map[string][]int, len(records))

	for _, r := range records {
		key := r.Title + "|" + r.Date + "|" + r.Provider
		if exact[key] {
			continue
		}
		fact := r.Title + "|" + r.Date

		if r.Provider == UnknownProvider {
			if len(byFact[fact]) > 0 {
				// a record for the same fact is already kept and is at least as informative
				continue
			}
		} else if idx, ok := unknownProviderAt(out, byFact[fact]); ok {
			delete(exact, out[idx].Title+"|"+out[idx].Date+"|"+out[idx].Provider)
			out[idx] = r
			exact[key] = true
			continue
		}

		exact[key] = true
		byFact[fact] = append(byFact[fact], len(out))
		out = append(out, r)
	}

	SortByDate(out)
	return out
}

func unknownProviderAt(records []NormalizedRecord, positions []int) (int, bool) {
	for _, i := range positions {
		if records[i].Provider == UnknownProvider {
			return i, true
		}
	}
	return 0, false
}

// SortByDate orders records newest first; undated records go last and keep
// their relative order
func SortByDate(records []NormalizedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.Dated() && b.Dated():
			return a.Timestamp.After(b.Timestamp)
		case a.Dated():
			return true
		}
		return false
	})
}
