package rate

import "time"

// Latest returns the current version of every date in stored.
func Latest(stored []Record) map[string]Record {
	current := make(map[string]Record, len(stored))
	for _, s := range stored {
		cur, ok := current[s.Date]
		if !ok || s.newerThan(cur) {
			current[s.Date] = s
		}
	}
	return current
}

// Reconcile compares freshly parsed records against the stored history and
// returns the records that must be written. Incoming records with no stored
// version are new; records whose rates differ from the current stored version
// are amendments. Neither input is modified.
func Reconcile(stored, incoming []Record, now time.Time) WriteSet {
	now = now.UTC()
	current := Latest(stored)
	seen := make(map[string]bool, len(incoming))

	var ws WriteSet
	for _, in := range incoming {
		if seen[in.Date] {
			ws.Duplicates = append(ws.Duplicates, in.Date)
			continue
		}
		seen[in.Date] = true

		candidate, ok := current[in.Date]
		if !ok {
			r := in.clone()
			r.ID = 0
			r.DateAdded = now
			r.Amended = false
			ws.Records = append(ws.Records, r)
			continue
		}

		if sameRates(candidate.Rates, in.Rates) {
			continue
		}

		r := in.clone()
		r.ID = 0
		r.DateAdded = now
		r.TimeAdded = now.Format(TimeAddedFormat)
		r.Amended = true
		ws.Records = append(ws.Records, r)
		ws.AmendedDates = append(ws.AmendedDates, in.Date)
	}
	return ws
}

// sameRates compares position by position. A length mismatch is a difference.
func sameRates(stored, incoming []string) bool {
	if len(stored) != len(incoming) {
		return false
	}
	for i := range stored {
		if stored[i] != incoming[i] {
			return false
		}
	}
	return true
}
