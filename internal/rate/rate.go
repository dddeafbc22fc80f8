package rate

import "time"

// TimeAddedFormat renders the clock part of a record's provenance timestamp.
const TimeAddedFormat = "15:04:05 MST"

// Record is one published week of rates. Several versions may exist for the
// same Date; the current one is the version with the latest DateAdded.
type Record struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	DateISO   time.Time `json:"dateISO"`
	Rates     []string  `json:"rates"`
	DateAdded time.Time `json:"dateAdded"`
	TimeAdded string    `json:"timeAdded"`
	Amended   bool      `json:"amended"`
}

// clone returns a copy that shares no memory with r.
func (r Record) clone() Record {
	cp := r
	if r.Rates != nil {
		cp.Rates = make([]string, len(r.Rates))
		copy(cp.Rates, r.Rates)
	}
	return cp
}

// newerThan reports whether r supersedes o. Equal timestamps fall back to the
// store-assigned insertion sequence.
func (r Record) newerThan(o Record) bool {
	if !r.DateAdded.Equal(o.DateAdded) {
		return r.DateAdded.After(o.DateAdded)
	}
	return r.ID > o.ID
}

// WriteSet is what a reconciliation pass must persist.
type WriteSet struct {
	// Records holds new weeks and amendments in feed order.
	Records []Record
	// AmendedDates lists the dates whose stored versions must be flagged
	// amended before Records are inserted.
	AmendedDates []string
	// Duplicates lists dates that appeared more than once in the feed. Only
	// the first occurrence is reconciled.
	Duplicates []string
}

func (w WriteSet) Empty() bool { return len(w.Records) == 0 }

// Counts returns the number of new weeks and amendments in the write-set.
func (w WriteSet) Counts() (added, amended int) {
	for _, r := range w.Records {
		if r.Amended {
			amended++
		} else {
			added++
		}
	}
	return added, amended
}
