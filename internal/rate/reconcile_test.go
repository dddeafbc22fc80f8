package rate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC)
	now  = time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
)

func rec(date string, rates ...string) Record {
	return Record{Date: date, Rates: rates}
}

func TestReconcile_NewWeek(t *testing.T) {
	stored := []Record{{ID: 1, Date: "1/1/2024", Rates: []string{"5.0", "5.2"}, DateAdded: day1}}
	incoming := []Record{rec("1/8/2024", "5.1", "5.3")}

	ws := Reconcile(stored, incoming, now)
	require.Len(t, ws.Records, 1)
	got := ws.Records[0]
	assert.Equal(t, "1/8/2024", got.Date)
	assert.False(t, got.Amended)
	assert.Equal(t, now, got.DateAdded)
	assert.Empty(t, ws.AmendedDates)

	added, amended := ws.Counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, amended)
}

func TestReconcile_Amendment(t *testing.T) {
	stored := []Record{{ID: 1, Date: "1/1/2024", Rates: []string{"5.0"}, DateAdded: day1}}
	incoming := []Record{rec("1/1/2024", "5.05")}

	ws := Reconcile(stored, incoming, now)
	require.Len(t, ws.Records, 1)
	got := ws.Records[0]
	assert.True(t, got.Amended)
	assert.Equal(t, []string{"5.05"}, got.Rates)
	assert.Equal(t, now, got.DateAdded)
	assert.Equal(t, now.Format(TimeAddedFormat), got.TimeAdded)
	assert.Equal(t, []string{"1/1/2024"}, ws.AmendedDates)

	_, amended := ws.Counts()
	assert.Equal(t, 1, amended)
}

func TestReconcile_NoOpOnMatch(t *testing.T) {
	stored := []Record{{ID: 1, Date: "1/1/2024", Rates: []string{"5.0", "5.2"}, DateAdded: day1}}
	incoming := []Record{rec("1/1/2024", "5.0", "5.2")}

	ws := Reconcile(stored, incoming, now)
	assert.True(t, ws.Empty())
	assert.Empty(t, ws.AmendedDates)
}

func TestReconcile_LexicalComparison(t *testing.T) {
	stored := []Record{{ID: 1, Date: "1/1/2024", Rates: []string{"5.0"}, DateAdded: day1}}
	ws := Reconcile(stored, []Record{rec("1/1/2024", "5.00")}, now)
	require.Len(t, ws.Records, 1, "5.00 and 5.0 are different publications")
	assert.True(t, ws.Records[0].Amended)
}

func TestReconcile_LengthMismatchIsAmendment(t *testing.T) {
	stored := []Record{{ID: 1, Date: "1/1/2024", Rates: []string{"5.0", "5.2"}, DateAdded: day1}}

	shorter := Reconcile(stored, []Record{rec("1/1/2024", "5.0")}, now)
	require.Len(t, shorter.Records, 1)
	assert.True(t, shorter.Records[0].Amended)

	longer := Reconcile(stored, []Record{rec("1/1/2024", "5.0", "5.2", "5.4")}, now)
	require.Len(t, longer.Records, 1)
	assert.True(t, longer.Records[0].Amended)
}

func TestReconcile_LatestVersionIsCandidate(t *testing.T) {
	newer := Record{ID: 1, Date: "1/1/2024", Rates: []string{"5.05"}, DateAdded: day2}
	older := Record{ID: 2, Date: "1/1/2024", Rates: []string{"5.0"}, DateAdded: day1}

	for name, stored := range map[string][]Record{
		"newer first": {newer, older},
		"older first": {older, newer},
	} {
		t.Run(name, func(t *testing.T) {
			matchesNewer := Reconcile(stored, []Record{rec("1/1/2024", "5.05")}, now)
			assert.True(t, matchesNewer.Empty())

			matchesOlder := Reconcile(stored, []Record{rec("1/1/2024", "5.0")}, now)
			require.Len(t, matchesOlder.Records, 1)
			assert.True(t, matchesOlder.Records[0].Amended)
		})
	}
}

func TestReconcile_TieBreakOnInsertionSequence(t *testing.T) {
	first := Record{ID: 7, Date: "1/1/2024", Rates: []string{"5.0"}, DateAdded: day1}
	second := Record{ID: 9, Date: "1/1/2024", Rates: []string{"5.1"}, DateAdded: day1}

	ws := Reconcile([]Record{second, first}, []Record{rec("1/1/2024", "5.1")}, now)
	assert.True(t, ws.Empty(), "higher ID wins when dateAdded ties")

	unsavedA := Record{Date: "1/1/2024", Rates: []string{"5.0"}, DateAdded: day1}
	unsavedB := Record{Date: "1/1/2024", Rates: []string{"5.1"}, DateAdded: day1}
	ws = Reconcile([]Record{unsavedA, unsavedB}, []Record{rec("1/1/2024", "5.0")}, now)
	assert.True(t, ws.Empty(), "first encountered wins on a full tie")
}

func TestReconcile_PreservesIncomingOrder(t *testing.T) {
	stored := []Record{{ID: 1, Date: "1/8/2024", Rates: []string{"5.0"}, DateAdded: day1}}
	incoming := []Record{
		rec("1/15/2024", "5.3"),
		rec("1/8/2024", "5.1"),
		rec("1/1/2024", "4.9"),
	}

	ws := Reconcile(stored, incoming, now)
	require.Len(t, ws.Records, 3)
	assert.Equal(t, "1/15/2024", ws.Records[0].Date)
	assert.Equal(t, "1/8/2024", ws.Records[1].Date)
	assert.True(t, ws.Records[1].Amended)
	assert.Equal(t, "1/1/2024", ws.Records[2].Date)
}

func TestReconcile_DuplicateDatesInFeed(t *testing.T) {
	incoming := []Record{rec("1/1/2024", "5.0"), rec("1/1/2024", "5.1")}

	ws := Reconcile(nil, incoming, now)
	require.Len(t, ws.Records, 1)
	assert.Equal(t, []string{"5.0"}, ws.Records[0].Rates)
	assert.Equal(t, []string{"1/1/2024"}, ws.Duplicates)
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	stored := []Record{{ID: 1, Date: "1/1/2024", Rates: []string{"5.0"}, DateAdded: day1}}
	incoming := []Record{{Date: "1/1/2024", Rates: []string{"5.05"}, DateAdded: day2, TimeAdded: "09:00:00 UTC"}}

	ws := Reconcile(stored, incoming, now)
	require.Len(t, ws.Records, 1)

	assert.False(t, incoming[0].Amended)
	assert.Equal(t, day2, incoming[0].DateAdded)
	assert.Equal(t, "09:00:00 UTC", incoming[0].TimeAdded)
	assert.False(t, stored[0].Amended)

	ws.Records[0].Rates[0] = "changed"
	assert.Equal(t, "5.05", incoming[0].Rates[0])
}

func TestReconcile_Idempotent(t *testing.T) {
	stored := []Record{
		{ID: 1, Date: "1/1/2024", Rates: []string{"5.0"}, DateAdded: day1},
		{ID: 2, Date: "1/8/2024", Rates: []string{"5.2"}, DateAdded: day1},
	}
	incoming := []Record{
		rec("1/1/2024", "5.05"),
		rec("1/8/2024", "5.2"),
		rec("1/15/2024", "5.3"),
	}

	first := Reconcile(stored, incoming, now)
	require.Len(t, first.Records, 2)

	// Apply the write-set the way the store does.
	nextID := int64(3)
	for i := range stored {
		for _, d := range first.AmendedDates {
			if stored[i].Date == d {
				stored[i].Amended = true
			}
		}
	}
	for _, r := range first.Records {
		r.ID = nextID
		nextID++
		stored = append(stored, r)
	}

	second := Reconcile(stored, incoming, now.Add(time.Hour))
	assert.True(t, second.Empty())
}

func TestLatest(t *testing.T) {
	stored := []Record{
		{ID: 1, Date: "1/1/2024", Rates: []string{"5.0"}, DateAdded: day1},
		{ID: 2, Date: "1/8/2024", Rates: []string{"5.2"}, DateAdded: day1},
		{ID: 3, Date: "1/1/2024", Rates: []string{"5.05"}, DateAdded: day2, Amended: true},
	}

	got := Latest(stored)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got["1/1/2024"].ID)
	assert.Equal(t, int64(2), got["1/8/2024"].ID)
}
