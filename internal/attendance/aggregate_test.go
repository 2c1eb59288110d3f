package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lateRecord(studentID, date, entry string) Record {
	return Record{
		RecordID:  "r-" + date + "-" + entry,
		StudentID: studentID,
		Date:      date,
		EntryTime: MustTimeOfDay(entry),
	}
}

func TestWeekWindow(t *testing.T) {
	// 2026-08-31 is a Monday.
	start, end, err := WeekWindow("2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30", start)
	assert.Equal(t, "2026-09-05", end)

	// A Sunday is its own week start.
	start, end, err = WeekWindow("2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30", start)
	assert.Equal(t, "2026-09-05", end)
}

func TestCountWeeklyTardies(t *testing.T) {
	p := morningShift()
	records := []Record{
		lateRecord("A1", "2026-08-31", "07:15:00"), // Monday, tardy
		lateRecord("A1", "2026-09-01", "07:20:00"), // Tuesday, tardy
		lateRecord("A1", "2026-09-02", "07:05:00"), // inside tolerance
		lateRecord("A1", "2026-08-29", "07:30:00"), // previous week
		lateRecord("B2", "2026-08-31", "07:30:00"), // other student
	}

	tally, err := CountWeeklyTardies("A1", "2026-09-02", records, p, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, tally.Total)
	assert.False(t, tally.CapExceeded)
	assert.Equal(t, 1, tally.Remaining)
}

func TestCountWeeklyTardiesCap(t *testing.T) {
	p := morningShift()
	records := []Record{
		lateRecord("A1", "2026-08-31", "07:15:00"),
		lateRecord("A1", "2026-09-01", "07:15:00"),
		lateRecord("A1", "2026-09-02", "07:15:00"),
	}

	tally, err := CountWeeklyTardies("A1", "2026-09-03", records, p, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, tally.Total)
	assert.True(t, tally.CapExceeded)
	assert.Equal(t, 0, tally.Remaining)
}

func TestCountWeeklyTardiesIgnoresStoredFlags(t *testing.T) {
	p := morningShift()
	// Stored flags claim tardy, but the raw entry time is on time. The
	// recomputed classification wins.
	rec := lateRecord("A1", "2026-08-31", "06:55:00")
	rec.IsTardy = true
	rec.TardyMinutes = 99

	tally, err := CountWeeklyTardies("A1", "2026-08-31", []Record{rec}, p, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Total)
	assert.Equal(t, 3, tally.Remaining)
}
