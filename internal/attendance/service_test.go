package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanattend/internal/identity"
)

func testStudent() identity.Student {
	return identity.Student{ID: "A1", DisplayName: "Juan Perez", GradeLevel: "1", Section: "A"}
}

func testService(t *testing.T) *Service {
	t.Helper()
	store, _ := fileStore(t)
	return NewService(store, morningShift(), 3)
}

// Monday of the test week.
func monday(clock string) time.Time {
	tod := MustTimeOfDay(clock)
	return time.Date(2026, 8, 31, int(tod)/3600, (int(tod)/60)%60, int(tod)%60, 0, time.UTC)
}

func TestRecordScanEntryThenExit(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	first, err := svc.RecordScan(ctx, testStudent(), monday("07:15:00"))
	require.NoError(t, err)
	assert.Equal(t, KindEntry, first.Kind)
	assert.Equal(t, MustTimeOfDay("07:15:00"), first.Record.EntryTime)
	assert.True(t, first.Record.IsTardy)
	assert.Equal(t, 15, first.Record.TardyMinutes)
	require.NotNil(t, first.Classification)
	assert.True(t, first.Classification.IsLate)
	assert.True(t, first.Classification.ExceedsTolerance)
	require.NotNil(t, first.Weekly)
	assert.Equal(t, 1, first.Weekly.Total)
	assert.False(t, first.Weekly.CapExceeded)

	// Same student, same day: the open cycle closes, nothing recomputed.
	second, err := svc.RecordScan(ctx, testStudent(), monday("13:00:00"))
	require.NoError(t, err)
	assert.Equal(t, KindExit, second.Kind)
	assert.Equal(t, first.Record.RecordID, second.Record.RecordID)
	require.NotNil(t, second.Record.ExitTime)
	assert.Equal(t, MustTimeOfDay("13:00:00"), *second.Record.ExitTime)
	assert.Nil(t, second.Classification)
	assert.Nil(t, second.Weekly)
}

func TestRecordScanNeverTwoOpenCycles(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	first, err := svc.RecordScan(ctx, testStudent(), monday("07:00:00"))
	require.NoError(t, err)
	assert.Equal(t, KindEntry, first.Kind)

	// An immediate second scan is the exit, never a second entry.
	second, err := svc.RecordScan(ctx, testStudent(), monday("07:00:05"))
	require.NoError(t, err)
	assert.Equal(t, KindExit, second.Kind)
}

func TestRecordScanReentryAfterClosedCycle(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	_, err := svc.RecordScan(ctx, testStudent(), monday("07:00:00"))
	require.NoError(t, err)
	_, err = svc.RecordScan(ctx, testStudent(), monday("10:00:00"))
	require.NoError(t, err)

	third, err := svc.RecordScan(ctx, testStudent(), monday("11:30:00"))
	require.NoError(t, err)
	assert.Equal(t, KindReentry, third.Kind)
	assert.True(t, third.Record.Open())
	require.NotNil(t, third.Classification)

	// Two records for the day, only the latest open.
	recs := svc.Store().ForStudentOnDate("A1", "2026-08-31")
	require.Len(t, recs, 2)
	assert.False(t, recs[0].Open())
	assert.True(t, recs[1].Open())
}

func TestRecordScanOnTimeHasNoWeeklyTally(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	res, err := svc.RecordScan(ctx, testStudent(), monday("06:55:00"))
	require.NoError(t, err)
	assert.False(t, res.Record.IsTardy)
	assert.Equal(t, 0, res.Record.TardyMinutes)
	assert.Nil(t, res.Weekly)
}

func TestRecordScanWeeklyCapReached(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	// Three tardy arrivals Monday through Wednesday.
	for day := 0; day < 3; day++ {
		when := monday("07:20:00").AddDate(0, 0, day)
		entry, err := svc.RecordScan(ctx, testStudent(), when)
		require.NoError(t, err)
		_, err = svc.RecordScan(ctx, testStudent(), when.Add(6*time.Hour))
		require.NoError(t, err)
		if day < 2 {
			assert.False(t, entry.Record.WeeklyLimitExceeded)
		} else {
			// The third tardy meets the cap of 3.
			assert.True(t, entry.Record.WeeklyLimitExceeded)
			require.NotNil(t, entry.Weekly)
			assert.Equal(t, 3, entry.Weekly.Total)
			assert.Equal(t, 0, entry.Weekly.Remaining)
		}
	}

	// A fourth tardy the same week stays over the cap.
	fourth, err := svc.RecordScan(ctx, testStudent(), monday("07:20:00").AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.True(t, fourth.Record.WeeklyLimitExceeded)
	require.NotNil(t, fourth.Weekly)
	assert.Equal(t, 4, fourth.Weekly.Total)
	assert.True(t, fourth.Weekly.CapExceeded)
	assert.Equal(t, 0, fourth.Weekly.Remaining)
}

func TestRecordScanRejectsMissingID(t *testing.T) {
	ctx := context.Background()
	svc := testService(t)

	_, err := svc.RecordScan(ctx, identity.Student{DisplayName: "Juan"}, monday("07:00:00"))
	assert.ErrorIs(t, err, identity.ErrInvalidIdentity)
	assert.Empty(t, svc.Store().All())
}

func TestRecordScanTalliesWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewStore(loadFailBackend{}), morningShift(), 1)

	// The backend cannot be read, but the tolerance-exceeding entry still
	// gets a tally over the in-memory set.
	res, err := svc.RecordScan(ctx, testStudent(), monday("07:30:00"))
	require.NoError(t, err)
	require.NotNil(t, res.Weekly)
	assert.Equal(t, 1, res.Weekly.Total)
	assert.Equal(t, 0, res.Weekly.Remaining)
	assert.True(t, res.Weekly.CapExceeded)
	assert.True(t, res.Record.WeeklyLimitExceeded)
}

func TestRecordScanUnpersistedCycleSurvivesLaterRefresh(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewStore(failingBackend{}), morningShift(), 3)
	var pe *PersistenceError

	_, err := svc.RecordScan(ctx, testStudent(), monday("07:15:00"))
	require.ErrorAs(t, err, &pe)

	// Another student's tardy entry refreshes the store before tallying.
	other := identity.Student{ID: "B2", DisplayName: "Maria Lopez", GradeLevel: "1", Section: "A"}
	_, err = svc.RecordScan(ctx, other, monday("07:20:00"))
	require.ErrorAs(t, err, &pe)

	// The first student's open cycle was never saved but must survive:
	// their next scan is the exit, not a duplicate entry.
	require.Len(t, svc.Store().ForStudentOnDate("A1", "2026-08-31"), 1)
	res, err := svc.RecordScan(ctx, testStudent(), monday("13:00:00"))
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindExit, res.Kind)
}

func TestRecordScanPersistenceFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewStore(failingBackend{}), morningShift(), 3)

	res, err := svc.RecordScan(ctx, testStudent(), monday("07:05:00"))
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)

	// The result is complete and the in-memory record survives.
	assert.Equal(t, KindEntry, res.Kind)
	assert.Len(t, svc.Store().All(), 1)
}
