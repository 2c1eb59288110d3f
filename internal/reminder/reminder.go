// Package reminder runs the periodic exit-reminder tick: after the
// configured hour it reports students still inside the building.
package reminder

import (
	"context"
	"log"
	"time"

	"scanattend/internal/attendance"
)

// Job polls the record store and logs when open cycles remain late in the
// day. It only reads; scan handling owns all writes, so a slightly stale
// view between ticks is fine.
type Job struct {
	store *attendance.Store
	hour  int
	every time.Duration
	nowFn func() time.Time
}

// New creates a reminder job firing every interval once the local hour
// reaches hour.
func New(store *attendance.Store, hour int, every time.Duration) *Job {
	if every <= 0 {
		every = time.Minute
	}
	return &Job{store: store, hour: hour, every: every, nowFn: time.Now}
}

// SetNow overrides the clock. Tests only.
func (j *Job) SetNow(now func() time.Time) { j.nowFn = now }

// OpenCount returns how many of today's cycles are still open.
func (j *Job) OpenCount() int {
	now := j.nowFn()
	open := 0
	for _, rec := range j.store.ForDate(attendance.DateOf(now)) {
		if rec.Open() {
			open++
		}
	}
	return open
}

// Due reports whether the reminder window is active.
func (j *Job) Due() bool {
	return j.nowFn().Hour() >= j.hour
}

// Run ticks until the context is cancelled. Stopping the job never touches
// recorded attendance.
func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !j.Due() {
				continue
			}
			if open := j.OpenCount(); open > 0 {
				log.Printf("reminder: %d student(s) have not registered an exit yet", open)
			}
		}
	}
}
