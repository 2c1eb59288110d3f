package attendance

import "time"

// DateLayout is the calendar-day format used on records, local time.
const DateLayout = "2006-01-02"

// DateOf returns the calendar day of a wall-clock instant.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// Record is one entry/exit cycle for one student on one calendar day.
// EntryTime is set once at creation; ExitTime is set at most once. A record
// with no ExitTime is an open cycle. Closed records are never reopened: a
// later scan on the same day starts a fresh record.
type Record struct {
	RecordID            string     `json:"record_id"`
	StudentID           string     `json:"student_id"`
	Name                string     `json:"name"`
	Grade               string     `json:"grade"`
	Section             string     `json:"section"`
	Date                string     `json:"date"`
	EntryTime           TimeOfDay  `json:"entry_time"`
	ExitTime            *TimeOfDay `json:"exit_time,omitempty"`
	IsTardy             bool       `json:"is_tardy"`
	TardyMinutes        int        `json:"tardy_minutes"`
	WeeklyLimitExceeded bool       `json:"weekly_limit_exceeded"`
}

// Open reports whether the record is an open cycle (entry without exit).
func (r Record) Open() bool {
	return r.ExitTime == nil
}

// Status derives the export status label for the record. Every record is
// created with an entry time, so "No record" only appears for absent rows
// synthesized by reports.
func (r Record) Status() string {
	if r.ExitTime != nil {
		return "Complete"
	}
	return "Entry only"
}
