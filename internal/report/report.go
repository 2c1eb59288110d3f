// Package report builds attendance summaries and per-student groupings
// over the record set. Everything here is a pure read.
package report

import (
	"sort"
	"time"

	"scanattend/internal/attendance"
)

// Summary are the headline numbers for a filtered record set.
type Summary struct {
	UniqueStudents int `json:"unique_students"`
	Present        int `json:"present"`
	Complete       int `json:"complete"`
	Percentage     int `json:"percentage"`
}

// StudentGroup collects one student's cycles within the filtered range.
type StudentGroup struct {
	StudentID string   `json:"student_id"`
	Name      string   `json:"name"`
	Grade     string   `json:"grade"`
	Section   string   `json:"section"`
	Entries   []string `json:"entries"`
	Exits     []string `json:"exits"`
	Status    string   `json:"status"`
}

// FilterDate keeps records on the exact calendar day.
func FilterDate(records []attendance.Record, date string) []attendance.Record {
	var out []attendance.Record
	for _, rec := range records {
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	return out
}

// FilterRange keeps records with start <= date <= end.
func FilterRange(records []attendance.Record, start, end string) []attendance.Record {
	var out []attendance.Record
	for _, rec := range records {
		if rec.Date >= start && rec.Date <= end {
			out = append(out, rec)
		}
	}
	return out
}

// FilterToday keeps records for the current local day.
func FilterToday(records []attendance.Record, now time.Time) []attendance.Record {
	return FilterDate(records, attendance.DateOf(now))
}

// FilterWeek keeps records in the Sunday-to-Saturday week containing now.
func FilterWeek(records []attendance.Record, now time.Time) []attendance.Record {
	start, end, err := attendance.WeekWindow(attendance.DateOf(now))
	if err != nil {
		return nil
	}
	return FilterRange(records, start, end)
}

// Summarize computes the headline cards for a filtered set. Counts are per
// unique student, not per record: a student with three cycles is still one
// present student.
func Summarize(records []attendance.Record) Summary {
	seen := map[string]bool{}
	present := map[string]bool{}
	complete := map[string]bool{}
	for _, rec := range records {
		seen[rec.StudentID] = true
		present[rec.StudentID] = true
		if rec.ExitTime != nil {
			complete[rec.StudentID] = true
		}
	}

	pct := 0
	if len(seen) > 0 {
		pct = int(float64(len(present))/float64(len(seen))*100 + 0.5)
	}
	return Summary{
		UniqueStudents: len(seen),
		Present:        len(present),
		Complete:       len(complete),
		Percentage:     pct,
	}
}

// GroupByStudent folds a filtered set into one row per student with all
// entry and exit times, sorted by student id for stable output.
func GroupByStudent(records []attendance.Record) []StudentGroup {
	byID := map[string]*StudentGroup{}
	for _, rec := range records {
		g, ok := byID[rec.StudentID]
		if !ok {
			g = &StudentGroup{
				StudentID: rec.StudentID,
				Name:      rec.Name,
				Grade:     rec.Grade,
				Section:   rec.Section,
			}
			byID[rec.StudentID] = g
		}
		g.Entries = append(g.Entries, rec.EntryTime.String())
		if rec.ExitTime != nil {
			g.Exits = append(g.Exits, rec.ExitTime.String())
		}
	}

	out := make([]StudentGroup, 0, len(byID))
	for _, g := range byID {
		switch {
		case len(g.Entries) > 0 && len(g.Exits) > 0:
			g.Status = "Complete"
		case len(g.Entries) > 0:
			g.Status = "Entry only"
		default:
			g.Status = "Absent"
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

// DailyStats are the live counters shown on the scan screen.
type DailyStats struct {
	UniqueStudents int `json:"unique_students"`
	Entries        int `json:"entries"`
	Exits          int `json:"exits"`
}

// StatsForDay computes the scan-screen counters for one day.
func StatsForDay(records []attendance.Record, date string) DailyStats {
	day := FilterDate(records, date)
	students := map[string]bool{}
	stats := DailyStats{}
	for _, rec := range day {
		students[rec.StudentID] = true
		stats.Entries++
		if rec.ExitTime != nil {
			stats.Exits++
		}
	}
	stats.UniqueStudents = len(students)
	return stats
}
