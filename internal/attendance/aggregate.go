package attendance

import "time"

// WeeklyTally summarizes a student's tolerance-exceeding arrivals within
// one Sunday-to-Saturday week.
type WeeklyTally struct {
	Total       int  `json:"total"`
	CapExceeded bool `json:"cap_exceeded"`
	Remaining   int  `json:"remaining"`
}

// WeekWindow returns the Sunday and Saturday calendar days bounding the
// week that contains the given day.
func WeekWindow(date string) (start, end string, err error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", "", err
	}
	sunday := day.AddDate(0, 0, -int(day.Weekday()))
	return sunday.Format(DateLayout), sunday.AddDate(0, 0, 6).Format(DateLayout), nil
}

// CountWeeklyTardies counts the student's records in the week containing
// asOfDate whose arrival exceeds the shift tolerance.
//
// Classification is recomputed from the raw entry time on every call rather
// than read from the stored flags. The schedule configuration can change
// between sessions, so derived tardiness is never treated as ground truth
// for aggregation.
func CountWeeklyTardies(studentID, asOfDate string, records []Record, policy ShiftPolicy, weeklyCap int) (WeeklyTally, error) {
	weekStart, weekEnd, err := WeekWindow(asOfDate)
	if err != nil {
		return WeeklyTally{}, err
	}

	total := 0
	for _, rec := range records {
		if rec.StudentID != studentID {
			continue
		}
		if rec.Date < weekStart || rec.Date > weekEnd {
			continue
		}
		if policy.Classify(rec.EntryTime).ExceedsTolerance {
			total++
		}
	}

	remaining := weeklyCap - total
	if remaining < 0 {
		remaining = 0
	}
	return WeeklyTally{
		Total:       total,
		CapExceeded: total >= weeklyCap,
		Remaining:   remaining,
	}, nil
}
