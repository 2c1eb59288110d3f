package attendance

// ShiftPolicy holds the tardiness configuration for one shift.
// Shifts never span midnight.
type ShiftPolicy struct {
	Name             string
	OfficialStart    TimeOfDay
	ToleranceMinutes int
}

// Classification is the result of judging one arrival against a shift.
type Classification struct {
	MinutesLate       int       `json:"minutes_late"`
	IsLate            bool      `json:"is_late"`
	ExceedsTolerance  bool      `json:"exceeds_tolerance"`
	ToleranceDeadline TimeOfDay `json:"tolerance_deadline"`
}

// Classify judges an arrival time against the shift schedule.
//
// IsLate is the loose reading: any arrival past the official start, even
// inside the tolerance window. ExceedsTolerance is the actionable flag:
// arrival strictly after start+tolerance. MinutesLate counts whole minutes
// past the official start, never negative.
func (p ShiftPolicy) Classify(arrival TimeOfDay) Classification {
	minutesLate := arrival.MinutesFrom(p.OfficialStart)
	if minutesLate < 0 {
		minutesLate = 0
	}
	deadline := p.OfficialStart.AddMinutes(p.ToleranceMinutes)
	return Classification{
		MinutesLate:       minutesLate,
		IsLate:            arrival > p.OfficialStart,
		ExceedsTolerance:  arrival > deadline,
		ToleranceDeadline: deadline,
	}
}
