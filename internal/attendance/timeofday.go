package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay is a clock time within one calendar day, stored as seconds
// since local midnight. It serializes as "HH:MM:SS" so persisted records
// survive reloads without precision loss.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM:SS" clock string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay(h*3600 + m*60 + sec), nil
}

// MustTimeOfDay parses an "HH:MM:SS" string and panics on bad input.
// Intended for configuration defaults and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ClockOf extracts the time of day from a wall-clock instant in its location.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// AddMinutes returns the time shifted forward by the given minutes.
// Shifts never span midnight, so no wraparound handling.
func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	return t + TimeOfDay(m*60)
}

// MinutesFrom returns whole minutes elapsed since the given earlier time,
// truncated toward zero.
func (t TimeOfDay) MinutesFrom(start TimeOfDay) int {
	return int(t-start) / 60
}

func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// MarshalJSON encodes the time as an "HH:MM:SS" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an "HH:MM:SS" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
