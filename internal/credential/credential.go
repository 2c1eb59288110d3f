// Package credential builds printable student credentials: the canonical
// QR payload, PNG encoding, and bulk roster import from CSV.
package credential

import (
	"encoding/json"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"scanattend/internal/identity"
)

// Payload returns the canonical QR payload for a student. It round-trips
// through identity.Parse, so credentials printed here always scan cleanly.
func Payload(s identity.Student) (string, error) {
	if s.ID == "" || s.DisplayName == "" {
		return "", identity.ErrInvalidIdentity
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PNG encodes the student's payload as a QR image of the given pixel size.
func PNG(s identity.Student, size int) ([]byte, error) {
	payload, err := Payload(s)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}

// ImportError describes one rejected roster line.
type ImportError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportRoster parses a pasted roster, one student per line as
// "matricula,nombre,grado,grupo". A header line mentioning "matricula" is
// skipped, as are blank lines. Malformed lines are reported with their
// original line number, never fatal.
func ImportRoster(text string) ([]identity.Student, []ImportError) {
	var students []identity.Student
	var errs []ImportError

	for i, raw := range strings.Split(text, "\n") {
		line := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if line == 1 && strings.Contains(strings.ToLower(trimmed), "matricula") {
			continue
		}

		fields := strings.Split(trimmed, ",")
		if len(fields) < 4 {
			errs = append(errs, ImportError{Line: line, Reason: fmt.Sprintf("expected 4 fields, got %d", len(fields))})
			continue
		}
		s := identity.Student{
			ID:          strings.TrimSpace(fields[0]),
			DisplayName: strings.TrimSpace(fields[1]),
			GradeLevel:  strings.TrimSpace(fields[2]),
			Section:     strings.TrimSpace(fields[3]),
		}
		if s.ID == "" || s.DisplayName == "" || s.GradeLevel == "" || s.Section == "" {
			errs = append(errs, ImportError{Line: line, Reason: "empty field"})
			continue
		}
		students = append(students, s)
	}
	return students, errs
}
