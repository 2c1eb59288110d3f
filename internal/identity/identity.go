// Package identity parses scanned QR payloads into student identities.
package identity

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrMalformedPayload means the scan text is neither structured data
	// nor usable as a fallback identifier. Nothing was mutated; the
	// operator should rescan.
	ErrMalformedPayload = errors.New("malformed scan payload")

	// ErrInvalidIdentity means required identity fields are missing after
	// the fallback. Same recovery: rescan.
	ErrInvalidIdentity = errors.New("invalid student identity")
)

// Student is the identity carried by a credential QR code.
type Student struct {
	ID          string `json:"matricula"`
	DisplayName string `json:"nombre"`
	GradeLevel  string `json:"grado"`
	Section     string `json:"grupo"`
}

// Parse decodes a scan payload.
//
// The canonical payload is a JSON object with matricula and nombre required
// and grado/grupo optional. Payloads that are not valid JSON fall back to
// treating the raw text as the identifier with a synthesized display name.
// The id is required either way.
func Parse(payload string) (Student, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Student{}, ErrMalformedPayload
	}

	var s Student
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		s = fallback(payload)
	}

	if s.ID == "" || s.DisplayName == "" {
		return Student{}, ErrInvalidIdentity
	}
	if s.GradeLevel == "" {
		s.GradeLevel = "1"
	}
	if s.Section == "" {
		s.Section = "A"
	}
	return s, nil
}

// fallback synthesizes an identity from a bare text payload.
func fallback(payload string) Student {
	return Student{
		ID:          clip(payload, 20),
		DisplayName: "Estudiante " + clip(payload, 10),
	}
}

// clip truncates to n characters, never mid-rune.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
