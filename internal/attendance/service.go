package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"scanattend/internal/identity"
)

// Scan kinds. A re-entry is a fresh record after a closed cycle on the same
// day and classifies exactly like an entry.
const (
	KindEntry   = "entry"
	KindExit    = "exit"
	KindReentry = "reentry"
)

// ScanResult is the outcome of one processed scan.
type ScanResult struct {
	Record         Record          `json:"record"`
	Kind           string          `json:"kind"`
	Classification *Classification `json:"classification,omitempty"`
	Weekly         *WeeklyTally    `json:"weekly,omitempty"`
	Message        string          `json:"message"`
}

// Service decides whether a scan is an entry, an exit, or a re-entry, and
// classifies tardiness on entry kinds.
type Service struct {
	store     *Store
	policy    ShiftPolicy
	weeklyCap int
	nowFn     func() time.Time
}

// NewService creates a service over a store with the active shift policy.
func NewService(store *Store, policy ShiftPolicy, weeklyCap int) *Service {
	return &Service{
		store:     store,
		policy:    policy,
		weeklyCap: weeklyCap,
		nowFn:     time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (s *Service) SetNow(now func() time.Time) { s.nowFn = now }

// Policy returns the active shift policy.
func (s *Service) Policy() ShiftPolicy { return s.policy }

// Store returns the underlying record store.
func (s *Service) Store() *Store { return s.store }

// RecordScan processes one decoded scan for a student.
//
// The first scan of the day opens a cycle, the next scan closes it, and a
// scan after a closed cycle opens a new one. Tardiness is classified on
// entry kinds only; exits return immediately without recomputation. Exactly
// one record is created or mutated per call and the full set is persisted
// before returning.
//
// A failed persist is reported as a *PersistenceError alongside the
// completed result; the in-memory mutation is kept.
func (s *Service) RecordScan(ctx context.Context, student identity.Student, now time.Time) (ScanResult, error) {
	if student.ID == "" {
		return ScanResult{}, identity.ErrInvalidIdentity
	}
	if now.IsZero() {
		now = s.nowFn()
	}
	today := DateOf(now)
	clock := ClockOf(now)

	if open := s.store.OpenCycle(student.ID, today); open != nil {
		closed, err := s.store.CloseCycle(ctx, open.RecordID, clock)
		if err != nil && !isPersistence(err) {
			return ScanResult{}, err
		}
		return ScanResult{
			Record:  closed,
			Kind:    KindExit,
			Message: fmt.Sprintf("Salida registrada para %s a las %s", closed.Name, clock),
		}, err
	}

	kind := KindEntry
	if len(s.store.ForStudentOnDate(student.ID, today)) > 0 {
		kind = KindReentry
	}

	rec := Record{
		RecordID:  uuid.NewString(),
		StudentID: student.ID,
		Name:      student.DisplayName,
		Grade:     student.GradeLevel,
		Section:   student.Section,
		Date:      today,
		EntryTime: clock,
	}

	cls := s.policy.Classify(clock)
	// TardyMinutes > 0 iff IsTardy; a sub-minute arrival past the official
	// start rounds down to on time for the stored record.
	rec.IsTardy = cls.MinutesLate > 0
	rec.TardyMinutes = cls.MinutesLate

	var weekly *WeeklyTally
	if cls.ExceedsTolerance {
		// Re-read persisted records so the tally spans prior sessions. A
		// failed refresh still counts over the in-memory set; the tally is
		// never skipped on a tolerance-exceeding entry.
		if err := s.store.Refresh(ctx); err != nil {
			log.Printf("refresh before weekly tally failed: %v", err)
		}
		tally, terr := CountWeeklyTardies(student.ID, today, s.store.All(), s.policy, s.weeklyCap)
		if terr == nil {
			tally.Total++
			if tally.Remaining > 0 {
				tally.Remaining--
			}
			tally.CapExceeded = tally.Total >= s.weeklyCap
			weekly = &tally
			rec.WeeklyLimitExceeded = tally.CapExceeded
		}
	}

	err := s.store.Append(ctx, rec)
	if err != nil && !isPersistence(err) {
		return ScanResult{}, err
	}

	msg := fmt.Sprintf("Entrada registrada para %s a las %s", rec.Name, clock)
	if kind == KindReentry {
		msg = fmt.Sprintf("Nueva entrada registrada para %s a las %s", rec.Name, clock)
	}
	if cls.ExceedsTolerance {
		msg += fmt.Sprintf(" (retardo de %d min)", cls.MinutesLate)
	}

	return ScanResult{
		Record:         rec,
		Kind:           kind,
		Classification: &cls,
		Weekly:         weekly,
		Message:        msg,
	}, err
}

func isPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
