package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend persists the full record set under one well-known location.
// There are no incremental updates: the set is read in full and written in
// full on every mutation, matching the single-key storage model.
type Backend interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
}

// PersistenceError wraps a failed backend write. The in-memory mutation is
// already applied and is not rolled back; the caller surfaces the failure
// as a warning and keeps going.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist attendance records: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store owns the authoritative in-memory record list. All queries and
// mutations go through it; callers never touch the backend directly.
type Store struct {
	mu      sync.Mutex
	backend Backend
	records []Record
}

// NewStore creates a store over a backend. Call Refresh before first use
// to pick up records persisted by earlier sessions.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Refresh merges the persisted set into the in-memory list. Used at
// startup and before weekly aggregation so counts span prior sessions.
//
// The merge keys on RecordID and the in-memory copy wins: this store is
// the only writer, so a divergent in-memory record means a mutation that a
// failed save never delivered to the backend, and dropping it would erase
// recorded attendance.
func (s *Store) Refresh(ctx context.Context) error {
	loaded, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]Record, len(loaded))
	copy(merged, loaded)
	index := make(map[string]int, len(merged))
	for i, rec := range merged {
		index[rec.RecordID] = i
	}
	for _, rec := range s.records {
		if i, ok := index[rec.RecordID]; ok {
			merged[i] = rec
		} else {
			merged = append(merged, rec)
		}
	}
	s.records = merged
	return nil
}

// All returns a copy of the full record list.
func (s *Store) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ForDate returns all records on the given calendar day, most recent
// entry first.
func (s *Store) ForDate(date string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Date == date {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EntryTime > out[j].EntryTime
	})
	return out
}

// ForStudentOnDate returns the student's records for the given day in
// insertion order.
func (s *Store) ForStudentOnDate(studentID, date string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if rec.StudentID == studentID && rec.Date == date {
			out = append(out, rec)
		}
	}
	return out
}

// OpenCycle returns the student's open record for the day, or nil.
// At most one open cycle exists per student and day.
func (s *Store) OpenCycle(studentID, date string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		rec := &s.records[i]
		if rec.StudentID == studentID && rec.Date == date && rec.Open() {
			out := *rec
			return &out
		}
	}
	return nil
}

// Append adds a new record and persists the full set.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return s.persist(ctx)
}

// CloseCycle stamps the exit time on the identified record and persists.
// A closed record is never modified again.
func (s *Store) CloseCycle(ctx context.Context, recordID string, exit TimeOfDay) (Record, error) {
	s.mu.Lock()
	var closed *Record
	for i := range s.records {
		if s.records[i].RecordID == recordID {
			t := exit
			s.records[i].ExitTime = &t
			closed = &s.records[i]
			break
		}
	}
	if closed == nil {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("record %s not found", recordID)
	}
	out := *closed
	s.mu.Unlock()
	return out, s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	snapshot := make([]Record, len(s.records))
	copy(snapshot, s.records)
	s.mu.Unlock()
	if err := s.backend.Save(ctx, snapshot); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}
