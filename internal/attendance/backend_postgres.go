package attendance

import (
	"context"
	"database/sql"
)

// PostgresBackend stores records in an attendance_records table. Save
// upserts the full set, keeping the load-all/save-all contract while the
// table stays queryable by outside tooling.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend creates a backend over an open connection.
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the records table when missing.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS attendance_records (
			record_id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			grade TEXT NOT NULL DEFAULT '',
			section TEXT NOT NULL DEFAULT '',
			day DATE NOT NULL,
			entry_time TEXT NOT NULL,
			exit_time TEXT,
			is_tardy BOOLEAN NOT NULL DEFAULT FALSE,
			tardy_minutes INT NOT NULL DEFAULT 0,
			weekly_limit_exceeded BOOLEAN NOT NULL DEFAULT FALSE
		)
	`)
	return err
}

// Load reads the full record set ordered by day and entry time.
func (b *PostgresBackend) Load(ctx context.Context) ([]Record, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT record_id, student_id, name, grade, section,
		       to_char(day, 'YYYY-MM-DD'), entry_time, exit_time,
		       is_tardy, tardy_minutes, weekly_limit_exceeded
		FROM attendance_records
		ORDER BY day, entry_time
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var entry string
		var exit *string
		if err := rows.Scan(&rec.RecordID, &rec.StudentID, &rec.Name, &rec.Grade, &rec.Section,
			&rec.Date, &entry, &exit, &rec.IsTardy, &rec.TardyMinutes, &rec.WeeklyLimitExceeded); err != nil {
			return nil, err
		}
		if rec.EntryTime, err = ParseTimeOfDay(entry); err != nil {
			return nil, err
		}
		if exit != nil {
			t, err := ParseTimeOfDay(*exit)
			if err != nil {
				return nil, err
			}
			rec.ExitTime = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save upserts every record in the set. Closed cycles only ever gain an
// exit time, so upserting the snapshot converges with what is stored.
func (b *PostgresBackend) Save(ctx context.Context, records []Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		var exit *string
		if rec.ExitTime != nil {
			s := rec.ExitTime.String()
			exit = &s
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_records
				(record_id, student_id, name, grade, section, day, entry_time, exit_time,
				 is_tardy, tardy_minutes, weekly_limit_exceeded)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (record_id) DO UPDATE SET
				exit_time = EXCLUDED.exit_time,
				is_tardy = EXCLUDED.is_tardy,
				tardy_minutes = EXCLUDED.tardy_minutes,
				weekly_limit_exceeded = EXCLUDED.weekly_limit_exceeded
		`, rec.RecordID, rec.StudentID, rec.Name, rec.Grade, rec.Section, rec.Date,
			rec.EntryTime.String(), exit, rec.IsTardy, rec.TardyMinutes, rec.WeeklyLimitExceeded); err != nil {
			return err
		}
	}
	return tx.Commit()
}
