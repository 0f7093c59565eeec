package appointments

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-platform/internal/storage"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides pgx-backed persistence for appointments. The guarded
// writes run inside a transaction holding a per-practitioner advisory lock,
// which is what makes the scheduler's check-then-write sequence atomic under
// concurrent bookings.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

const listColumns = `
	a.id, a.patient_id, a.practitioner_id, a.scheduled_at, a.duration_minutes,
	a.status, a.notes, a.created_at, a.updated_at, p.name, pr.name
`

const listFrom = `
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN practitioners pr ON pr.id = a.practitioner_id
`

var apptConstraintFields = map[string]string{
	"appointments_patient_id_fkey":      "patient_id",
	"appointments_practitioner_id_fkey": "practitioner_id",
	"appointments_duration_check":       "duration_minutes",
}

// practitionerLockKey derives the advisory lock key for a practitioner.
func practitionerLockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("practitioner:"))
	h.Write(id[:])
	return int64(h.Sum64())
}

// CreateWithGuard inserts appt after the guard approves it against the
// practitioner's existing blocking appointments. Guard and insert share one
// transaction under the practitioner's advisory lock.
func (r *Repository) CreateWithGuard(ctx context.Context, appt *Appointment, guard OverlapGuard) (*Appointment, error) {
	return r.guardedWrite(ctx, appt, guard, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO appointments (id, patient_id, practitioner_id, scheduled_at, duration_minutes, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at
		`, appt.ID, appt.PatientID, appt.PractitionerID, appt.ScheduledAt, appt.DurationMinutes, appt.Status, appt.Notes)
		return row.Scan(&appt.CreatedAt, &appt.UpdatedAt)
	})
}

// UpdateWithGuard reads the current row FOR UPDATE, applies the caller's
// merge, re-validates the result against the practitioner's other blocking
// appointments, and writes it back, all inside one transaction. The row lock
// serializes concurrent edits of the same appointment; the advisory lock
// serializes the overlap check against other bookings of the practitioner.
func (r *Repository) UpdateWithGuard(ctx context.Context, id uuid.UUID, apply func(*Appointment) error, guard OverlapGuard) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT id, patient_id, practitioner_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id)
	var appt Appointment
	if err := row.Scan(&appt.ID, &appt.PatientID, &appt.PractitionerID, &appt.ScheduledAt, &appt.DurationMinutes, &appt.Status, &appt.Notes, &appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "appointment", id.String(), nil)
	}

	if apply != nil {
		if err := apply(&appt); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, practitionerLockKey(appt.PractitionerID)); err != nil {
		return nil, fmt.Errorf("appointments: acquire practitioner lock: %w", err)
	}
	existing, err := listBlockingTx(ctx, tx, appt.PractitionerID, appt.ID)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(&appt, existing); err != nil {
			return nil, err
		}
	}

	row = tx.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $2, practitioner_id = $3, scheduled_at = $4,
		    duration_minutes = $5, status = $6, notes = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, appt.ID, appt.PatientID, appt.PractitionerID, appt.ScheduledAt, appt.DurationMinutes, appt.Status, appt.Notes)
	if err := row.Scan(&appt.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "appointment", appt.ID.String(), apptConstraintFields)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit: %w", err)
	}
	return &appt, nil
}

func (r *Repository) guardedWrite(ctx context.Context, appt *Appointment, guard OverlapGuard, write func(pgx.Tx) error) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, practitionerLockKey(appt.PractitionerID)); err != nil {
		return nil, fmt.Errorf("appointments: acquire practitioner lock: %w", err)
	}

	existing, err := listBlockingTx(ctx, tx, appt.PractitionerID, appt.ID)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(appt, existing); err != nil {
			return nil, err
		}
	}

	if err := write(tx); err != nil {
		return nil, storage.MapError(err, "appointment", appt.ID.String(), apptConstraintFields)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit: %w", err)
	}
	return appt, nil
}

// listBlockingTx loads the practitioner's appointments that occupy time,
// excluding the row being edited.
func listBlockingTx(ctx context.Context, tx pgx.Tx, practitionerID, excludeID uuid.UUID) ([]Appointment, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, patient_id, practitioner_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at
		FROM appointments
		WHERE practitioner_id = $1
		  AND id <> $2
		  AND status NOT IN ('cancelled', 'no_show')
	`, practitionerID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("appointments: load blocking set: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PractitionerID, &a.ScheduledAt, &a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("appointments: scan blocking row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate blocking set: %w", err)
	}
	return out, nil
}

// GetByID fetches a single appointment with joined names.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT`+listColumns+listFrom+`WHERE a.id = $1`, id)
	var a Appointment
	if err := row.Scan(
		&a.ID, &a.PatientID, &a.PractitionerID, &a.ScheduledAt, &a.DurationMinutes,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt, &a.PatientName, &a.PractitionerName,
	); err != nil {
		return nil, storage.MapError(err, "appointment", id.String(), nil)
	}
	return &a, nil
}

// List returns appointments matching the filter ordered by scheduled_at.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Appointment, error) {
	where, args := filter.whereClause()
	rows, err := r.db.Query(ctx, `SELECT`+listColumns+listFrom+where+` ORDER BY a.scheduled_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.PractitionerID, &a.ScheduledAt, &a.DurationMinutes,
			&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt, &a.PatientName, &a.PractitionerName,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan list row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate list: %w", err)
	}
	return out, nil
}

// Delete removes an appointment. Invoices and medical records referencing it
// are detached by the schema's ON DELETE SET NULL rules.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.MapError(pgx.ErrNoRows, "appointment", id.String(), nil)
	}
	return nil
}
