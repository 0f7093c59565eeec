package medicalrecords

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-platform/internal/storage"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores medical records in the relational database.
type Repository struct {
	db  DB
	now func() time.Time
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("medicalrecords: pgx pool required")
	}
	return &Repository{db: pool, now: time.Now}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

var recordConstraintFields = map[string]string{
	"medical_records_patient_id_fkey":      "patient_id",
	"medical_records_practitioner_id_fkey": "practitioner_id",
	"medical_records_appointment_id_fkey":  "appointment_id",
}

const recordColumns = `r.id, r.patient_id, r.practitioner_id, r.appointment_id, r.diagnosis, r.prescription, r.notes, r.recorded_at, r.created_at, r.updated_at`

// Create inserts a new record. A missing patient, practitioner or
// appointment surfaces as a validation error on the offending reference.
func (r *Repository) Create(ctx context.Context, req *CreateRecordRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rec := &Record{
		ID:             uuid.New(),
		PatientID:      req.PatientID,
		PractitionerID: req.PractitionerID,
		AppointmentID:  req.AppointmentID,
		Diagnosis:      req.Diagnosis,
		Prescription:   req.Prescription,
		Notes:          req.Notes,
	}
	if req.RecordedAt != nil {
		rec.RecordedAt = *req.RecordedAt
	} else {
		rec.RecordedAt = r.now().UTC()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO medical_records (id, patient_id, practitioner_id, appointment_id, diagnosis, prescription, notes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, rec.ID, rec.PatientID, rec.PractitionerID, rec.AppointmentID, rec.Diagnosis, rec.Prescription, rec.Notes, rec.RecordedAt)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "medical record", rec.ID.String(), recordConstraintFields)
	}
	return rec, nil
}

// GetByID fetches a single record with patient and practitioner names.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+recordColumns+`, p.name, COALESCE(pr.name, '')
		FROM medical_records r
		JOIN patients p ON p.id = r.patient_id
		LEFT JOIN practitioners pr ON pr.id = r.practitioner_id
		WHERE r.id = $1
	`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, storage.MapError(err, "medical record", id.String(), nil)
	}
	return rec, nil
}

// ListByPatient returns a patient's records, most recent first.
func (r *Repository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+recordColumns+`, p.name, COALESCE(pr.name, '')
		FROM medical_records r
		JOIN patients p ON p.id = r.patient_id
		LEFT JOIN practitioners pr ON pr.id = r.practitioner_id
		WHERE r.patient_id = $1
		ORDER BY r.recorded_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.PatientID, &rec.PractitionerID, &rec.AppointmentID,
			&rec.Diagnosis, &rec.Prescription, &rec.Notes, &rec.RecordedAt,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.PatientName, &rec.PractitionerName,
		); err != nil {
			return nil, fmt.Errorf("medicalrecords: scan row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("medicalrecords: iterate rows: %w", err)
	}
	return out, nil
}

// Update rewrites a record's clinical fields. The patient reference is
// immutable once written.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req *UpdateRecordRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		UPDATE medical_records
		SET diagnosis = COALESCE($2, diagnosis),
		    prescription = COALESCE($3, prescription),
		    notes = COALESCE($4, notes),
		    recorded_at = COALESCE($5, recorded_at),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, practitioner_id, appointment_id, diagnosis, prescription, notes, recorded_at, created_at, updated_at
	`, id, req.Diagnosis, req.Prescription, req.Notes, req.RecordedAt)

	var rec Record
	if err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.PractitionerID, &rec.AppointmentID,
		&rec.Diagnosis, &rec.Prescription, &rec.Notes, &rec.RecordedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, storage.MapError(err, "medical record", id.String(), recordConstraintFields)
	}
	return &rec, nil
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("medicalrecords: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.MapError(pgx.ErrNoRows, "medical record", id.String(), nil)
	}
	return nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.PractitionerID, &rec.AppointmentID,
		&rec.Diagnosis, &rec.Prescription, &rec.Notes, &rec.RecordedAt,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.PatientName, &rec.PractitionerName,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
