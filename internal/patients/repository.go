package patients

import (
	"context"
	"fmt"

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

// Repository stores patients in the relational database.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

var patientConstraintFields = map[string]string{
	"patients_cpf_key": "cpf",
}

const patientColumns = `id, name, cpf, birth_date, phone, email, address, notes, created_at, updated_at`

// Create inserts a new patient. A duplicate CPF surfaces as a validation
// error on the cpf field.
func (r *Repository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &Patient{
		ID:        uuid.New(),
		Name:      req.Name,
		CPF:       req.CPF,
		BirthDate: req.BirthDate,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Notes:     req.Notes,
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO patients (id, name, cpf, birth_date, phone, email, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.CPF, p.BirthDate, p.Phone, p.Email, p.Address, p.Notes)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "patient", p.ID.String(), patientConstraintFields)
	}
	return p, nil
}

// GetByID fetches a single patient.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		return nil, storage.MapError(err, "patient", id.String(), nil)
	}
	return p, nil
}

// List returns patients ordered by name, optionally narrowed by a search
// term matched against name and CPF.
func (r *Repository) List(ctx context.Context, search string) ([]Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients`
	var args []any
	if search != "" {
		query += ` WHERE name ILIKE $1 OR cpf ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.CPF, &p.BirthDate, &p.Phone, &p.Email, &p.Address, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("patients: scan row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: iterate rows: %w", err)
	}
	return out, nil
}

// Update rewrites a patient's fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &Patient{
		ID:        id,
		Name:      req.Name,
		CPF:       req.CPF,
		BirthDate: req.BirthDate,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Notes:     req.Notes,
	}
	row := r.db.QueryRow(ctx, `
		UPDATE patients
		SET name = $2, cpf = $3, birth_date = $4, phone = $5, email = $6, address = $7, notes = $8, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.CPF, p.BirthDate, p.Phone, p.Email, p.Address, p.Notes)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "patient", id.String(), patientConstraintFields)
	}
	return p, nil
}

// Delete removes a patient. The schema cascades the delete to the patient's
// appointments, invoices and medical records.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("patients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.MapError(pgx.ErrNoRows, "patient", id.String(), nil)
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.Name, &p.CPF, &p.BirthDate, &p.Phone, &p.Email, &p.Address, &p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
