package practitioners

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

// Repository stores practitioners in the relational database.
type Repository struct {
	db DB
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("practitioners: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

var practitionerConstraintFields = map[string]string{
	"practitioners_crm_key": "crm",
}

const practitionerColumns = `id, name, crm, specialty, phone, email, created_at, updated_at`

// Create inserts a new practitioner. A duplicate CRM surfaces as a
// validation error on the crm field.
func (r *Repository) Create(ctx context.Context, req *CreatePractitionerRequest) (*Practitioner, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &Practitioner{
		ID:        uuid.New(),
		Name:      req.Name,
		CRM:       req.CRM,
		Specialty: req.Specialty,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO practitioners (id, name, crm, specialty, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.CRM, p.Specialty, p.Phone, p.Email)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "practitioner", p.ID.String(), practitionerConstraintFields)
	}
	return p, nil
}

// GetByID fetches a single practitioner.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	row := r.db.QueryRow(ctx, `SELECT `+practitionerColumns+` FROM practitioners WHERE id = $1`, id)
	var p Practitioner
	if err := row.Scan(&p.ID, &p.Name, &p.CRM, &p.Specialty, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "practitioner", id.String(), nil)
	}
	return &p, nil
}

// List returns practitioners ordered by name, optionally narrowed to a
// specialty.
func (r *Repository) List(ctx context.Context, specialty string) ([]Practitioner, error) {
	query := `SELECT ` + practitionerColumns + ` FROM practitioners`
	var args []any
	if specialty != "" {
		query += ` WHERE specialty ILIKE $1`
		args = append(args, specialty)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("practitioners: list: %w", err)
	}
	defer rows.Close()

	var out []Practitioner
	for rows.Next() {
		var p Practitioner
		if err := rows.Scan(&p.ID, &p.Name, &p.CRM, &p.Specialty, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("practitioners: scan row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("practitioners: iterate rows: %w", err)
	}
	return out, nil
}

// Update rewrites a practitioner's fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req *CreatePractitionerRequest) (*Practitioner, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &Practitioner{
		ID:        id,
		Name:      req.Name,
		CRM:       req.CRM,
		Specialty: req.Specialty,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	row := r.db.QueryRow(ctx, `
		UPDATE practitioners
		SET name = $2, crm = $3, specialty = $4, phone = $5, email = $6, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.CRM, p.Specialty, p.Phone, p.Email)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "practitioner", id.String(), practitionerConstraintFields)
	}
	return p, nil
}

// Delete removes a practitioner. The schema cascades the delete to their
// appointments and detaches their medical records.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM practitioners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("practitioners: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.MapError(pgx.ErrNoRows, "practitioner", id.String(), nil)
	}
	return nil
}
