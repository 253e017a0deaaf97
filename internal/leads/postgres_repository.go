package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caregate/lead-platform/internal/session"
)

// PgxDB is the subset of pgxpool.Pool the repository uses. pgxmock satisfies
// it for tests.
type PgxDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores leads in the relational database. The session
// scope is folded into every WHERE clause so an out-of-scope lead is
// indistinguishable from a missing one at this layer.
type PostgresRepository struct {
	db PgxDB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db PgxDB) *PostgresRepository {
	if db == nil {
		panic("leads: pgx db required")
	}
	return &PostgresRepository{db: db}
}

const leadColumns = `id, reference_id, surgery_id, hospital_id, status,
	original_cost, has_card, discount, discounted_cost, revenue,
	is_emergency, notes, full_name, phone, email, city,
	version, created_at, updated_at`

// Create inserts a new lead in status NEW with a fresh reference id.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	refID := NewReferenceID()
	query := fmt.Sprintf(`
		INSERT INTO leads (id, reference_id, surgery_id, status, has_card,
			is_emergency, notes, full_name, phone, email, city, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		RETURNING %s
	`, leadColumns)

	row := r.db.QueryRow(ctx, query,
		id, refID, req.SurgeryID, StatusNew, req.HasCard,
		req.IsEmergency, req.Notes, req.FullName, req.Phone, req.Email, req.City,
	)
	lead, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return lead, nil
}

// FindByID fetches a lead visible inside the scope.
func (r *PostgresRepository) FindByID(ctx context.Context, scope session.Scope, id string) (*Lead, error) {
	where, args := scopeClause(scope, []any{id})
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1%s`, leadColumns, where)

	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns the leads visible inside the scope, newest first.
func (r *PostgresRepository) List(ctx context.Context, scope session.Scope, filter ListFilter) ([]*Lead, error) {
	args := []any{}
	conds := []string{}

	if scope.LeadID != "" {
		args = append(args, scope.LeadID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	} else if scope.HospitalID != "" {
		args = append(args, scope.HospitalID)
		conds = append(conds, fmt.Sprintf("hospital_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM leads%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

// FindLatestByPhone returns the most recent lead for a phone number. Used
// only by the OTP login flow, which runs before any session exists.
func (r *PostgresRepository) FindLatestByPhone(ctx context.Context, phone string) (*Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE phone = $1 ORDER BY created_at DESC LIMIT 1`, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// Update applies the patch through a single conditional UPDATE gated on the
// scope filter and the expected version. When no row matches, a follow-up
// scoped read distinguishes a version conflict from a missing lead.
func (r *PostgresRepository) Update(ctx context.Context, scope session.Scope, id string, patch UpdatePatch, expectedVersion int64) (*Lead, error) {
	if scope.ReadOnly {
		return nil, session.ErrForbidden
	}

	args := []any{id, expectedVersion}
	sets := []string{"version = version + 1", "updated_at = now()"}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	if patch.HospitalID != nil {
		if *patch.HospitalID == "" {
			sets = append(sets, "hospital_id = NULL")
		} else {
			addSet("hospital_id", *patch.HospitalID)
		}
	}
	if patch.OriginalCost != nil {
		addSet("original_cost", *patch.OriginalCost)
	}
	if patch.HasCard != nil {
		addSet("has_card", *patch.HasCard)
	}
	if patch.Discount != nil {
		addSet("discount", *patch.Discount)
	}
	if patch.DiscountedCost != nil {
		addSet("discounted_cost", *patch.DiscountedCost)
	}
	if patch.Revenue != nil {
		addSet("revenue", *patch.Revenue)
	}
	if patch.FullName != nil {
		addSet("full_name", *patch.FullName)
	}
	if patch.Phone != nil {
		addSet("phone", *patch.Phone)
	}
	if patch.Email != nil {
		addSet("email", *patch.Email)
	}
	if patch.City != nil {
		addSet("city", *patch.City)
	}
	if patch.Notes != nil {
		addSet("notes", *patch.Notes)
	}
	if patch.IsEmergency != nil {
		addSet("is_emergency", *patch.IsEmergency)
	}

	where, args := scopeClause(scope, args)
	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $1 AND version = $2%s
		RETURNING %s
	`, strings.Join(sets, ", "), where, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, args...))
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}

	// No row matched: either the lead is outside the scope (or gone), or
	// another writer bumped the version first.
	if _, err := r.FindByID(ctx, scope, id); err != nil {
		return nil, err
	}
	return nil, ErrVersionConflict
}

// scopeClause appends the scope's lead predicate to args and returns the SQL
// fragment referencing it.
func scopeClause(scope session.Scope, args []any) (string, []any) {
	switch {
	case scope.LeadID != "":
		args = append(args, scope.LeadID)
		return fmt.Sprintf(" AND id = $%d", len(args)), args
	case scope.HospitalID != "":
		args = append(args, scope.HospitalID)
		return fmt.Sprintf(" AND hospital_id = $%d", len(args)), args
	}
	return "", args
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var hospitalID *string
	err := row.Scan(
		&lead.ID, &lead.ReferenceID, &lead.SurgeryID, &hospitalID, &lead.Status,
		&lead.OriginalCost, &lead.HasCard, &lead.Discount, &lead.DiscountedCost, &lead.Revenue,
		&lead.IsEmergency, &lead.Notes, &lead.FullName, &lead.Phone, &lead.Email, &lead.City,
		&lead.Version, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hospitalID != nil {
		lead.HospitalID = *hospitalID
	}
	return &lead, nil
}

var _ Repository = (*PostgresRepository)(nil)
