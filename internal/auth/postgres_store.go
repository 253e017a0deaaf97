package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgxQuerier is the slice of pgxpool.Pool the store needs. pgxmock satisfies
// it too, which keeps the store testable without a database.
type PgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCredentialStore reads stored password hashes from the relational
// database. One table per principal type; partners are hospital accounts.
type PostgresCredentialStore struct {
	db PgxQuerier
}

// NewPostgresCredentialStore initializes a store backed by pgx.
func NewPostgresCredentialStore(db PgxQuerier) *PostgresCredentialStore {
	if db == nil {
		panic("auth: pgx querier required")
	}
	return &PostgresCredentialStore{db: db}
}

func (s *PostgresCredentialStore) findByEmail(ctx context.Context, table, email string) (*Credential, error) {
	// password_hash is nullable: doctor and hospital rows exist before any
	// login is provisioned. Coalesce to "" so the verifier rejects them as
	// invalid credentials instead of surfacing a scan error.
	query := fmt.Sprintf(`
		SELECT id, name, email, COALESCE(password_hash, '')
		FROM %s
		WHERE lower(email) = lower($1)
	`, table)

	var cred Credential
	err := s.db.QueryRow(ctx, query, email).Scan(&cred.ID, &cred.Name, &cred.Email, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("auth: credential lookup failed: %w", err)
	}
	return &cred, nil
}

// FindAdminByEmail implements CredentialStore.
func (s *PostgresCredentialStore) FindAdminByEmail(ctx context.Context, email string) (*Credential, error) {
	return s.findByEmail(ctx, "admin_users", email)
}

// FindDoctorByEmail implements CredentialStore.
func (s *PostgresCredentialStore) FindDoctorByEmail(ctx context.Context, email string) (*Credential, error) {
	return s.findByEmail(ctx, "doctors", email)
}

// FindPartnerByEmail implements CredentialStore.
func (s *PostgresCredentialStore) FindPartnerByEmail(ctx context.Context, email string) (*Credential, error) {
	return s.findByEmail(ctx, "hospitals", email)
}

var _ CredentialStore = (*PostgresCredentialStore)(nil)
