package hospitals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepository(mock)
}

// stringArg matches any string-typed argument. The id column is TEXT, so the
// repository must bind a string, not a uuid.UUID left to driver inference.
type stringArg struct{}

func (stringArg) Match(v any) bool {
	_, ok := v.(string)
	return ok
}

func TestPostgresCreateBindsStringID(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO hospitals`).
		WithArgs(stringArg{}, "City Care", "Pune", 20).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	h, err := repo.Create(context.Background(), &UpsertHospitalRequest{
		Name:            "City Care",
		City:            "Pune",
		DiscountPercent: 20,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.ID == "" {
		t.Error("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM hospitals WHERE id = \$1`).
		WithArgs("no-such-id").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "no-such-id"); !errors.Is(err, ErrHospitalNotFound) {
		t.Fatalf("expected ErrHospitalNotFound, got %v", err)
	}
}

func TestPostgresUpdateNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`UPDATE hospitals`).
		WithArgs("no-such-id", "Ghost", "", 5).
		WillReturnError(pgx.ErrNoRows)

	req := &UpsertHospitalRequest{Name: "Ghost", DiscountPercent: 5}
	if _, err := repo.Update(context.Background(), "no-such-id", req); !errors.Is(err, ErrHospitalNotFound) {
		t.Fatalf("expected ErrHospitalNotFound, got %v", err)
	}
}
