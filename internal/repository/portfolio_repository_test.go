package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getmentor/portfolio-api/internal/models"
	apperrors "github.com/getmentor/portfolio-api/pkg/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	createdAt time.Time
	err       error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*time.Time)) = r.createdAt
	return nil
}

type fakeDB struct {
	row  fakeRow
	args []any
}

func (db *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (db *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("connection reset")
}

func (db *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	db.args = args
	return db.row
}

func TestPortfolioRepository_Create(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	db := &fakeDB{row: fakeRow{createdAt: created}}
	repo := NewPortfolioRepository(db)

	p := &models.Portfolio{ID: "b6f1", OwnerID: "42", Slug: "my-project-b6f1", Title: "My Project", Skills: []string{"Go"}}
	require.NoError(t, repo.Create(context.Background(), p))

	assert.Equal(t, created, p.CreatedAt)
	assert.Equal(t, []string{}, db.args[5], "nil links are stored as an empty array")
}

func TestPortfolioRepository_Create_SlugConflict(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: &pgconn.PgError{Code: "23505"}}}
	repo := NewPortfolioRepository(db)

	err := repo.Create(context.Background(), &models.Portfolio{Slug: "taken"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestPortfolioRepository_Create_Unavailable(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: errors.New("dial tcp: connection refused")}}
	repo := NewPortfolioRepository(db)

	err := repo.Create(context.Background(), &models.Portfolio{Slug: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestPortfolioRepository_ListByOwner_QueryError(t *testing.T) {
	repo := NewPortfolioRepository(&fakeDB{})

	_, err := repo.ListByOwner(context.Background(), "42")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}
