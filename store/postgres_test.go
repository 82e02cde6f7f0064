package store

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/adonese/apikit/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := Config{URI: "postgresql+asyncpg://app@localhost/app", PoolSize: 4, MaxOverflow: 2}
	require.NoError(t, cfg.Validate())
	db, err := open(cfg, postgres.New(postgres.Config{Conn: sqlDB}), "pgx", quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, WithRegisterer(prometheus.NewRegistry())), mock
}

func TestPostgresVersion(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT version\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.3"))

	v, err := s.DB().Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PostgreSQL 16.3", v)
	assert.Equal(t, "postgres", s.DB().Dialect())
	assert.Equal(t, EnginePostgreSQL, s.DB().Engine)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryFailureStripsSQL(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts"`).
		WillReturnError(errors.New("connection reset by peer [SQL: SELECT count(*) FROM accounts]"))

	_, err := s.CountQuery(context.Background(), &account{})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
	assert.ErrorIs(t, err, apperr.ErrDatabase)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "connection reset by peer", e.Fields["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
