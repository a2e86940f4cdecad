package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrations_Ordered(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL, m.Name)
		assert.NotEmpty(t, m.DownSQL, m.Name)
	}
}

func expectBookkeeping(mock pgxmock.PgxPoolIface, applied ...int) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	rows := mock.NewRows([]string{"version", "applied_at"})
	for _, v := range applied {
		rows.AddRow(v, time.Date(2024, 1, v, 0, 0, 0, 0, time.UTC))
	}
	mock.ExpectQuery("SELECT version, applied_at FROM schema_migrations").WillReturnRows(rows)
}

func TestMigrator_AppliesPending(t *testing.T) {
	mock := newMock(t)
	expectBookkeeping(mock, 1)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS progress").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
		WithArgs(2, "create_progress_badges").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := NewMigrator(mock).Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	mock := newMock(t)
	expectBookkeeping(mock, 1)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS progress").
		WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	n, err := NewMigrator(mock).Migrate(context.Background())
	assert.ErrorIs(t, err, ErrMigrationFailed)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_RollbackLast(t *testing.T) {
	mock := newMock(t)
	expectBookkeeping(mock, 1, 2)

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS badge_equips").
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schema_migrations")).
		WithArgs(2).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	version, err := NewMigrator(mock).Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_RollbackNothingApplied(t *testing.T) {
	mock := newMock(t)
	expectBookkeeping(mock)

	version, err := NewMigrator(mock).Rollback(context.Background())
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigrator_Status(t *testing.T) {
	mock := newMock(t)
	expectBookkeeping(mock, 1)

	status, err := NewMigrator(mock).Status(context.Background())
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].IsApplied)
	assert.False(t, status[1].IsApplied)
}
