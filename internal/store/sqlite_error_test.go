package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Error paths are driven through sqlmock because a healthy SQLite handle
// cannot be made to fail on demand.

func TestSQLiteStore_Get_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT v FROM kv`).WillReturnError(errors.New("disk I/O error"))

	s := NewSQLiteStore(db)
	_, err = s.Get(context.Background(), "a")
	assert.ErrorContains(t, err, "failed to get key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_SetMany_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO kv`).WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	s := NewSQLiteStore(db)
	err = s.SetMany(context.Background(), map[string]string{"a": "1"})
	assert.ErrorContains(t, err, "failed to upsert key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_RemoveMany_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM kv`).WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	s := NewSQLiteStore(db)
	err = s.RemoveMany(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "failed to remove key")
	assert.NoError(t, mock.ExpectationsWereMet())
}
