package database

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStore wires a Store to a go-sqlmock connection through the
// postgres dialector, the same pairing the teacher uses to unit-test
// store methods without a real database.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return NewStore(db), mock
}

func TestCreateLibraryInsertsRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "libraries"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("lib-1"))
	mock.ExpectCommit()

	lib, err := store.CreateLibrary("/movies", LibraryKindMovie)
	require.NoError(t, err)
	require.Equal(t, "/movies", lib.Path)
	require.Equal(t, LibraryKindMovie, lib.Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLibraryNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "libraries"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "path", "kind"}))

	_, err := store.GetLibrary("missing")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListLibrariesOrdersByCreatedAt(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "path", "kind"}).
		AddRow("lib-1", "/movies", LibraryKindMovie).
		AddRow("lib-2", "/tv", LibraryKindTV)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "libraries" ORDER BY created_at`)).
		WillReturnRows(rows)

	libs, err := store.ListLibraries()
	require.NoError(t, err)
	require.Len(t, libs, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
