package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashbook/internal/model"
)

func TestOpenMemory(t *testing.T) {
	gormDB, err := OpenMemory()
	require.NoError(t, err)
	defer Close(gormDB)

	assert.True(t, gormDB.Migrator().HasTable(&model.User{}))
	assert.True(t, gormDB.Migrator().HasTable(&model.Sheet{}))
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cashbook.db")

	gormDB, err := Open(Options{Driver: DriverSQLite, DSN: path})
	require.NoError(t, err)
	require.NoError(t, Migrate(gormDB))
	require.NoError(t, Close(gormDB))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Options{Driver: "mongodb", DSN: "mongodb://localhost"})
	assert.ErrorContains(t, err, `unsupported store driver "mongodb"`)
}

func TestDialectorFor_MySQLDBNameOverride(t *testing.T) {
	d, err := dialectorFor(Options{
		Driver: DriverMySQL,
		DSN:    "user:pw@tcp(localhost:3306)/app?parseTime=true",
		DBName: "cashbook",
	})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())
}

func TestDialectorFor_BadMySQLDSN(t *testing.T) {
	_, err := dialectorFor(Options{Driver: DriverMySQL, DSN: "not a dsn", DBName: "cashbook"})
	assert.ErrorContains(t, err, "parse mysql dsn")
}
