package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vacancy-codes/internal/config"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_txlock=immediate", sqliteDSN("file::memory:"))
	assert.Equal(t, "file:x.db?cache=shared&_txlock=immediate", sqliteDSN("file:x.db?cache=shared"))
	assert.Equal(t, "file:x.db?_txlock=deferred", sqliteDSN("file:x.db?_txlock=deferred"))
}

func TestNewConnectionSQLite(t *testing.T) {
	conn, err := NewConnection(context.Background(), config.Database{Driver: SQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	defer conn.Close()

	var one int
	require.NoError(t, conn.DB.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
	assert.Equal(t, SQLite, conn.Driver)
}

func TestNewConnectionUnknownDriver(t *testing.T) {
	_, err := NewConnection(context.Background(), config.Database{Driver: "oracle"})
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "UPDATE vacancies SET is_closed = TRUE, closed_at = ? WHERE id = ? AND is_closed = FALSE"
	assert.Equal(t, q, Rebind(SQLite, q))
	assert.Equal(t,
		"UPDATE vacancies SET is_closed = TRUE, closed_at = $1 WHERE id = $2 AND is_closed = FALSE",
		Rebind(Postgres, q))
}
