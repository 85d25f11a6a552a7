package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN("app", "s3cret", "db", "3306", "booking")
	assert.True(t, strings.HasPrefix(dsn, "app:s3cret@tcp(db:3306)/booking?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
}

func TestWithMultiStatements(t *testing.T) {
	assert.Equal(t, "u@tcp(h:1)/d?multiStatements=true", withMultiStatements("u@tcp(h:1)/d"))
	assert.Equal(t, "u@tcp(h:1)/d?a=b&multiStatements=true", withMultiStatements("u@tcp(h:1)/d?a=b"))
	assert.Equal(t, "x?multiStatements=false", withMultiStatements("x?multiStatements=false"))
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.NotZero(t, ups)
	assert.Equal(t, ups, downs)
}

func TestInitSchemaGuardsDoubleBooking(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	require.NoError(t, err)
	sql := string(b)
	assert.Contains(t, sql, "UNIQUE KEY uq_timeslot_window (activity_id, start_time, end_time)")
	assert.Contains(t, sql, "UNIQUE KEY uq_active_timeslot (active_timeslot_id)")
}
