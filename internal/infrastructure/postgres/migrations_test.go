package postgres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Names and emails have no upper bound in the entity, so the columns must not have one either.
func TestCreateUsersMigration_UnboundedTextColumns(t *testing.T) {
	b, err := os.ReadFile(filepath.Join("..", "..", "..", "db", "migrations", "000001_create_users.up.sql"))
	require.NoError(t, err)

	sql := string(b)
	assert.Regexp(t, `name\s+TEXT\s+NOT NULL`, sql)
	assert.Regexp(t, `email\s+TEXT\s+NOT NULL`, sql)
	assert.NotContains(t, sql, "VARCHAR(200)")
}
