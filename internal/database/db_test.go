package database_test

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/database"
	"github.com/iliyamo/storefront/internal/database/databasetest"
)

func TestMigrationsCreateTables(t *testing.T) {
	db := databasetest.Open(t, database.ProductsMigrations)

	assert.True(t, db.Migrator().HasTable("products"))
	assert.True(t, db.Migrator().HasTable("product_query_logs"))
	assert.False(t, db.Migrator().HasTable("accounts"))

	// running again is a no-op
	require.NoError(t, database.Migrate(context.Background(), db, database.ProductsMigrations))
}

func TestUniqueViolationIsDuplicateKey(t *testing.T) {
	db := databasetest.Open(t, database.AccountsMigrations)
	insert := "INSERT INTO accounts (id, email, hashed_password, role, is_active) VALUES (?, ?, 'x', 'admin', 1)"

	require.NoError(t, db.Exec(insert, "a", "dup@example.com").Error)
	err := db.Exec(insert, "b", "dup@example.com").Error
	require.Error(t, err)
	assert.True(t, database.IsDuplicateKey(err))
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, database.IsDuplicateKey(nil))
	assert.True(t, database.IsDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, database.IsDuplicateKey(&mysql.MySQLError{Number: 1045}))
	assert.False(t, database.IsDuplicateKey(errors.New("boom")))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(context.Background(), config.DBConfig{Driver: "oracle"})
	assert.True(t, errors.Is(err, errors.NotSupported))
}
