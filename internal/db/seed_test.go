package db_test

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycoll/marketplace/internal/db"
	"github.com/mycoll/marketplace/internal/db/dbtest"
	"github.com/mycoll/marketplace/internal/models"
)

func TestSeedIdempotent(t *testing.T) {
	conn := dbtest.Open(t)

	require.NoError(t, db.Seed(context.Background(), conn))
	require.NoError(t, db.Seed(context.Background(), conn))

	var count int64
	conn.Model(&models.Role{}).Count(&count)
	assert.Equal(t, int64(len(models.RoleNames())), count)

	var admin models.Role
	require.NoError(t, conn.Where("name = ?", models.RoleAdmin).First(&admin).Error)
	assert.NotEmpty(t, admin.Description)
}

func TestMigrateIsRepeatable(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, db.Migrate(conn))
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	ups, err := fs.Glob(db.MigrationFiles(), "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(db.MigrationFiles(), "migrations/*.down.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}
