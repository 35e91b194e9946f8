//go:build integration

package seed

import (
	"context"
	"os"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_SeedAgainstPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg := &config.Config{DatabaseURL: dsn, Env: "test", DBSchemaMode: database.SchemaModeSQL}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, database.ApplySchema(ctx, db, cfg))

	opts := DefaultOptions()
	opts.NumUsers = 6
	opts.NumBlogs = 10
	opts.SkipBcrypt = true
	s := NewSeeder(db, opts)
	require.NoError(t, s.ClearAll())

	sum, err := s.Run(ctx)
	require.NoError(t, err)

	var blogs int64
	require.NoError(t, db.Model(&models.Blog{}).Count(&blogs).Error)
	assert.Equal(t, int64(sum.Blogs), blogs)

	// reseeding after a clear must not collide on usernames or reactions
	require.NoError(t, s.ClearAll())
	_, err = s.Run(ctx)
	require.NoError(t, err)
}
