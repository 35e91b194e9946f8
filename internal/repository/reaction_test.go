package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionRepository_UpsertSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "reactions" .* ON CONFLICT \("blog_id","user_id"\) DO UPDATE SET "reaction"="excluded"."reaction","updated_at"="excluded"."updated_at"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.Upsert(context.Background(), 3, "u1", models.ReactionLike))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionRepository_RemoveSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "reactions" WHERE blog_id = $1 AND user_id = $2`)).
		WithArgs(3, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Remove(context.Background(), 3, "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactionRepository_UpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReactionRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "u1", "alice")
	blog := seedBlog(t, db, "u1", "Reactable", true, time.Now())

	require.NoError(t, repo.Upsert(ctx, blog.ID, "u1", models.ReactionLike))
	require.NoError(t, repo.Upsert(ctx, blog.ID, "u1", models.ReactionLike))

	reactions, err := repo.ListByBlog(ctx, blog.ID)
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, models.ReactionLike, reactions[0].Reaction)
}

func TestReactionRepository_SwitchAndRemove(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReactionRepository(db)
	ctx := context.Background()

	seedProfile(t, db, "u1", "alice")
	seedProfile(t, db, "u2", "bob")
	blog := seedBlog(t, db, "u1", "Reactable", true, time.Now())

	require.NoError(t, repo.Upsert(ctx, blog.ID, "u1", models.ReactionLike))
	require.NoError(t, repo.Upsert(ctx, blog.ID, "u2", models.ReactionLike))
	require.NoError(t, repo.Upsert(ctx, blog.ID, "u1", models.ReactionDislike))

	mine, err := repo.Get(ctx, blog.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ReactionDislike, mine.Reaction)

	reactions, err := repo.ListByBlog(ctx, blog.ID)
	require.NoError(t, err)
	assert.Len(t, reactions, 2)

	require.NoError(t, repo.Remove(ctx, blog.ID, "u1"))
	_, err = repo.Get(ctx, blog.ID, "u1")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	// removing twice is not an error
	require.NoError(t, repo.Remove(ctx, blog.ID, "u1"))
}

func TestReactionRepository_RejectsUnknownValue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReactionRepository(db)

	err := repo.Upsert(context.Background(), 1, "u1", "love")
	assert.True(t, models.IsCode(err, models.CodeValidation))
}
