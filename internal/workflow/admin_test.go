package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletePost(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	blog := be.addBlog("author", "Hello", true)
	admin := NewPostAdmin(be)

	_, err := admin.DeletePost(context.Background(), "author", blog.ID, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Empty(t, be.calls)

	_, err = admin.DeletePost(context.Background(), "stranger", blog.ID, true)
	assert.ErrorIs(t, err, ErrNotOwner)

	msg, err := admin.DeletePost(context.Background(), "author", blog.ID, true)
	require.NoError(t, err)
	assert.Equal(t, `Post "Hello" deleted successfully!`, msg)
	assert.Empty(t, be.blogs)

	_, err = admin.DeletePost(context.Background(), "author", blog.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetPublished(t *testing.T) {
	t.Parallel()
	be := newFakeBackend()
	blog := be.addBlog("author", "Draft", false)
	admin := NewPostAdmin(be)

	_, err := admin.SetPublished(context.Background(), "", blog.ID, true)
	assert.ErrorIs(t, err, ErrLoginRequired)

	updated, err := admin.SetPublished(context.Background(), "author", blog.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Published)

	calls := be.called("UpdateBlog")
	_, err = admin.SetPublished(context.Background(), "author", blog.ID, true)
	require.NoError(t, err)
	assert.Equal(t, calls, be.called("UpdateBlog"))
}
