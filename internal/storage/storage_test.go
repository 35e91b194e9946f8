package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestKeys(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "blog_images/42_u1_1700000000123.png", BlogImageKey(42, "u1", "Photo.PNG", "image/png", now))
	assert.Equal(t, "avatars/u1_1700000000123.jpg", AvatarKey("u1", "", "image/jpeg", now))
	assert.Equal(t, "comment_images/u1_1700000000123.bin", CommentImageKey("u1", "", "application/zip", now))
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		max     int64
		want    string
		wantErr string
	}{
		{name: "png", data: pngHeader, max: 1024, want: "image/png"},
		{name: "empty", data: nil, max: 1024, wantErr: "No file uploaded"},
		{name: "too large", data: pngHeader, max: 4, wantErr: "File too large"},
		{name: "not an image", data: []byte("hello world, plain text"), max: 1024, wantErr: "Invalid image type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateImage(models.Upload{Data: tt.data}, tt.max)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, models.IsCode(err, models.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("blog-images", "")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "avatars/a.png", models.Upload{Data: pngHeader, ContentType: "image/png"}))
	assert.Equal(t, "/media/blog-images/avatars/a.png", store.PublicURL("avatars/a.png"))

	data, ct, err := store.Get(ctx, "avatars/a.png")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", ct)

	require.NoError(t, store.Delete(ctx, "avatars/a.png"))
	_, _, err = store.Get(ctx, "avatars/a.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.Zero(t, store.Len())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, store.Put(cancelled, "k", models.Upload{}))
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3Store_PutAndDelete(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, opts: S3Options{Bucket: "blog-images", Region: "eu-west-1"}}
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blog_images/1_u_1.png", models.Upload{Data: pngHeader, ContentType: "image/png"}))
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "blog-images", aws.ToString(fake.puts[0].Bucket))
	assert.Equal(t, "image/png", aws.ToString(fake.puts[0].ContentType))
	body, err := io.ReadAll(fake.puts[0].Body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, body)

	require.NoError(t, store.Delete(ctx, "blog_images/1_u_1.png"))
	assert.Equal(t, []string{"blog_images/1_u_1.png"}, fake.deletes)

	fake.err = errors.New("access denied")
	err = store.Put(ctx, "k", models.Upload{})
	assert.ErrorContains(t, err, "access denied")
}

func TestS3Store_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		opts S3Options
		want string
	}{
		{
			name: "public url wins",
			opts: S3Options{Bucket: "b", PublicURL: "https://cdn.example.com/storage/v1/object/public/b/", Endpoint: "https://x"},
			want: "https://cdn.example.com/storage/v1/object/public/b/k.png",
		},
		{
			name: "custom endpoint",
			opts: S3Options{Bucket: "b", Endpoint: "http://localhost:9000"},
			want: "http://localhost:9000/b/k.png",
		},
		{
			name: "aws",
			opts: S3Options{Bucket: "b", Region: "us-east-2"},
			want: "https://b.s3.us-east-2.amazonaws.com/k.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &S3Store{opts: tt.opts}
			assert.Equal(t, tt.want, store.PublicURL("k.png"))
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, &config.Config{StorageDriver: "memory", StorageBucket: "blog-images"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = New(ctx, &config.Config{
		StorageDriver:    "s3",
		StorageBucket:    "blog-images",
		StorageEndpoint:  "http://localhost:9000",
		StorageAccessKey: "key",
		StorageSecretKey: "secret",
	})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, store)

	_, err = New(ctx, &config.Config{StorageDriver: "s3"})
	assert.Error(t, err)

	_, err = New(ctx, &config.Config{StorageDriver: "ftp"})
	assert.Error(t, err)
}
