package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"portfolio-gallery/internal/repository/variant"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *mockClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	obj, _ := args.Get(0).(*minio.Object)
	return obj, args.Error(1)
}

func (m *mockClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, _ := io.ReadAll(reader)
	args := m.Called(ctx, bucketName, objectName, data, objectSize, opts)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, args.Error(0)
}

func newTestRepository(client *mockClient) *VariantRepository {
	zlog.Init()
	return newVariantRepository(client, "variants-bucket", &zlog.Logger)
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing", func(t *testing.T) {
		client := new(mockClient)
		client.On("BucketExists", ctx, "variants-bucket").Return(true, nil)

		require.NoError(t, newTestRepository(client).ensureBucket(ctx))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("created", func(t *testing.T) {
		client := new(mockClient)
		client.On("BucketExists", ctx, "variants-bucket").Return(false, nil)
		client.On("MakeBucket", ctx, "variants-bucket", minio.MakeBucketOptions{}).Return(nil)

		require.NoError(t, newTestRepository(client).ensureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("unreachable", func(t *testing.T) {
		client := new(mockClient)
		client.On("BucketExists", ctx, "variants-bucket").Return(false, errors.New("dial tcp: connection refused"))

		err := newTestRepository(client).ensureBucket(ctx)
		assert.ErrorIs(t, err, variant.ErrStorageError)
	})
}

func TestPut(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	data := []byte("webp bytes")
	client.On("PutObject", ctx, "variants-bucket", "variants/f1/full.webp", data, int64(len(data)), minio.PutObjectOptions{
		ContentType:  "image/webp",
		CacheControl: cacheControl,
	}).Return(nil)

	err := newTestRepository(client).Put(ctx, "variants/f1/full.webp", data, "image/webp")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPut_Failure(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("access denied"))

	err := newTestRepository(client).Put(ctx, "variants/f1/full.webp", bytes.Repeat([]byte{1}, 8), "image/webp")
	assert.ErrorIs(t, err, variant.ErrStorageError)
}

func TestGet_MissingObject(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	client.On("GetObject", ctx, "variants-bucket", "variants/f1/full.webp", minio.GetObjectOptions{}).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound})

	data, ok, err := newTestRepository(client).Get(ctx, "variants/f1/full.webp")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestGet_Failure(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	client.On("GetObject", ctx, "variants-bucket", "variants/f1/full.webp", minio.GetObjectOptions{}).
		Return(nil, errors.New("connection reset"))

	_, ok, err := newTestRepository(client).Get(ctx, "variants/f1/full.webp")
	assert.False(t, ok)
	assert.ErrorIs(t, err, variant.ErrStorageError)
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, validateKey("variants/f1/thumbnail.jpg"))
	assert.ErrorIs(t, validateKey(""), variant.ErrStorageValidation)
	assert.ErrorIs(t, validateKey("/abs"), variant.ErrStorageValidation)
	assert.ErrorIs(t, validateKey("variants/../secrets"), variant.ErrStorageValidation)
}
