package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	minioLib "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjects is an in-memory objectAPI.
type fakeObjects struct {
	bucketExists    bool
	bucketExistsErr error
	makeBucketErr   error
	madeBucket      string

	objects     map[string][]byte
	contentType map[string]string
	sizes       map[string]int64

	putErr    error
	getErr    error
	removeErr error
	statErr   error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{
		bucketExists: true,
		objects:      make(map[string][]byte),
		contentType:  make(map[string]string),
		sizes:        make(map[string]int64),
	}
}

func (f *fakeObjects) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.bucketExists, f.bucketExistsErr
}

func (f *fakeObjects) MakeBucket(_ context.Context, bucket string, _ minioLib.MakeBucketOptions) error {
	f.madeBucket = bucket
	return f.makeBucketErr
}

func (f *fakeObjects) PutObject(_ context.Context, _ string, key string, r io.Reader, size int64, opts minioLib.PutObjectOptions) (minioLib.UploadInfo, error) {
	if f.putErr != nil {
		return minioLib.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minioLib.UploadInfo{}, err
	}
	f.objects[key] = data
	f.contentType[key] = opts.ContentType
	f.sizes[key] = size
	return minioLib.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeObjects) GetObject(_ context.Context, _ string, key string, _ minioLib.GetObjectOptions) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return io.NopCloser(bytes.NewReader(f.objects[key])), nil
}

func (f *fakeObjects) RemoveObject(_ context.Context, _ string, key string, _ minioLib.RemoveObjectOptions) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) StatObject(_ context.Context, _ string, key string, _ minioLib.StatObjectOptions) (minioLib.ObjectInfo, error) {
	if f.statErr != nil {
		return minioLib.ObjectInfo{}, f.statErr
	}
	if _, ok := f.objects[key]; !ok {
		return minioLib.ObjectInfo{}, minioLib.ErrorResponse{Code: "NoSuchKey"}
	}
	return minioLib.ObjectInfo{Key: key}, nil
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket exists", func(t *testing.T) {
		api := newFakeObjects()
		c, err := newClient(ctx, api, "exports")
		require.NoError(t, err)
		assert.Equal(t, "exports", c.Bucket())
		assert.Empty(t, api.madeBucket)
	})

	t.Run("creates bucket", func(t *testing.T) {
		api := newFakeObjects()
		api.bucketExists = false
		_, err := newClient(ctx, api, "exports")
		require.NoError(t, err)
		assert.Equal(t, "exports", api.madeBucket)
	})

	t.Run("bucket check error", func(t *testing.T) {
		api := newFakeObjects()
		api.bucketExistsErr = errors.New("boom")
		c, err := newClient(ctx, api, "exports")
		assert.Nil(t, c)
		assert.ErrorContains(t, err, "failed to ensure bucket exists")
	})

	t.Run("make bucket error", func(t *testing.T) {
		api := newFakeObjects()
		api.bucketExists = false
		api.makeBucketErr = errors.New("fail")
		_, err := newClient(ctx, api, "exports")
		assert.ErrorContains(t, err, "failed to create bucket")
	})
}

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeObjects()
	c := &Client{api: api, bucket: "b"}

	key := ExportKey("csv")
	csv := "user_id,username,email\n1,jane_smith,jane@vault.com\n"
	require.NoError(t, c.Upload(ctx, key, strings.NewReader(csv), "text/csv"))
	assert.Equal(t, "text/csv", api.contentType[key])
	assert.Equal(t, int64(len(csv)), api.sizes[key])

	ok, err := c.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := c.Download(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, csv, string(got))

	require.NoError(t, c.Delete(ctx, key))
	ok, err = c.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_UploadUnknownSize(t *testing.T) {
	api := newFakeObjects()
	c := &Client{api: api, bucket: "b"}

	r, w := io.Pipe()
	go func() {
		_, _ = w.Write([]byte("[]"))
		_ = w.Close()
	}()
	require.NoError(t, c.Upload(context.Background(), "k", r, "application/json"))
	assert.Equal(t, int64(-1), api.sizes["k"])
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	api := newFakeObjects()
	api.putErr = errors.New("put-fail")
	api.getErr = errors.New("get-fail")
	api.removeErr = errors.New("remove-fail")
	api.statErr = errors.New("stat-fail")
	c := &Client{api: api, bucket: "b"}

	assert.ErrorContains(t, c.Upload(ctx, "k", strings.NewReader("x"), "text/plain"), "failed to upload object")

	rc, err := c.Download(ctx, "k")
	assert.Nil(t, rc)
	assert.ErrorContains(t, err, "failed to get object")

	assert.ErrorContains(t, c.Delete(ctx, "k"), "failed to delete object")

	ok, err := c.Exists(ctx, "k")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "failed to stat object")
}

func TestExportKey(t *testing.T) {
	a := ExportKey("json")
	b := ExportKey(".json")

	assert.True(t, strings.HasPrefix(a, "exports/"))
	assert.True(t, strings.HasSuffix(a, ".json"))
	assert.True(t, strings.HasSuffix(b, ".json"))
	assert.NotContains(t, b, "..")
	assert.NotEqual(t, a, b)
}
