package media

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memS3 implements the handful of S3 calls S3Store makes.
type memS3 struct {
	s3iface.S3API
	objects map[string][]byte
	modTime time.Time
}

func newMemS3() *memS3 {
	return &memS3{objects: make(map[string][]byte), modTime: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.StringValue(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) DeleteObjectsWithContext(_ aws.Context, in *s3.DeleteObjectsInput, _ ...request.Option) (*s3.DeleteObjectsOutput, error) {
	for _, obj := range in.Delete.Objects {
		delete(m.objects, aws.StringValue(obj.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (m *memS3) ListObjectsV2PagesWithContext(_ aws.Context, _ *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	page := &s3.ListObjectsV2Output{}
	for k, v := range m.objects {
		page.Contents = append(page.Contents, &s3.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(v))),
			LastModified: aws.Time(m.modTime),
		})
	}
	fn(page, true)
	return nil
}

func TestNewKey(t *testing.T) {
	key := NewKey("my holiday photo.png")
	prefix, rest, ok := strings.Cut(key, "_")
	require.True(t, ok)
	assert.Len(t, prefix, 32)
	assert.Equal(t, "my_holiday_photo.png", rest)
	assert.NotEqual(t, key, NewKey("my holiday photo.png"))
}

func TestS3Store_Lifecycle(t *testing.T) {
	ctx := context.Background()
	client := newMemS3()
	store := NewS3StoreWithClient(client, "media")

	key, err := store.Upload(ctx, "avatar one.jpg", []byte("v1"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "_avatar_one.jpg"))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	replaced, err := store.Replace(ctx, key, []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, key, replaced)
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)
	assert.Equal(t, int64(2), objects[0].Size)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_DeleteNothing(t *testing.T) {
	store := NewS3StoreWithClient(newMemS3(), "media")
	assert.NoError(t, store.Delete(context.Background()))
}
