package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

func TestFSSinkPut(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	sink, err := NewFSSink(root)
	require.NoError(t, err)

	require.NoError(t, sink.Put(ctx, "events/a.jsonl", []byte("{}\n")))
	data, err := os.ReadFile(filepath.Join(root, "events", "a.jsonl"))
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(data))

	err = sink.Put(ctx, "events/a.jsonl", []byte("other"))
	require.ErrorIs(t, err, ErrExists)

	for _, bad := range []string{"", "/abs", "../escape", "a/../../b"} {
		require.Error(t, sink.Put(ctx, bad, nil), bad)
	}

	entries, err := os.ReadDir(filepath.Join(root, "events"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must be cleaned up")
}

type fakeS3 struct {
	objects map[string][]byte
	headErr error
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; ok {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &types.NotFound{}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	buf, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = buf
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkPut(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	sink := &S3Sink{client: fake, bucket: "archive"}

	require.NoError(t, sink.Put(ctx, "/events/1-2.jsonl", []byte("line\n")))
	require.Equal(t, []byte("line\n"), fake.objects["events/1-2.jsonl"])

	require.ErrorIs(t, sink.Put(ctx, "events/1-2.jsonl", []byte("x")), ErrExists)

	fake.headErr = errors.New("access denied")
	require.ErrorContains(t, sink.Put(ctx, "events/3-4.jsonl", []byte("x")), "access denied")
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{})
	require.Error(t, err)
}
