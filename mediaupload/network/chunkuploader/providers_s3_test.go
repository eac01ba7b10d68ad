package chunkuploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	ranges  []string
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{Message: aws.String("not found")}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}

	rng := aws.ToString(params.Range)
	f.ranges = append(f.ranges, rng)

	var start, end int64
	if _, err := fmt.Sscanf(rng, "bytes=%d-%d", &start, &end); err != nil {
		return nil, err
	}
	if end >= int64(len(data)) {
		end = int64(len(data)) - 1
	}
	body := data[start : end+1]

	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
		ContentRange:  aws.String(fmt.Sprintf("bytes %d-%d/%d", start, end, len(data))),
	}, nil
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://media/raw/holiday.mp4")
	require.NoError(t, err)
	assert.Equal(t, "media", bucket)
	assert.Equal(t, "raw/holiday.mp4", key)

	for _, invalid := range []string{"https://media/raw.mp4", "s3:///raw.mp4", "s3://media", "s3://media/"} {
		_, _, err := ParseS3URL(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestIsS3Source(t *testing.T) {
	assert.True(t, IsS3Source("s3://media/clip.mp4"))
	assert.False(t, IsS3Source("./clip.mp4"))
}

func TestS3ChunkProvider(t *testing.T) {
	data := []byte("0123456789abcdefghij-")
	client := &fakeS3{objects: map[string][]byte{"raw/clip.mp4": data}}

	provider, err := newS3ChunkProvider(context.Background(), client, "media", "raw/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", provider.Name())
	assert.Equal(t, int64(len(data)), provider.TotalSize())

	parts, err := PlanParts(provider.TotalSize(), 10)
	require.NoError(t, err)

	var got []byte
	for _, part := range parts {
		chunk, err := provider.GetChunk(context.Background(), part)
		require.NoError(t, err)
		got = append(got, chunk...)
	}
	assert.Equal(t, data, got)
	assert.Equal(t, []string{"bytes=0-9", "bytes=10-19", "bytes=20-20"}, client.ranges)
}

func TestS3ChunkProvider_NotFound(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}}

	_, err := newS3ChunkProvider(context.Background(), client, "media", "missing.mp4")
	require.ErrorIs(t, err, ErrS3ObjectNotFound)
}
