package s3

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type blob struct {
	store *Store
	key   string
	size  int64
}

func (b *blob) Size() int64  { return b.size }
func (b *blob) Close() error { return nil }

// Reader fetches the whole object. Full-object reads let the SDK validate
// the checksum stored at upload.
func (b *blob) Reader(ctx context.Context) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(b.store.bucket),
		Key:    aws.String(b.key),
	}
	if b.store.upload.EnableChecksum {
		input.ChecksumMode = types.ChecksumModeEnabled
	}
	resp, err := b.store.client.GetObject(ctx, input)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
