package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/blobkv/internal/hash"
)

// UploadConfig controls how snapshot files reach S3.
type UploadConfig struct {
	// PartSize is both the multipart part size and the largest blob sent
	// as a single PutObject. Values below the S3 minimum of 5 MiB are
	// raised to it. Default: 8 MiB.
	PartSize int64

	// Concurrency bounds the parts in flight for one blob. Default: 5.
	Concurrency int

	// EnableChecksum sends a CRC32C that S3 verifies. Default: true.
	EnableChecksum bool

	// LeavePartsOnError keeps the parts of a failed multipart upload.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the settings NewStore and New start from.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 << 20,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func (c UploadConfig) normalized() UploadConfig {
	c.PartSize = max(c.PartSize, manager.MinUploadPartSize)
	c.Concurrency = max(c.Concurrency, 1)
	return c
}

func (s *Store) newUploader() *manager.Uploader {
	return manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = s.upload.PartSize
		u.Concurrency = s.upload.Concurrency
		u.LeavePartsOnError = s.upload.LeavePartsOnError
	})
}

// put sends small blobs in one request carrying a locally computed CRC32C
// and larger ones through the multipart uploader.
func (s *Store) put(ctx context.Context, key string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}

	if int64(len(data)) <= s.upload.PartSize && s.upload.EnableChecksum {
		input.ContentLength = aws.Int64(int64(len(data)))
		input.ChecksumCRC32C = aws.String(hash.Base64CRC32C(data))
		if _, err := s.client.PutObject(ctx, input); err != nil {
			return fmt.Errorf("s3: put %s: %w", key, err)
		}
		return nil
	}

	if s.upload.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3: upload %s: %w", key, err)
	}
	return nil
}
