package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/scan-io-git/leakscan/internal/scan"
)

// S3 keeps baselines as objects in a bucket. A PutObject replaces the whole object,
// so readers never see a partially written baseline.
type S3 struct {
	client     s3iface.S3API
	bucket     string
	prefix     string
	stagingDir string
}

// NewS3 creates an S3 store backed by a fresh AWS session in region.
func NewS3(bucket, region, prefix, stagingDir string) (*S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3WithClient(s3.New(sess), bucket, prefix, stagingDir), nil
}

// NewS3WithClient creates an S3 store around an existing client.
func NewS3WithClient(client s3iface.S3API, bucket, prefix, stagingDir string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix, stagingDir: stagingDir}
}

func (s *S3) objectKey(key Key) string {
	return path.Join(s.prefix, key.Name())
}

// Location returns the s3:// URI of the baseline for key.
func (s *S3) Location(key Key) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.objectKey(key))
}

// Publish implements Store.
func (s *S3) Publish(ctx context.Context, sc *scan.Context, key Key, output []byte) (Result, error) {
	if res, done, err := checkPublish(ctx, key, output); done {
		return res, err
	}
	res := Result{Location: s.Location(key)}
	objectKey := s.objectKey(key)

	baseline, exists, err := s.fetch(ctx, objectKey)
	if err != nil {
		return Result{}, storeError(s.stagingDir, sc, key, output, err)
	}

	switch {
	case !exists:
		res.Outcome = Created
	case bytes.Equal(baseline, output):
		res.Outcome = Unchanged
		sc.Logger.Debug("output identical to baseline, discarding", "location", res.Location)
		return res, nil
	default:
		res.Outcome = Replaced
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
		Body:   bytes.NewReader(output),
	})
	if err != nil {
		return Result{}, storeError(s.stagingDir, sc, key, output, fmt.Errorf("failed to upload baseline %q: %w", res.Location, err))
	}
	return res, nil
}

func (s *S3) fetch(ctx context.Context, objectKey string) ([]byte, bool, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchKey, "NotFound":
				return nil, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to fetch baseline s3://%s/%s: %w", s.bucket, objectKey, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read baseline s3://%s/%s: %w", s.bucket, objectKey, err)
	}
	return data, true, nil
}
