package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

var sseAlgorithm = "AES256"

// S3 is a Store backed by an S3 bucket.
type S3 struct {
	s3         s3iface.S3API
	bucket     string
	publicBase string
	presignTTL time.Duration
}

var _ Store = (*S3)(nil)

// NewS3 returns a store on bucket. When publicBase is set, public URLs are
// publicBase + "/" + key; otherwise they are presigned for presignTTL.
func NewS3(awsSession *session.Session, bucket, publicBase string, presignTTL time.Duration) *S3 {
	return NewS3WithClient(s3.New(awsSession), bucket, publicBase, presignTTL)
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client s3iface.S3API, bucket, publicBase string, presignTTL time.Duration) *S3 {
	return &S3{
		s3:         client,
		bucket:     bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		presignTTL: presignTTL,
	}
}

// NewAWSSession builds a session for region, optionally against a custom
// S3-compatible endpoint.
func NewAWSSession(region, endpoint string) (*session.Session, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return sess, nil
}

func (s *S3) Put(ctx context.Context, p string, r io.Reader, size int64, opts PutOptions) error {
	key, err := CleanPath(p)
	if err != nil {
		return err
	}

	body, ok := r.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(io.LimitReader(r, size))
		if err != nil {
			return fmt.Errorf("failed to buffer object: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:               &s.bucket,
		Key:                  &key,
		Body:                 body,
		ContentLength:        aws.Int64(size),
		ContentType:          &contentType,
		ServerSideEncryption: &sseAlgorithm,
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	var reqOpts []request.Option
	if !opts.Overwrite {
		reqOpts = append(reqOpts, request.WithSetRequestHeaders(map[string]string{"If-None-Match": "*"}))
	}

	if _, err := s.s3.PutObjectWithContext(ctx, input, reqOpts...); err != nil {
		if statusCode(err) == http.StatusPreconditionFailed {
			return ErrExists
		}
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

func (s *S3) Open(ctx context.Context, p string) (io.ReadCloser, ObjectInfo, error) {
	key, err := CleanPath(p)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil, ObjectInfo{}, ErrNoObject
		}
		return nil, ObjectInfo{}, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	return obj.Body, ObjectInfo{
		ContentType:  aws.StringValue(obj.ContentType),
		CacheControl: aws.StringValue(obj.CacheControl),
		Size:         aws.Int64Value(obj.ContentLength),
	}, nil
}

func (s *S3) PublicURL(_ context.Context, p string) (string, error) {
	key, err := CleanPath(p)
	if err != nil {
		return "", err
	}

	if s.publicBase != "" {
		return s.publicBase + "/" + key, nil
	}

	req, _ := s.s3.GetObjectRequest(&s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})

	url, err := req.Presign(s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}

	return url, nil
}

func (s *S3) Delete(ctx context.Context, p string) error {
	key, err := CleanPath(p)
	if err != nil {
		return err
	}

	if _, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

func statusCode(err error) int {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode()
	}
	return 0
}
