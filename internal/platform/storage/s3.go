package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrObjectExists is returned when an upload would overwrite an existing object.
var ErrObjectExists = errors.New("object already exists")

// ObjectStore abstracts the avatar object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(url string) (string, bool)
}

// S3Store persists objects in an S3-compatible bucket (AWS or MinIO).
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// S3Options carries the connection settings for an S3Store.
type S3Options struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// NewS3Store builds an S3Store. A non-empty Endpoint switches the client to
// path-style addressing for MinIO compatibility.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := strings.TrimSuffix(opts.PublicBaseURL, "/")
	if publicBase == "" && opts.Endpoint != "" {
		publicBase = strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket
	}

	return &S3Store{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: publicBase,
	}, nil
}

// Upload stores an object with no-overwrite semantics and a one hour cache window.
func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		CacheControl: aws.String("max-age=3600"),
		// IfNoneMatch "*" makes the put fail when the key is taken.
		IfNoneMatch: aws.String("*"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		if strings.Contains(err.Error(), "PreconditionFailed") {
			return ErrObjectExists
		}
		return fmt.Errorf("storage: put object %q: %w", key, err)
	}
	return nil
}

// Remove deletes an object. Deleting a missing key is not an error in S3.
func (s *S3Store) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the browsable URL for a stored object.
func (s *S3Store) PublicURL(key string) string {
	return s.publicBaseURL + "/" + key
}

// KeyFromURL recovers the object key from a public URL previously issued by
// PublicURL. Returns false for URLs outside this bucket.
func (s *S3Store) KeyFromURL(url string) (string, bool) {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

// AvatarKey derives a randomized storage key scoped under the user's
// identifier, preserving the original file extension.
func AvatarKey(userID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("users/%s/%s%s", userID, uuid.New(), ext)
}
