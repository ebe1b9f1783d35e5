// Package storage uploads media straight to an S3-compatible bucket, as an
// alternative to the blog API's upload endpoint.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/debemdeboas/the-archive-writer/internal/config"
	"github.com/debemdeboas/the-archive-writer/internal/media"
	"github.com/debemdeboas/the-archive-writer/internal/model"
	"github.com/debemdeboas/the-archive-writer/internal/slug"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var storageLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	storageLogger = l.With().Str("component", "storage").Logger()
}

const defaultRegion = "us-east-1"

var ErrAllUploadsFailed = errors.New("all file uploads failed")

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores each file as its own object and reports the public URL.
type S3Uploader struct {
	client    objectPutter
	bucket    string
	region    string
	prefix    string
	endpoint  string
	publicURL string
	newKey    func(fileName string) string
}

func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(config.ErrMissingBucket)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(awsRegion(cfg)),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Uploader(client, cfg), nil
}

// awsRegion maps the "auto" placeholder used by R2-style endpoints to a real
// AWS region when no endpoint is configured.
func awsRegion(cfg config.S3Config) string {
	if cfg.Endpoint == "" && (cfg.Region == "" || cfg.Region == "auto") {
		return defaultRegion
	}
	return cfg.Region
}

func newS3Uploader(client objectPutter, cfg config.S3Config) *S3Uploader {
	return &S3Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		region:    awsRegion(cfg),
		prefix:    strings.Trim(cfg.Prefix, "/"),
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		newKey:    objectKey,
	}
}

// Upload puts every file. Failures of individual files make the batch
// partial; if none succeed the call fails.
func (u *S3Uploader) Upload(ctx context.Context, files []model.File) (*model.UploadBatch, error) {
	batch := &model.UploadBatch{Results: make([]model.UploadResult, 0, len(files))}
	var errs []error

	for _, f := range files {
		key := u.newKey(f.Name)
		if u.prefix != "" {
			key = u.prefix + "/" + key
		}

		contentType := f.ContentType
		if contentType == "" {
			contentType = fallbackContentType(f.Name)
		}

		_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(u.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(f.Data),
			ContentLength: aws.Int64(int64(len(f.Data))),
			ContentType:   aws.String(contentType),
		})
		if err != nil {
			storageLogger.Error().Err(err).Str("file", f.Name).Str("key", key).Msg("S3 upload failed")
			errs = append(errs, fmt.Errorf("s3 upload %s/%s: %w", u.bucket, key, err))
			continue
		}

		storageLogger.Info().Str("file", f.Name).Str("key", key).Msg("Uploaded file to S3")
		batch.Results = append(batch.Results, model.UploadResult{URL: u.FileURL(key), FileName: f.Name})
	}

	if len(errs) > 0 {
		if len(batch.Results) == 0 {
			return nil, fmt.Errorf("%w: %w", ErrAllUploadsFailed, errors.Join(errs...))
		}
		batch.Partial = true
	}
	return batch, nil
}

// FileURL returns the public URL of key: the configured public URL when
// set, a path-style URL on a custom endpoint, and the virtual-hosted AWS
// URL otherwise.
func (u *S3Uploader) FileURL(key string) string {
	if u.publicURL != "" {
		return u.publicURL + "/" + key
	}
	if u.endpoint != "" {
		return u.endpoint + "/" + u.bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}

// objectKey keeps the extension and a readable stem, prefixed with a random
// id so names never collide.
func objectKey(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	stem := slug.Generate(strings.TrimSuffix(path.Base(fileName), path.Ext(fileName)))
	return uuid.New().String()[:8] + "-" + stem + ext
}

func fallbackContentType(fileName string) string {
	switch c := media.CategoryOf(fileName, ""); c {
	case media.Video, media.Audio:
		return media.MIMEType(c, fileName)
	case media.Image:
		ext := media.Extension(fileName)
		if ext == "jpg" {
			ext = "jpeg"
		}
		if ext == "svg" {
			ext = "svg+xml"
		}
		return "image/" + ext
	}
	return "application/octet-stream"
}
