// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package storage

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/tomtom215/strongroom/internal/errs"
	"github.com/tomtom215/strongroom/internal/logging"
)

// S3Credentials holds the access/secret pair unlocked from internal/secrets
// for an object-storage StorageDefinition.
type S3Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string // non-empty for S3-compatible providers (MinIO, etc.)
}

// S3Provider implements Provider against any S3-compatible object store
// via aws-sdk-go-v2. Multipart PUTs use feature/s3/manager's upload
// manager (mandatory per §4.3 for object-storage backends). PutObject,
// GetObject and DeleteObject are wrapped in whole-call retry
// (cenkalti/backoff) and a circuit breaker (sony/gobreaker); a retried
// PutObject restarts the upload from the beginning of the body.
type S3Provider struct {
	client   *s3.Client
	uploader *manager.Uploader
	retry    RetryConfig
}

// NewS3Provider constructs a provider from unlocked credentials. ctx is
// used only for the initial config resolution.
func NewS3Provider(ctx context.Context, creds S3Credentials, retry RetryConfig) (*S3Provider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(creds.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, errs.New(errs.KindConfig, "storage.NewS3Provider", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if creds.Endpoint != "" {
			o.BaseEndpoint = aws.String(creds.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Provider{
		client:   client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) { u.PartSize = PartSize }),
		retry:    retry,
	}, nil
}

func (p *S3Provider) Kind() string { return "s3" }

func (p *S3Provider) PutObject(ctx context.Context, container Container, id ObjectID, stream io.Reader, expectedSize int64) error {
	log := logging.WithComponent("storage.s3")
	bucket := string(container)
	key := string(id)

	breaker := breakerFor("s3-put:" + bucket)
	seeker, _ := stream.(io.Seeker)
	err := retryPart(ctx, p.retry, breaker, func(ctx context.Context) error {
		if seeker != nil {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return errs.New(errs.KindIO, "storage.PutObject", err).WithPath(key)
			}
		}
		_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   stream,
		})
		return classifyS3Error("PutObject", err)
	})
	if err != nil {
		return err
	}

	log.Debug().Str("bucket", bucket).Str("key", key).Int64("expected_size", expectedSize).Msg("object uploaded")
	return nil
}

func (p *S3Provider) GetObject(ctx context.Context, container Container, id ObjectID) (io.ReadCloser, error) {
	breaker := breakerFor("s3-get:" + string(container))
	var body io.ReadCloser
	err := retryPart(ctx, p.retry, breaker, func(ctx context.Context) error {
		out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(string(container)),
			Key:    aws.String(string(id)),
		})
		if err != nil {
			return classifyS3Error("GetObject", err)
		}
		body = out.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (p *S3Provider) ListObjects(ctx context.Context, container Container, prefix string, yield func(ListEntry) bool) error {
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(string(container)),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return classifyS3Error("ListObjectsV2", err)
		}
		for _, obj := range page.Contents {
			entry := ListEntry{ID: ObjectID(aws.ToString(obj.Key)), Size: aws.ToInt64(obj.Size)}
			if !yield(entry) {
				return nil
			}
		}
	}
	return nil
}

func (p *S3Provider) DeleteObject(ctx context.Context, container Container, id ObjectID) error {
	breaker := breakerFor("s3-delete:" + string(container))
	return retryPart(ctx, p.retry, breaker, func(ctx context.Context) error {
		_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(string(container)),
			Key:    aws.String(string(id)),
		})
		return classifyS3Error("DeleteObject", err)
	})
}

func (p *S3Provider) CreateContainer(ctx context.Context, baseName string, autoFindSuffix bool) (Container, error) {
	name := baseName
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			if !autoFindSuffix {
				return "", errs.New(errs.KindProvider, "storage.CreateContainer", errs.ErrAlreadyExists)
			}
			candidate = baseName + "-" + strconv.Itoa(i)
		}

		_, err := p.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(candidate)})
		if err == nil {
			return Container(candidate), nil
		}

		var alreadyOwned *s3types.BucketAlreadyOwnedByYou
		var alreadyExists *s3types.BucketAlreadyExists
		if errors.As(err, &alreadyOwned) {
			return Container(candidate), nil
		}
		if errors.As(err, &alreadyExists) && autoFindSuffix {
			continue
		}
		return "", errs.New(errs.KindProvider, "storage.CreateContainer", err)
	}
}

// classifyS3Error maps an AWS SDK error into the §7 provider-error
// taxonomy, marking network/5xx/throttling failures transient (retried
// under backoff) and auth/not-found failures permanent (fail immediately).
func classifyS3Error(op string, err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return errs.New(errs.KindProvider, op, errs.ErrNotFound)
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == 404:
			return errs.New(errs.KindProvider, op, errs.ErrNotFound)
		case status == 401 || status == 403:
			return errs.New(errs.KindProvider, op, errs.ErrAuthFailure)
		case status == 429 || status >= 500:
			return errs.New(errs.KindProvider, op, err).Transient()
		}
	}

	// Unclassified network-layer errors (DNS, connection reset, timeout)
	// are treated as transient per §4.3's {network, 5xx, throttled} set.
	return errs.New(errs.KindProvider, op, err).Transient()
}
