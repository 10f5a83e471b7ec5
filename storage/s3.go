package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/BX-Coding/scratch-storage/interfaces"
)

// S3Source implements an asset source using Amazon S3 or compatible services.
// It supports both public read-only access and authenticated write access.
type S3Source struct {
	client         *s3.S3
	writeClient    *s3.S3
	bucketName     string
	prefix         string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// NewS3Source creates a new S3 asset source.
// If accessKey and secretKey are provided, the source will have write access.
// Otherwise, it will be read-only for publicly accessible objects.
func NewS3Source(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Source, error) {
	// Format the URI for tracking
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}
	if accessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", accessKey, bucketName, prefix, region)
		if endpoint != "" {
			uri += fmt.Sprintf("&endpoint=%s", endpoint)
		}
	}

	// Configure base AWS SDK for read-only public access
	baseCfg := aws.Config{
		Region: aws.String(region),
	}

	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
		baseCfg.S3ForcePathStyle = aws.Bool(true)
	}

	// Create AWS session for read operations (no credentials required for public buckets)
	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	readClient := s3.New(baseSess)

	// Check if we have write credentials
	hasWriteAccess := accessKey != "" && secretKey != ""
	var writeClient *s3.S3

	if hasWriteAccess {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")

		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS write session: %w", err)
		}

		writeClient = s3.New(writeSess)
	} else {
		writeClient = readClient
		log.Warn("No S3 credentials provided - write operations may fail unless bucket is public writable")
	}

	return &S3Source{
		client:         readClient,
		writeClient:    writeClient,
		bucketName:     bucketName,
		prefix:         strings.TrimSuffix(prefix, "/"),
		log:            log,
		locationURI:    uri,
		hasWriteAccess: hasWriteAccess,
	}, nil
}

// Get retrieves an asset payload from S3 by its object key.
// Returns ErrAssetNotFound if the object doesn't exist.
func (s *S3Source) Get(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat) ([]byte, error) {
	start := time.Now()
	key := s.getObjectKey(id, format)

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	if err != nil {
		if isS3NotFound(err) {
			s.log.Debug("Asset not found in S3",
				slog.String("bucket", s.bucketName),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrAssetNotFound
		}

		s.log.Error("Failed to get object from S3",
			slog.String("bucket", s.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		s.log.Error("Failed to read object body",
			slog.String("bucket", s.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	s.log.Debug("Fetched asset from S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Create uploads a payload under a new object key. Content-named asset types
// derive the id from the payload when the request carries none.
func (s *S3Source) Create(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	id := req.ID
	if id.Empty() {
		id = interfaces.ComputeAssetID(req.Data)
	}

	if err := s.put(ctx, id, req.Format, req.Data); err != nil {
		return nil, err
	}
	return &interfaces.StoreResult{ID: id, Status: "created"}, nil
}

// Update uploads a payload under an existing object key.
func (s *S3Source) Update(ctx context.Context, req interfaces.StoreRequest) (*interfaces.StoreResult, error) {
	if req.ID.Empty() {
		return nil, fmt.Errorf("update requires an asset id")
	}

	if err := s.put(ctx, req.ID, req.Format, req.Data); err != nil {
		return nil, err
	}
	return &interfaces.StoreResult{ID: req.ID, Status: "updated"}, nil
}

// put uploads one object with public-read ACL using the write client.
func (s *S3Source) put(ctx context.Context, id interfaces.AssetID, format interfaces.DataFormat, data []byte) error {
	key := s.getObjectKey(id, format)

	_, err := s.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(format.ContentType()),
		ACL:         aws.String("public-read"), // Make object publicly readable
	})
	if err != nil {
		if !s.hasWriteAccess {
			return fmt.Errorf("failed to upload object to S3 (no write credentials provided): %w", err)
		}
		return fmt.Errorf("failed to upload object to S3: %w", err)
	}

	s.log.Debug("Stored asset in S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)))

	return nil
}

// Capabilities reports read always and write when credentials were provided.
func (s *S3Source) Capabilities() interfaces.SourceCapabilities {
	if s.hasWriteAccess {
		return interfaces.CapReadWrite
	}
	return interfaces.CapGet
}

// Available checks if the S3 source is accessible by attempting to head the bucket.
func (s *S3Source) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})

	if err != nil {
		s.log.Warn("S3 source unavailable",
			slog.String("bucket", s.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	return true
}

// Name returns a unique identifier for this source.
func (s *S3Source) Name() string {
	return fmt.Sprintf("s3-%s", s.bucketName)
}

// LocationURI returns the URI that identifies this source.
func (s *S3Source) LocationURI() string {
	return s.locationURI
}

// getObjectKey generates an S3 object key for an asset id and format.
func (s *S3Source) getObjectKey(id interfaces.AssetID, format interfaces.DataFormat) string {
	key := objectKey(id, format)

	if s.prefix == "" {
		return key
	}

	return path.Join(s.prefix, key)
}

// isS3NotFound reports whether an S3 error means the object or bucket key is
// definitively absent.
func isS3NotFound(err error) bool {
	if awsErr, ok := err.(awserr.Error); ok {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}
