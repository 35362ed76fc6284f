// Package s3audit archives audit records as individual JSON objects in an S3 bucket.
package s3audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/config"
	"github.com/ebogdum/levelgate/store"
)

// Sink implements store.AuditWriter on top of S3
type Sink struct {
	client               s3iface.S3API
	bucketName           string
	prefix               string
	serverSideEncryption string
	logger               *zap.Logger
	now                  func() time.Time
}

// NewSink creates an S3 audit sink from configuration and verifies bucket access
func NewSink(cfg config.AuditConfig, logger *zap.Logger) (*Sink, error) {
	if cfg.S3BucketName == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}

	// Set custom endpoint if provided (for MinIO compatibility)
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := s3.New(sess)

	_, err = client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(cfg.S3BucketName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access S3 bucket %s: %w", cfg.S3BucketName, err)
	}

	sink := NewSinkWithClient(client, cfg.S3BucketName, cfg.S3Prefix, logger)
	sink.serverSideEncryption = cfg.S3ServerSideEncryption
	return sink, nil
}

// NewSinkWithClient creates a sink around an existing S3 client
func NewSinkWithClient(client s3iface.S3API, bucket, prefix string, logger *zap.Logger) *Sink {
	return &Sink{
		client:     client,
		bucketName: bucket,
		prefix:     strings.Trim(prefix, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

// InsertAuditRecord writes the record as <prefix>/YYYY/MM/DD/<uuid>.json
func (s *Sink) InsertAuditRecord(ctx context.Context, rec *store.AuditRecord) error {
	rec.CreatedAt = s.now().UTC()

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode audit record: %w", err)
	}

	key := s.objectKey(rec.CreatedAt, uuid.NewString())
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	}
	if s.serverSideEncryption != "" {
		input.ServerSideEncryption = aws.String(s.serverSideEncryption)
	}

	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to put audit record %s: %w", key, err)
	}

	s.logger.Debug("Audit record archived", zap.String("key", key))
	return nil
}

// Close closes any resources used by the sink
func (s *Sink) Close() error {
	// No resources to close for S3
	return nil
}

func (s *Sink) objectKey(t time.Time, id string) string {
	return path.Join(s.prefix, t.Format("2006/01/02"), id+".json")
}
