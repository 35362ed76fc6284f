package s3audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/store"
)

type fakeS3 struct {
	s3iface.S3API
	puts []*s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestInsertAuditRecord(t *testing.T) {
	client := &fakeS3{}
	sink := NewSinkWithClient(client, "audit-bucket", "/levelgate/", zap.NewNop())
	sink.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }

	rec := &store.AuditRecord{
		Method:   "POST",
		Endpoint: "/api/v1/auth/level",
		SourceIP: "192.0.2.10",
		Headers:  `{}`,
		Query:    `{}`,
	}
	require.NoError(t, sink.InsertAuditRecord(context.Background(), rec))

	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, "audit-bucket", aws.StringValue(put.Bucket))
	assert.True(t, strings.HasPrefix(aws.StringValue(put.Key), "levelgate/2026/03/09/"))
	assert.True(t, strings.HasSuffix(aws.StringValue(put.Key), ".json"))
	assert.Equal(t, "application/json", aws.StringValue(put.ContentType))

	var decoded store.AuditRecord
	require.NoError(t, json.Unmarshal(client.body, &decoded))
	assert.Equal(t, "POST", decoded.Method)
	assert.Equal(t, "192.0.2.10", decoded.SourceIP)
	assert.True(t, rec.CreatedAt.Equal(decoded.CreatedAt))
}

func TestInsertAuditRecordPropagatesFailure(t *testing.T) {
	client := &fakeS3{err: errors.New("SlowDown")}
	sink := NewSinkWithClient(client, "audit-bucket", "", zap.NewNop())

	err := sink.InsertAuditRecord(context.Background(), &store.AuditRecord{Method: "GET"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SlowDown")
}
