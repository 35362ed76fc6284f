// Package audit records a snapshot of every opted-in API request,
// independent of how its authentication turned out.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/internal/redact"
	"github.com/ebogdum/levelgate/metrics"
	"github.com/ebogdum/levelgate/store"
)

// Auditor builds audit records from requests and persists them
type Auditor struct {
	writer       store.AuditWriter
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewAuditor creates an auditor. Bodies longer than maxBodyBytes are truncated;
// zero disables body capture.
func NewAuditor(writer store.AuditWriter, maxBodyBytes int64, logger *zap.Logger) *Auditor {
	return &Auditor{
		writer:       writer,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Log persists one audit record for r. A persistence failure is returned, not swallowed.
func (a *Auditor) Log(ctx context.Context, r *http.Request) error {
	rec, err := BuildRecord(r, a.maxBodyBytes)
	if err != nil {
		metrics.AuditWritesTotal.WithLabelValues("failure").Inc()
		return err
	}

	if err := a.writer.InsertAuditRecord(ctx, rec); err != nil {
		metrics.AuditWritesTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to persist audit record: %w", err)
	}

	metrics.AuditWritesTotal.WithLabelValues("success").Inc()
	a.logger.Debug("Request audited",
		zap.String("method", rec.Method),
		zap.String("endpoint", redact.Endpoint(rec.Endpoint)))
	return nil
}

// BuildRecord serializes r into an audit record. The request body is read
// and then restored so downstream handlers still see it.
func BuildRecord(r *http.Request, maxBodyBytes int64) (*store.AuditRecord, error) {
	headers, err := json.Marshal(headerMap(r))
	if err != nil {
		return nil, fmt.Errorf("failed to encode headers: %w", err)
	}

	query, err := json.Marshal(valuesMap(r.URL.Query()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	body, err := captureBody(r, maxBodyBytes)
	if err != nil {
		return nil, err
	}

	rec := &store.AuditRecord{
		Method:   r.Method,
		Endpoint: r.URL.RequestURI(),
		SourceIP: sourceIP(r),
		Headers:  string(headers),
		Query:    string(query),
		Body:     body,
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		rec.UserAgent = &ua
	}
	return rec, nil
}

// sourceIP prefers X-Forwarded-For, kept verbatim, over the connection address
func sourceIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// headerMap lower-cases header names and joins repeated values with ", "
func headerMap(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		out[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	if r.Host != "" {
		out["host"] = r.Host
	}
	return out
}

// valuesMap renders single values as strings and repeated values as arrays
func valuesMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		out[k] = v
	}
	return out
}

// captureBody returns the body as JSON text: compact JSON for JSON bodies,
// an object for form bodies, a JSON string otherwise, and nil when empty.
func captureBody(r *http.Request, maxBodyBytes int64) (*string, error) {
	if r.Body == nil || r.Body == http.NoBody || maxBodyBytes <= 0 {
		return nil, nil
	}

	limit := maxBodyBytes
	if limit < math.MaxInt64 {
		limit++
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}

	if len(buf) == 0 {
		return nil, nil
	}

	truncated := int64(len(buf)) > maxBodyBytes
	if truncated {
		buf = buf[:maxBodyBytes]
	}

	var out []byte
	switch {
	case !truncated && json.Valid(buf):
		var compact bytes.Buffer
		if err := json.Compact(&compact, buf); err != nil {
			return nil, fmt.Errorf("failed to compact request body: %w", err)
		}
		out = compact.Bytes()
	case !truncated && isForm(r):
		if values, perr := url.ParseQuery(string(buf)); perr == nil {
			out, err = json.Marshal(valuesMap(values))
		} else {
			out, err = json.Marshal(string(buf))
		}
	default:
		out, err = json.Marshal(string(buf))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	s := string(out)
	return &s, nil
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}
