// Where: cli/internal/handlers/putcors/handler.go
// What: Idempotent "set CORS policy" action for a referenced bucket.
// Why: Runs out-of-band because referenced buckets cannot carry CORS declaratively.
package putcors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v5"
	"github.com/poruru/webviz-stack/internal/domain/topology"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts     = 3
	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
)

// RequestType is the lifecycle event delivered by the orchestrator.
type RequestType = cfn.RequestType

const (
	RequestCreate = cfn.RequestCreate
	RequestUpdate = cfn.RequestUpdate
	RequestDelete = cfn.RequestDelete
)

// Properties are the custom action inputs.
type Properties struct {
	BucketName    string `json:"bucket_name"`
	AllowedOrigin string `json:"allowed_origin"`
	ServiceToken  string `json:"ServiceToken,omitempty"`
}

// PropertiesFromMap reads the action inputs from an event property bag.
func PropertiesFromMap(m map[string]interface{}) Properties {
	return Properties{
		BucketName:    propString(m, "bucket_name"),
		AllowedOrigin: propString(m, "allowed_origin"),
		ServiceToken:  propString(m, "ServiceToken"),
	}
}

// Map renders the inputs as an event property bag.
func (p Properties) Map() map[string]interface{} {
	m := map[string]interface{}{
		"bucket_name":    p.BucketName,
		"allowed_origin": p.AllowedOrigin,
	}
	if p.ServiceToken != "" {
		m["ServiceToken"] = p.ServiceToken
	}
	return m
}

func propString(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// BucketCORSAPI is the storage operation the handler needs. PutBucketCORS
// returns an error matching topology.ErrTargetNotFound for a missing bucket.
type BucketCORSAPI interface {
	PutBucketCORS(ctx context.Context, bucket string, rules []topology.CORSRule) error
}

// Handler replaces the CORS configuration of a bucket with a single
// read-only rule for the allowed origin.
type Handler struct {
	Client          BucketCORSAPI
	MaxAttempts     int
	InitialInterval time.Duration
	Logger          *zap.Logger
}

// PhysicalID is stable per bucket so updates never look like replacements.
func PhysicalID(bucket string) string {
	return "put-cors-" + bucket
}

// Handle applies the action and returns the physical resource id.
func (h *Handler) Handle(ctx context.Context, request RequestType, props Properties) (string, error) {
	if h == nil || h.Client == nil {
		return "", fmt.Errorf("put cors handler is not configured")
	}
	logger := h.logger()
	bucket := strings.TrimSpace(props.BucketName)
	origin := strings.TrimSpace(props.AllowedOrigin)
	if bucket == "" {
		return "", fmt.Errorf("%s is required", topology.PropertyBucketName)
	}
	physicalID := PhysicalID(bucket)

	switch request {
	case RequestDelete:
		// The bucket is not owned by the deployment; leave its rules in place.
		logger.Info("delete requested, leaving bucket CORS untouched", zap.String("bucket", bucket))
		return physicalID, nil
	case RequestCreate, RequestUpdate:
	default:
		return "", fmt.Errorf("unsupported request type %q", request)
	}
	if origin == "" {
		return "", fmt.Errorf("%s is required", topology.PropertyAllowedOrigin)
	}

	rules := []topology.CORSRule{topology.ReadOnlyCORSRule(origin)}
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := h.apply(ctx, bucket, rules)
		if err == nil {
			return struct{}{}, nil
		}
		if !isTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		logger.Warn("transient failure applying CORS", zap.String("bucket", bucket), zap.Int("attempt", attempt), zap.Error(err))
		return struct{}{}, err
	}

	if _, err := backoff.Retry(ctx, op, backoff.WithBackOff(h.backOff()), backoff.WithMaxTries(uint(h.maxAttempts()))); err != nil {
		logger.Error("apply CORS failed", zap.String("bucket", bucket), zap.Int("attempts", attempt), zap.Error(err))
		return physicalID, err
	}
	logger.Info("applied CORS", zap.String("bucket", bucket), zap.String("origin", origin), zap.String("request", string(request)))
	return physicalID, nil
}

func (h *Handler) apply(ctx context.Context, bucket string, rules []topology.CORSRule) error {
	err := h.Client.PutBucketCORS(ctx, bucket, rules)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, topology.ErrTargetNotFound):
		return err
	default:
		return topology.WrapBackend("PutBucketCors", err)
	}
}

func (h *Handler) maxAttempts() int {
	if h.MaxAttempts > 0 {
		return h.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (h *Handler) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultInitialInterval
	if h.InitialInterval > 0 {
		b.InitialInterval = h.InitialInterval
	}
	b.MaxInterval = defaultMaxInterval
	return b
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.NewNop()
}

// isTransient treats server faults and non-API (network) errors as retryable.
func isTransient(err error) bool {
	if errors.Is(err, topology.ErrTargetNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "Throttling", "ThrottlingException", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return true
		}
		return apiErr.ErrorFault() == smithy.FaultServer
	}
	return true
}
