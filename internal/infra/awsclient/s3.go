// Where: cli/internal/infra/awsclient/s3.go
// What: S3 adapter used by the PutCors handler, GenerateUrl, and the local backend.
// Why: Map domain CORS rules and bucket checks to SDK calls in one place.
package awsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/poruru/webviz-stack/internal/domain/topology"
)

type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	region  string
}

// BucketExists returns false (without error) for a missing bucket.
func (c *S3) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if c == nil || c.client == nil {
		return false, fmt.Errorf("s3 client is nil")
	}
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (c *S3) CreateBucket(ctx context.Context, bucket string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if c.region != "" && c.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.region),
		}
	}
	_, err := c.client.CreateBucket(ctx, input)
	return err
}

// PutBucketCORS replaces the bucket's CORS configuration with rules.
// A missing bucket is reported as topology.ErrTargetNotFound.
func (c *S3) PutBucketCORS(ctx context.Context, bucket string, rules []topology.CORSRule) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	_, err := c.client.PutBucketCors(ctx, &s3.PutBucketCorsInput{
		Bucket:            aws.String(bucket),
		CORSConfiguration: &s3types.CORSConfiguration{CORSRules: toSDKRules(rules)},
	})
	if err != nil && IsNotFound(err) {
		return fmt.Errorf("%w (%v)", topology.TargetNotFound(bucket), err)
	}
	return err
}

// GetBucketCORS returns no rules when the bucket has no CORS configuration.
func (c *S3) GetBucketCORS(ctx context.Context, bucket string) ([]topology.CORSRule, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}
	resp, err := c.client.GetBucketCors(ctx, &s3.GetBucketCorsInput{Bucket: aws.String(bucket)})
	if err != nil {
		if isCode(err, "NoSuchCORSConfiguration") {
			return nil, nil
		}
		return nil, err
	}
	return fromSDKRules(resp.CORSRules), nil
}

func (c *S3) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if c == nil || c.presign == nil {
		return "", fmt.Errorf("s3 presign client is nil")
	}
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func toSDKRules(rules []topology.CORSRule) []s3types.CORSRule {
	out := make([]s3types.CORSRule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, s3types.CORSRule{
			AllowedHeaders: rule.AllowedHeaders,
			AllowedMethods: rule.AllowedMethods,
			AllowedOrigins: rule.AllowedOrigins,
			ExposeHeaders:  rule.ExposedHeaders,
		})
	}
	return out
}

func fromSDKRules(rules []s3types.CORSRule) []topology.CORSRule {
	out := make([]topology.CORSRule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, topology.CORSRule{
			AllowedHeaders: rule.AllowedHeaders,
			AllowedMethods: rule.AllowedMethods,
			AllowedOrigins: rule.AllowedOrigins,
			ExposedHeaders: rule.ExposeHeaders,
		})
	}
	return out
}
