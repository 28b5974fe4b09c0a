// Where: cli/internal/infra/awsclient/factory.go
// What: AWS SDK configuration for S3 and DynamoDB clients.
// Why: Share one way to build clients for real AWS and for local compatible endpoints.
package awsclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/poruru/webviz-stack/internal/constants"
)

const DefaultRegion = "us-east-1"

// Options selects the region, an optional custom endpoint, and optional
// static credentials. Empty credentials fall back to the default chain.
type Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// LocalOptions reads endpoint and credentials for local compatible services.
func LocalOptions(region, endpointEnv string) Options {
	return Options{
		Region:    region,
		Endpoint:  strings.TrimSpace(os.Getenv(endpointEnv)),
		AccessKey: envOr(constants.EnvLocalAccessKey, "webvizadmin"),
		SecretKey: envOr(constants.EnvLocalSecretKey, "webvizadmin"),
	}
}

// LoadConfig resolves the SDK configuration for opts.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = os.Getenv(constants.EnvAWSRegion)
	}
	if region == "" {
		region = DefaultRegion
	}

	loaders := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
		loaders = append(loaders, config.WithCredentialsProvider(creds))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// NewS3 builds an S3 adapter. A custom endpoint switches to path-style addressing.
func NewS3(ctx context.Context, opts Options) (*S3, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{client: client, presign: s3.NewPresignClient(client), region: cfg.Region}, nil
}

// NewDynamoDB builds a DynamoDB adapter.
func NewDynamoDB(ctx context.Context, opts Options) (*DynamoDB, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &DynamoDB{client: client}, nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
