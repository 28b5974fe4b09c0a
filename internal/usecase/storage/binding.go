// Where: cli/internal/usecase/storage/binding.go
// What: Storage binding that references an existing bucket or declares a new one.
// Why: The CORS rules can only be embedded when this deployment owns the bucket.
package storage

import (
	"context"
	"fmt"

	"github.com/poruru/webviz-stack/internal/domain/topology"
)

const BucketLogicalID = "WebvizBucket"

// Bind decides the bucket mode from cfg. The endpoint must already be
// resolved; a created bucket embeds a read-only CORS rule for it.
func Bind(
	ctx context.Context,
	backend topology.Backend,
	cfg topology.DeploymentConfig,
	endpoint topology.ServiceEndpoint,
) (topology.StorageBinding, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if !endpoint.Resolved() {
		return nil, fmt.Errorf("bind storage: %w", topology.ErrUnresolved)
	}

	if cfg.BucketExists {
		handle, err := backend.ReferenceBucket(ctx, cfg.BucketName)
		if err != nil {
			return nil, fmt.Errorf("reference bucket %s: %w", cfg.BucketName, topology.WrapBackend("ReferenceBucket", err))
		}
		return topology.NewReferenced(handle), nil
	}

	rules := []topology.CORSRule{topology.ReadOnlyCORSRule(endpoint.URL())}
	handle, err := backend.CreateBucket(ctx, topology.BucketDeclaration{
		LogicalID: BucketLogicalID,
		Name:      cfg.BucketName,
		CORS:      rules,
		DependsOn: []string{endpoint.Source.LogicalID},
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket: %w", topology.WrapBackend("CreateBucket", err))
	}
	return topology.NewCreated(handle, rules), nil
}
