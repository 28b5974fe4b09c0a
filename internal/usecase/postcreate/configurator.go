// Where: cli/internal/usecase/postcreate/configurator.go
// What: Post-creation configurator declaration for referenced buckets.
// Why: CORS on a bucket this deployment does not own must be applied out-of-band.
package postcreate

import (
	"context"
	"fmt"

	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/usecase/invocation"
)

const CustomActionLogicalID = "PutCorsRulesCustomResource"

// Declare schedules exactly one CORS custom action for bucket. The PutCors
// target gets a grant for that bucket only.
func Declare(
	ctx context.Context,
	backend topology.Backend,
	bucket topology.Referenced,
	endpoint topology.ServiceEndpoint,
) (*topology.CustomAction, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if !endpoint.Resolved() {
		return nil, fmt.Errorf("declare cors action: %w", topology.ErrUnresolved)
	}
	handle := bucket.Handle()
	if handle.IsZero() {
		return nil, fmt.Errorf("declare cors action: %w", topology.TargetNotFound("empty bucket handle"))
	}

	target, err := invocation.DeclareInvocationTarget(
		ctx,
		backend,
		invocation.KindPutCors,
		invocation.PutCorsGrant(handle),
		nil,
		invocation.Options{},
	)
	if err != nil {
		return nil, err
	}

	props := map[string]string{
		topology.PropertyBucketName:    handle.Name,
		topology.PropertyAllowedOrigin: endpoint.URL(),
	}
	resource, err := backend.DeclareCustomAction(ctx, topology.CustomActionDeclaration{
		LogicalID:    CustomActionLogicalID,
		ResourceType: topology.CORSResourceType,
		Function:     target.Function,
		Properties:   props,
		DependsOn:    []string{endpoint.Source.LogicalID, target.Function.LogicalID},
	})
	if err != nil {
		return nil, fmt.Errorf("declare cors action: %w", topology.WrapBackend("DeclareCustomAction", err))
	}

	return &topology.CustomAction{
		Resource:   resource,
		Target:     target,
		Properties: props,
	}, nil
}
