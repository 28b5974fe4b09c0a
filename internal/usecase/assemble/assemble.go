// Where: cli/internal/usecase/assemble/assemble.go
// What: Topology assembler composing every binding in dependency order.
// Why: Single entry point that turns a resolved config into declared resources.
package assemble

import (
	"context"
	"fmt"

	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/usecase/compute"
	"github.com/poruru/webviz-stack/internal/usecase/invocation"
	"github.com/poruru/webviz-stack/internal/usecase/postcreate"
	"github.com/poruru/webviz-stack/internal/usecase/storage"
)

// Assemble declares the service, the bucket, the optional CORS action, and
// the invocation targets. Every step after the service consumes the
// ServiceEndpoint it returned. Any failure aborts and no topology is returned.
func Assemble(ctx context.Context, cfg topology.DeploymentConfig, backend topology.Backend) (*topology.Topology, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}

	service, endpoint, err := compute.DeclareService(ctx, backend, cfg)
	if err != nil {
		return nil, err
	}

	binding, err := storage.Bind(ctx, backend, cfg, endpoint)
	if err != nil {
		return nil, err
	}

	topo := &topology.Topology{
		Config:   cfg,
		Service:  service,
		Endpoint: endpoint,
		Storage:  binding,
		Targets:  map[string]topology.InvocationTarget{},
	}

	switch b := binding.(type) {
	case topology.Referenced:
		action, err := postcreate.Declare(ctx, backend, b, endpoint)
		if err != nil {
			return nil, err
		}
		topo.CustomAction = action
		topo.Targets[invocation.KindPutCors] = action.Target
	case topology.Created:
		// rules are already part of the bucket declaration
	default:
		return nil, fmt.Errorf("unsupported storage binding %T", binding)
	}

	env, err := invocation.GenerateURLEnvironment(endpoint, cfg.ScenarioDatastore)
	if err != nil {
		return nil, err
	}
	dependsOn := []string{endpoint.Source.LogicalID}
	if id := binding.Handle().LogicalID; id != "" {
		dependsOn = append(dependsOn, id)
	}
	generateURL, err := invocation.DeclareInvocationTarget(
		ctx,
		backend,
		invocation.KindGenerateURL,
		invocation.GenerateURLGrant(binding.Handle(), cfg.ScenarioDatastore, backend.AccountID()),
		env,
		invocation.Options{FunctionName: cfg.GenerateURLFunctionName, DependsOn: dependsOn},
	)
	if err != nil {
		return nil, err
	}
	topo.Targets[invocation.KindGenerateURL] = generateURL

	return topo, nil
}
