// Where: cli/internal/usecase/compute/service.go
// What: Compute service binding for the webviz container behind a load balancer.
// Why: The service address is the root every CORS rule and env payload depends on.
package compute

import (
	"context"
	"fmt"
	"strings"

	"github.com/poruru/webviz-stack/internal/domain/topology"
)

const (
	ServiceLogicalID = "WebvizService"
	endpointScheme   = "http"
	maxLBNameLength  = 32
)

// NormalizeLoadBalancerName lowercases name. Origins are matched
// case-sensitively by the bucket CORS check, and the load balancer DNS name
// is derived from this identifier.
func NormalizeLoadBalancerName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", topology.MissingField("loadBalancerName")
	}
	if len(normalized) > maxLBNameLength {
		return "", topology.InvalidShape("loadBalancerName", fmt.Sprintf("longer than %d characters", maxLBNameLength))
	}
	for _, r := range normalized {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "", topology.InvalidShape("loadBalancerName", fmt.Sprintf("invalid character %q", r))
		}
	}
	if strings.HasPrefix(normalized, "-") || strings.HasSuffix(normalized, "-") {
		return "", topology.InvalidShape("loadBalancerName", "must not start or end with a hyphen")
	}
	return normalized, nil
}

// DeclareService declares the load-balanced service and derives its endpoint
// from the address the backend assigned.
func DeclareService(
	ctx context.Context,
	backend topology.Backend,
	cfg topology.DeploymentConfig,
) (topology.Handle, topology.ServiceEndpoint, error) {
	if backend == nil {
		return topology.Handle{}, topology.ServiceEndpoint{}, fmt.Errorf("backend is nil")
	}
	lbName, err := NormalizeLoadBalancerName(cfg.LoadBalancerName)
	if err != nil {
		return topology.Handle{}, topology.ServiceEndpoint{}, err
	}
	image := strings.TrimSpace(cfg.ContainerImage)
	if image == "" {
		image = topology.DefaultContainerImage
	}

	addr, err := backend.DeclareService(ctx, topology.ServiceDeclaration{
		LogicalID:        ServiceLogicalID,
		Image:            image,
		ContainerPort:    topology.ServiceContainerPort,
		LoadBalancerName: lbName,
	})
	if err != nil {
		return topology.Handle{}, topology.ServiceEndpoint{}, fmt.Errorf("declare service: %w", topology.WrapBackend("DeclareService", err))
	}

	endpoint, err := topology.NewServiceEndpoint(endpointScheme, addr.DNSName, addr.Handle)
	if err != nil {
		return topology.Handle{}, topology.ServiceEndpoint{}, fmt.Errorf("derive service endpoint: %w", err)
	}
	return addr.Handle, endpoint, nil
}
