// Where: cli/internal/infra/docker/ports.go
// What: Port resolution helpers for local services.
// Why: Discover published ports of compose-managed emulators when they are dynamic.
package docker

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
)

const (
	ComposeProjectLabel = "com.docker.compose.project"
	ComposeServiceLabel = "com.docker.compose.service"
)

type PortRequest struct {
	Project       string
	Service       string
	ContainerPort int
}

type PortResolver interface {
	Resolve(ctx context.Context, request PortRequest) (int, error)
}

// ComposePortResolver finds the host port published for a compose service.
type ComposePortResolver struct {
	Client Client
}

func (r ComposePortResolver) Resolve(ctx context.Context, request PortRequest) (int, error) {
	if r.Client == nil {
		return 0, fmt.Errorf("docker client is nil")
	}
	if strings.TrimSpace(request.Project) == "" {
		return 0, fmt.Errorf("compose project is required")
	}
	if strings.TrimSpace(request.Service) == "" {
		return 0, fmt.Errorf("compose service is required")
	}
	if request.ContainerPort <= 0 {
		return 0, fmt.Errorf("container port is required")
	}

	labelFilter := filters.NewArgs()
	labelFilter.Add("label", fmt.Sprintf("%s=%s", ComposeProjectLabel, request.Project))
	labelFilter.Add("label", fmt.Sprintf("%s=%s", ComposeServiceLabel, request.Service))

	containers, err := r.Client.ContainerList(ctx, container.ListOptions{Filters: labelFilter})
	if err != nil {
		return 0, err
	}
	for _, ctr := range containers {
		if ctr.Labels[ComposeProjectLabel] != request.Project || ctr.Labels[ComposeServiceLabel] != request.Service {
			continue
		}
		if port := publishedPort(ctr, request.ContainerPort); port > 0 {
			return port, nil
		}
	}
	return 0, fmt.Errorf("published port not found for %s:%d", request.Service, request.ContainerPort)
}

func publishedPort(ctr container.Summary, containerPort int) int {
	for _, port := range ctr.Ports {
		if int(port.PrivatePort) == containerPort && port.PublicPort > 0 {
			return int(port.PublicPort)
		}
	}
	return 0
}

// ResolveEndpoint returns the endpoint URL from envVar when set, otherwise
// asks resolver for the published port, otherwise uses defaultPort.
// An empty string means no endpoint could be determined.
func ResolveEndpoint(
	ctx context.Context,
	envVar string,
	defaultPort int,
	request PortRequest,
	resolver PortResolver,
) string {
	raw := strings.TrimSpace(os.Getenv(envVar))
	if raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return raw
		}
		if port > 0 {
			return localURL(port)
		}
	}
	if resolver != nil {
		if port, err := resolver.Resolve(ctx, request); err == nil && port > 0 {
			return localURL(port)
		}
	}
	if defaultPort > 0 {
		return localURL(defaultPort)
	}
	return ""
}

func localURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}
