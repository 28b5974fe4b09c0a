// Where: cli/internal/infra/docker/client.go
// What: Docker SDK client constructor and the subset of methods the CLI uses.
// Why: Centralize Docker SDK initialization and keep callers mockable.
package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Client defines the subset of Docker SDK methods used by this package.
type Client interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	CreateContainer(ctx context.Context, name string, config *container.Config, hostConfig *container.HostConfig) (string, error)
}

type sdkClient struct {
	*client.Client
}

func (c sdkClient) CreateContainer(
	ctx context.Context,
	name string,
	config *container.Config,
	hostConfig *container.HostConfig,
) (string, error) {
	resp, err := c.ContainerCreate(ctx, config, hostConfig, nil, nil, name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// NewClient constructs a Docker SDK client using environment defaults.
func NewClient() (Client, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return sdkClient{Client: dockerClient}, nil
}
