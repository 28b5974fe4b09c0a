// Where: cli/internal/infra/docker/service.go
// What: Runs the viewer container as the local stand-in for the load-balanced service.
// Why: Give local deployments a real, reachable endpoint without a cloud load balancer.
package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/go-connections/nat"
	"github.com/poruru/webviz-stack/internal/meta"
)

const (
	ProjectLabel = meta.LabelPrefix + ".project"
	ServiceLabel = meta.LabelPrefix + ".service"

	defaultHostIP = "127.0.0.1"
)

// ServiceSpec identifies one service container within a project.
type ServiceSpec struct {
	Project       string
	Name          string
	Image         string
	ContainerPort int
}

// ServiceAddress is where a service container is reachable from the host.
type ServiceAddress struct {
	ContainerID string
	Host        string
	Port        int
}

// HostPort renders the address as "host:port".
func (a ServiceAddress) HostPort() string {
	return a.Host + ":" + strconv.Itoa(a.Port)
}

// ServiceRunner reuses a labelled container when present and starts one otherwise.
// HostIP is the bind address for published ports; AdvertiseHost (when
// set) replaces it in the returned address.
type ServiceRunner struct {
	Client        Client
	HostIP        string
	AdvertiseHost string
	Pull          io.Writer
}

// ContainerName is deterministic so reruns find the same container.
func ContainerName(spec ServiceSpec) string {
	return fmt.Sprintf("%s-%s", strings.ToLower(spec.Project), spec.Name)
}

func (r ServiceRunner) Ensure(ctx context.Context, spec ServiceSpec) (ServiceAddress, error) {
	if r.Client == nil {
		return ServiceAddress{}, fmt.Errorf("docker client is nil")
	}
	if spec.Name == "" || spec.Image == "" || spec.ContainerPort <= 0 {
		return ServiceAddress{}, fmt.Errorf("service name, image, and container port are required")
	}

	id, err := r.find(ctx, spec)
	if err != nil {
		return ServiceAddress{}, err
	}
	if id == "" {
		id, err = r.create(ctx, spec)
		if err != nil {
			return ServiceAddress{}, err
		}
	}

	info, err := r.Client.ContainerInspect(ctx, id)
	if err != nil {
		return ServiceAddress{}, fmt.Errorf("inspect %s: %w", id, err)
	}
	if info.ContainerJSONBase == nil || info.State == nil || !info.State.Running {
		if err := r.Client.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
			return ServiceAddress{}, fmt.Errorf("start %s: %w", id, err)
		}
		if info, err = r.Client.ContainerInspect(ctx, id); err != nil {
			return ServiceAddress{}, fmt.Errorf("inspect %s: %w", id, err)
		}
	}

	port, err := boundPort(info, spec.ContainerPort)
	if err != nil {
		return ServiceAddress{}, err
	}
	host := r.AdvertiseHost
	if host == "" {
		host = r.hostIP()
	}
	return ServiceAddress{ContainerID: id, Host: host, Port: port}, nil
}

func (r ServiceRunner) find(ctx context.Context, spec ServiceSpec) (string, error) {
	labelFilter := filters.NewArgs()
	labelFilter.Add("label", fmt.Sprintf("%s=%s", ProjectLabel, spec.Project))
	labelFilter.Add("label", fmt.Sprintf("%s=%s", ServiceLabel, spec.Name))
	containers, err := r.Client.ContainerList(ctx, container.ListOptions{All: true, Filters: labelFilter})
	if err != nil {
		return "", fmt.Errorf("list containers: %w", err)
	}
	for _, ctr := range containers {
		if ctr.Labels[ProjectLabel] == spec.Project && ctr.Labels[ServiceLabel] == spec.Name {
			return ctr.ID, nil
		}
	}
	return "", nil
}

func (r ServiceRunner) create(ctx context.Context, spec ServiceSpec) (string, error) {
	reader, err := r.Client.ImagePull(ctx, spec.Image, image.PullOptions{})
	if err != nil {
		return "", fmt.Errorf("pull %s: %w", spec.Image, err)
	}
	out := r.Pull
	if out == nil {
		out = io.Discard
	}
	_, copyErr := io.Copy(out, reader)
	_ = reader.Close()
	if copyErr != nil {
		return "", fmt.Errorf("pull %s: %w", spec.Image, copyErr)
	}

	port, err := nat.NewPort("tcp", strconv.Itoa(spec.ContainerPort))
	if err != nil {
		return "", fmt.Errorf("container port: %w", err)
	}
	config := &container.Config{
		Image:        spec.Image,
		ExposedPorts: nat.PortSet{port: struct{}{}},
		Labels: map[string]string{
			ProjectLabel: spec.Project,
			ServiceLabel: spec.Name,
		},
	}
	hostConfig := &container.HostConfig{
		PortBindings:  nat.PortMap{port: []nat.PortBinding{{HostIP: r.hostIP()}}},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}
	id, err := r.Client.CreateContainer(ctx, ContainerName(spec), config, hostConfig)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", ContainerName(spec), err)
	}
	return id, nil
}

func boundPort(info container.InspectResponse, containerPort int) (int, error) {
	if info.NetworkSettings != nil {
		port := nat.Port(fmt.Sprintf("%d/tcp", containerPort))
		for _, binding := range info.NetworkSettings.Ports[port] {
			if value, err := strconv.Atoi(binding.HostPort); err == nil && value > 0 {
				return value, nil
			}
		}
	}
	return 0, fmt.Errorf("no host port bound for container port %d", containerPort)
}

func (r ServiceRunner) hostIP() string {
	if r.HostIP != "" {
		return r.HostIP
	}
	return defaultHostIP
}
