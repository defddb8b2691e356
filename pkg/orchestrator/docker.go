package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/pkg/config"
	"github.com/redisctl/im-redis/pkg/model"
)

// dockerAPI is the part of the Docker client the backend uses.
type dockerAPI interface {
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	Info(ctx context.Context) (system.Info, error)
}

// NewDocker creates a Docker backend configured from the environment (DOCKER_HOST and friends).
func NewDocker(logger *slog.Logger, c config.Orchestrator) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return newDocker(logger, c, cli), nil
}

func newDocker(logger *slog.Logger, c config.Orchestrator, cli dockerAPI) *Docker {
	return &Docker{
		logger:     logger,
		cli:        cli,
		pod:        c.DockerPod,
		address:    c.DockerAddress,
		redisImage: c.RedisImage,
		proxyImage: c.ProxyImage,
	}
}

// Docker runs every unit as a container on a single daemon. The daemon is the only host of the
// only pod.
type Docker struct {
	logger     *slog.Logger
	cli        dockerAPI
	pod        string
	address    string
	redisImage string
	proxyImage string
}

func (d *Docker) DeployNode(ctx context.Context, request NodeRequest) (Unit, error) {
	ref := request.Image
	if ref == "" {
		ref = d.redisImage
	}

	var resources container.Resources
	if request.MicroPlan {
		resources.NanoCPUs = cpuSliceMillis * 1_000_000
		resources.Memory = 64 << 20
	}

	return d.deploy(ctx, model.NodeKind, request.Pod, request.NetMode, request.Port, ref, nodeCommand(request), resources)
}

func (d *Docker) DeployProxy(ctx context.Context, request ProxyRequest) (Unit, error) {
	var resources container.Resources
	if request.MicroPlanCPUSlice != nil {
		resources.NanoCPUs = int64(*request.MicroPlanCPUSlice) * cpuSliceMillis * 1_000_000
	}

	return d.deploy(ctx, model.ProxyKind, request.Pod, request.NetMode, request.Port, d.proxyImage, proxyCommand(request), resources)
}

func (d *Docker) deploy(ctx context.Context, kind model.UnitKind, pod, netMode string, port int, ref string, cmd []string, resources container.Resources) (Unit, error) {
	if pod != d.pod {
		return Unit{}, fmt.Errorf("unknown pod %q", pod)
	}

	if err := d.pull(ctx, ref); err != nil {
		return Unit{}, err
	}

	containerPort, err := nat.NewPort("tcp", strconv.Itoa(port))
	if err != nil {
		return Unit{}, fmt.Errorf("invalid port %d: %v", port, err)
	}

	name := unitName(kind, pod, port)
	containerConfig := &container.Config{
		Image: ref,
		Cmd:   cmd,
		Labels: map[string]string{
			LabelName:      "redis",
			LabelInstance:  name,
			LabelManagedBy: managedBy,
			LabelKind:      string(kind),
			LabelPort:      strconv.Itoa(port),
		},
		ExposedPorts: nat.PortSet{containerPort: struct{}{}},
	}

	hostConfig := &container.HostConfig{
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
		Resources:     resources,
	}
	if netMode == HostNetwork {
		hostConfig.NetworkMode = container.NetworkMode(HostNetwork)
	} else {
		hostConfig.PortBindings = nat.PortMap{
			containerPort: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(port)}},
		}
	}

	created, err := d.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name)
	if err != nil {
		return Unit{}, fmt.Errorf("failed to create container %q: %w", name, err)
	}

	if err := d.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		removeErr := d.cli.ContainerRemove(context.WithoutCancel(ctx), created.ID, container.RemoveOptions{Force: true})
		return Unit{}, errors.Join(fmt.Errorf("failed to start container %q: %w", name, err), removeErr)
	}

	d.logger.InfoContext(ctx, "Deployed unit", "name", name, "id", created.ID, "kind", kind, "address", d.address, "port", port)

	return Unit{
		ContainerID: created.ID,
		Kind:        kind,
		Address:     d.address,
		Port:        port,
		Metadata: map[string]string{
			"pod":   pod,
			"name":  name,
			"image": ref,
		},
	}, nil
}

func (d *Docker) pull(ctx context.Context, ref string) error {
	reader, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %q: %w", ref, err)
	}
	defer reader.Close()

	// the pull only completes once its progress is consumed
	_, err = io.Copy(io.Discard, reader)
	return err
}

// Remove force removes the given containers. Containers which don't exist are ignored.
func (d *Docker) Remove(ctx context.Context, containerIDs []string) error {
	var errs []error
	for _, id := range containerIDs {
		err := d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
		if err != nil && !cerrdefs.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("failed to remove container %q: %w", id, err))
			continue
		}
		d.logger.InfoContext(ctx, "Removed unit", "id", id)
	}
	return errors.Join(errs...)
}

func (d *Docker) Revive(ctx context.Context, containerID string) error {
	if err := d.cli.ContainerRestart(ctx, containerID, container.StopOptions{}); err != nil {
		if cerrdefs.IsNotFound(err) {
			return errdef.NewNotFound("container %q not found", containerID)
		}
		return fmt.Errorf("failed to restart container %q: %w", containerID, err)
	}
	d.logger.InfoContext(ctx, "Revived unit", "id", containerID)
	return nil
}

func (d *Docker) ListPods(ctx context.Context) ([]string, error) {
	return []string{d.pod}, nil
}

// ListPodHosts returns the Docker daemon as the single host of the pod. It's alive if the daemon
// answers.
func (d *Docker) ListPodHosts(ctx context.Context, pod string) ([]Host, error) {
	if pod != d.pod {
		return []Host{}, nil
	}

	info, err := d.cli.Info(ctx)
	if err != nil {
		d.logger.WarnContext(ctx, "Docker daemon unreachable", "error", err)
		return []Host{{Name: d.pod, Addr: d.address, Alive: false}}, nil
	}

	return []Host{{Name: info.Name, Addr: d.address, Alive: true}}, nil
}

func (d *Docker) ListUnits(ctx context.Context) ([]Unit, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+managedBy)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	units := make([]Unit, 0, len(containers))
	for _, c := range containers {
		port, _ := strconv.Atoi(c.Labels[LabelPort])
		units = append(units, Unit{
			ContainerID: c.ID,
			Kind:        model.UnitKind(c.Labels[LabelKind]),
			Address:     d.address,
			Port:        port,
			Metadata: map[string]string{
				"pod":    d.pod,
				"name":   c.Labels[LabelInstance],
				"image":  c.Image,
				"state":  string(c.State),
				"status": c.Status,
			},
		})
	}
	return units, nil
}
