package containerize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/pkg/model"
	"github.com/redisctl/im-redis/pkg/orchestrator"
	"github.com/redisctl/im-redis/pkg/registry"
)

const (
	DefaultNodePort  = 6379
	DefaultProxyPort = 8889
)

var (
	ErrInvalidPort       = errors.New("invalid port")
	ErrInvalidCluster    = errors.New("no such cluster")
	ErrDeploymentFailed  = errors.New("deployment failed")
	ErrAlreadyRegistered = errors.New("exists")
	ErrNotFound          = errors.New("unit not found")
)

// portRange is the inclusive range of ports a unit kind may listen on.
type portRange struct {
	min, max int
}

var portRanges = map[model.UnitKind]portRange{
	model.NodeKind:  {6000, 7999},
	model.ProxyKind: {8000, 9999},
}

type orchestratorClient interface {
	DeployNode(ctx context.Context, request orchestrator.NodeRequest) (orchestrator.Unit, error)
	DeployProxy(ctx context.Context, request orchestrator.ProxyRequest) (orchestrator.Unit, error)
	Remove(ctx context.Context, containerIDs []string) error
	Revive(ctx context.Context, containerID string) error
	ListUnits(ctx context.Context) ([]orchestrator.Unit, error)
	ListPods(ctx context.Context) ([]string, error)
	ListPodHosts(ctx context.Context, pod string) ([]orchestrator.Host, error)
}

type unitRegistry interface {
	Create(ctx context.Context, entry registry.Entry) (registry.Entry, error)
	FindByContainerID(ctx context.Context, kind model.UnitKind, containerID string) (registry.Entry, error)
	Delete(ctx context.Context, kind model.UnitKind, containerID string) error
	FindAll(ctx context.Context, kind model.UnitKind, offset, limit int) ([]registry.Entry, error)
}

type clusterFinder interface {
	Find(ctx context.Context, id uint) (model.Cluster, error)
	FindAll(ctx context.Context) ([]model.Cluster, error)
}

type imageFinder interface {
	FindAll(ctx context.Context, kind model.ImageKind) ([]model.Image, error)
}

type auditSink interface {
	Record(ctx context.Context, audit model.Audit)
}

type remoteNotifier interface {
	SetRemotes(ctx context.Context, proxyHost string, proxyPort int, remoteHost string, remotePort int)
}

type detailStore interface {
	Details(ctx context.Context, addrs []string) (map[string]map[string]any, error)
	Forget(ctx context.Context, addr string) error
}

func NewService(
	logger *slog.Logger,
	orchestrator orchestratorClient,
	registry unitRegistry,
	clusters clusterFinder,
	images imageFinder,
	audits auditSink,
	notifier remoteNotifier,
	details detailStore,
) *Service {
	return &Service{
		logger:       logger,
		orchestrator: orchestrator,
		registry:     registry,
		clusters:     clusters,
		images:       images,
		audits:       audits,
		notifier:     notifier,
		details:      details,
	}
}

// Service deploys Redis nodes and proxies as containers and keeps the registry in step with what
// is running.
type Service struct {
	logger       *slog.Logger
	orchestrator orchestratorClient
	registry     unitRegistry
	clusters     clusterFinder
	images       imageFinder
	audits       auditSink
	notifier     remoteNotifier
	details      detailStore
}

// CreateNode deploys and registers a Redis node. The port defaults to 6379.
func (s *Service) CreateNode(ctx context.Context, request orchestrator.NodeRequest) (orchestrator.Unit, error) {
	if request.Port == 0 {
		request.Port = DefaultNodePort
	}
	if err := validatePort(model.NodeKind, request.Port); err != nil {
		return orchestrator.Unit{}, err
	}

	unit, err := s.orchestrator.DeployNode(ctx, request)
	if err != nil {
		return orchestrator.Unit{}, fmt.Errorf("%w: node on pod %q: %v", ErrDeploymentFailed, request.Pod, err)
	}
	s.logger.DebugContext(ctx, "Node deployed", "containerId", unit.ContainerID, "address", unit.Address, "port", unit.Port)

	return s.register(ctx, model.NodeKind, unit, request.Port, nil, request)
}

// CreateProxy deploys and registers a proxy of a cluster with at least one member. The port
// defaults to 8889. Once registered the proxy is pointed at the first member of the cluster.
func (s *Service) CreateProxy(ctx context.Context, request orchestrator.ProxyRequest) (orchestrator.Unit, error) {
	if request.Port == 0 {
		request.Port = DefaultProxyPort
	}
	if err := validatePort(model.ProxyKind, request.Port); err != nil {
		return orchestrator.Unit{}, err
	}

	cluster, err := s.clusters.Find(ctx, request.ClusterID)
	if err != nil {
		if errdef.IsNotFound(err) {
			return orchestrator.Unit{}, errdef.NewBadRequest("%w: %d", ErrInvalidCluster, request.ClusterID)
		}
		return orchestrator.Unit{}, err
	}
	member, ok := cluster.FirstMember()
	if !ok {
		return orchestrator.Unit{}, errdef.NewBadRequest("%w: cluster %d has no nodes", ErrInvalidCluster, cluster.ID)
	}

	unit, err := s.orchestrator.DeployProxy(ctx, request)
	if err != nil {
		return orchestrator.Unit{}, fmt.Errorf("%w: proxy on pod %q: %v", ErrDeploymentFailed, request.Pod, err)
	}
	s.logger.DebugContext(ctx, "Proxy deployed", "containerId", unit.ContainerID, "address", unit.Address, "port", unit.Port)

	unit, err = s.register(ctx, model.ProxyKind, unit, request.Port, &cluster.ID, request)
	if err != nil {
		return orchestrator.Unit{}, err
	}

	s.notifier.SetRemotes(ctx, unit.Address, unit.Port, member.Host, member.Port)
	return unit, nil
}

// register records a deployed unit. A unit which can't be registered is torn down.
func (s *Service) register(ctx context.Context, kind model.UnitKind, unit orchestrator.Unit, requestedPort int, clusterID *uint, payload any) (orchestrator.Unit, error) {
	if unit.Port == 0 {
		unit.Port = requestedPort
	}
	unit.Kind = kind

	_, err := s.registry.Create(ctx, registry.Entry{
		Kind:        kind,
		Host:        unit.Address,
		Port:        unit.Port,
		ContainerID: unit.ContainerID,
		ClusterID:   clusterID,
	})
	if err != nil {
		s.teardown(ctx, unit, err)
		if errdef.IsDuplicated(err) {
			return orchestrator.Unit{}, errdef.NewDuplicated("%w: %s %s:%d", ErrAlreadyRegistered, kind, unit.Address, unit.Port)
		}
		return orchestrator.Unit{}, err
	}

	s.audits.Record(ctx, model.Audit{
		Host:    unit.Address,
		Port:    unit.Port,
		Event:   model.AuditEventCreate,
		UserID:  userID(ctx),
		Payload: payload,
	})

	return unit, nil
}

func (s *Service) teardown(ctx context.Context, unit orchestrator.Unit, cause error) {
	s.logger.WarnContext(ctx, "Removing unit which couldn't be registered", "containerId", unit.ContainerID, "address", unit.Address, "port", unit.Port, "error", cause)
	if err := s.orchestrator.Remove(context.WithoutCancel(ctx), []string{unit.ContainerID}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to remove unregistered unit", "containerId", unit.ContainerID, "error", err)
	}
}

// Revive restarts a unit. A revived proxy is pointed at the first member of its cluster again.
func (s *Service) Revive(ctx context.Context, containerID string) error {
	if err := s.orchestrator.Revive(ctx, containerID); err != nil {
		if errdef.IsNotFound(err) {
			return errdef.NewNotFound("%w: %q: %w", ErrNotFound, containerID, err)
		}
		return fmt.Errorf("failed to revive %q: %w", containerID, err)
	}

	proxy, err := s.registry.FindByContainerID(ctx, model.ProxyKind, containerID)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil
		}
		return err
	}

	if proxy.ClusterID == nil {
		return nil
	}
	cluster, err := s.clusters.Find(ctx, *proxy.ClusterID)
	if err != nil {
		return err
	}
	member, ok := cluster.FirstMember()
	if !ok {
		s.logger.WarnContext(ctx, "Revived proxy of a cluster without nodes", "containerId", containerID, "clusterId", cluster.ID)
		return nil
	}

	s.logger.InfoContext(ctx, "Revive and set remotes of proxy", "proxyId", proxy.ID, "clusterId", cluster.ID)
	s.notifier.SetRemotes(ctx, proxy.Host, proxy.Port, member.Host, member.Port)
	return nil
}

// Remove unregisters a unit before destroying its container.
func (s *Service) Remove(ctx context.Context, kind model.UnitKind, containerID string) error {
	entry, err := s.registry.FindByContainerID(ctx, kind, containerID)
	if err != nil {
		if errdef.IsNotFound(err) {
			return errdef.NewNotFound("%w: %s %q", ErrNotFound, kind, containerID)
		}
		return err
	}

	if err := s.registry.Delete(ctx, kind, containerID); err != nil {
		return err
	}

	if err := s.orchestrator.Remove(ctx, []string{containerID}); err != nil {
		return fmt.Errorf("failed to remove %s %q: %w", kind, containerID, err)
	}

	if kind == model.NodeKind {
		addr := fmt.Sprintf("%s:%d", entry.Host, entry.Port)
		if err := s.details.Forget(ctx, addr); err != nil {
			s.logger.WarnContext(ctx, "Failed to forget node details", "node", addr, "error", err)
		}
	}

	s.audits.Record(ctx, model.Audit{
		Host:   entry.Host,
		Port:   entry.Port,
		Event:  model.AuditEventDelete,
		UserID: userID(ctx),
	})
	return nil
}

// Overview is what's needed to deploy a unit.
type Overview struct {
	Pods     []string        `json:"pods"`
	Clusters []model.Cluster `json:"clusters"`
	Images   []model.Image   `json:"images"`
}

// Overview returns an errdef bad request error if the orchestrator has no pods to deploy to.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	pods, err := s.orchestrator.ListPods(ctx)
	if err != nil {
		return Overview{}, err
	}
	if len(pods) == 0 {
		return Overview{}, errdef.NewBadRequest("no pods available")
	}

	clusters, err := s.clusters.FindAll(ctx)
	if err != nil {
		return Overview{}, err
	}

	images, err := s.images.FindAll(ctx, model.RedisImage)
	if err != nil {
		return Overview{}, err
	}

	return Overview{Pods: pods, Clusters: clusters, Images: images}, nil
}

// NodeDetails is a containerized node with the details last polled from it.
type NodeDetails struct {
	registry.Entry
	Details map[string]any `json:"details"`
}

// FindNodes lists registered nodes. Nodes which were never polled have empty details.
func (s *Service) FindNodes(ctx context.Context, offset, limit int) ([]NodeDetails, error) {
	entries, err := s.registry.FindAll(ctx, model.NodeKind, offset, limit)
	if err != nil {
		return nil, err
	}

	addrs := make([]string, len(entries))
	for i, e := range entries {
		addrs[i] = fmt.Sprintf("%s:%d", e.Host, e.Port)
	}

	details, err := s.details.Details(ctx, addrs)
	if err != nil {
		s.logger.WarnContext(ctx, "Listing nodes without details", "error", err)
		details = map[string]map[string]any{}
	}

	nodes := make([]NodeDetails, len(entries))
	for i, e := range entries {
		d, ok := details[addrs[i]]
		if !ok {
			d = map[string]any{}
		}
		nodes[i] = NodeDetails{Entry: e, Details: d}
	}
	return nodes, nil
}

func (s *Service) FindProxies(ctx context.Context, offset, limit int) ([]registry.Entry, error) {
	return s.registry.FindAll(ctx, model.ProxyKind, offset, limit)
}

// FindHosts lists the alive hosts of a pod.
func (s *Service) FindHosts(ctx context.Context, pod string) ([]orchestrator.Host, error) {
	hosts, err := s.orchestrator.ListPodHosts(ctx, pod)
	if err != nil {
		return nil, err
	}

	alive := make([]orchestrator.Host, 0, len(hosts))
	for _, h := range hosts {
		if h.Alive {
			alive = append(alive, h)
		}
	}
	return alive, nil
}

func (s *Service) FindUnits(ctx context.Context) ([]orchestrator.Unit, error) {
	return s.orchestrator.ListUnits(ctx)
}

func validatePort(kind model.UnitKind, port int) error {
	r := portRanges[kind]
	if port < r.min || port > r.max {
		return errdef.NewBadRequest("%w: %s port %d not in [%d, %d]", ErrInvalidPort, kind, port, r.min, r.max)
	}
	return nil
}

func userID(ctx context.Context) uint {
	user, ok := model.GetUserFromContext(ctx)
	if !ok {
		return 0
	}
	return user.ID
}
