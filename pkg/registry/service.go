package registry

import (
	"context"
	"fmt"

	"github.com/redisctl/im-redis/pkg/model"
)

// Entry is a registered unit of either kind.
type Entry struct {
	ID          uint           `json:"id"`
	Kind        model.UnitKind `json:"kind"`
	Host        string         `json:"host"`
	Port        int            `json:"port"`
	ContainerID string         `json:"containerId"`
	// ClusterID is nil for nodes which are not a member of a cluster.
	ClusterID *uint `json:"clusterId"`
}

func fromNode(n model.Node) Entry {
	return Entry{
		ID:          n.ID,
		Kind:        model.NodeKind,
		Host:        n.Host,
		Port:        n.Port,
		ContainerID: n.ContainerID,
		ClusterID:   n.ClusterID,
	}
}

func fromProxy(p model.Proxy) Entry {
	clusterID := p.ClusterID
	return Entry{
		ID:          p.ID,
		Kind:        model.ProxyKind,
		Host:        p.Host,
		Port:        p.Port,
		ContainerID: p.ContainerID,
		ClusterID:   &clusterID,
	}
}

func NewService(repository *repository) Service {
	return Service{repository}
}

// Service maps containerized units to their address. Host and port as well as the container id
// are unique per kind.
type Service struct {
	repository *repository
}

// Create registers a unit. An errdef duplicated error is returned if the address or container id
// is already registered. A proxy entry requires a ClusterID.
func (s Service) Create(ctx context.Context, entry Entry) (Entry, error) {
	switch entry.Kind {
	case model.NodeKind:
		node := model.Node{
			Host:        entry.Host,
			Port:        entry.Port,
			ContainerID: entry.ContainerID,
			ClusterID:   entry.ClusterID,
		}
		if err := s.repository.createNode(ctx, &node); err != nil {
			return Entry{}, err
		}
		return fromNode(node), nil
	case model.ProxyKind:
		if entry.ClusterID == nil {
			return Entry{}, fmt.Errorf("proxy %s:%d has no cluster", entry.Host, entry.Port)
		}
		proxy := model.Proxy{
			Host:        entry.Host,
			Port:        entry.Port,
			ContainerID: entry.ContainerID,
			ClusterID:   *entry.ClusterID,
		}
		if err := s.repository.createProxy(ctx, &proxy); err != nil {
			return Entry{}, err
		}
		return fromProxy(proxy), nil
	default:
		return Entry{}, fmt.Errorf("unknown unit kind %q", entry.Kind)
	}
}

// FindByContainerID returns an errdef not found error if no unit of given kind has the container id.
func (s Service) FindByContainerID(ctx context.Context, kind model.UnitKind, containerID string) (Entry, error) {
	switch kind {
	case model.NodeKind:
		node, err := s.repository.findNodeByContainerID(ctx, containerID)
		if err != nil {
			return Entry{}, err
		}
		return fromNode(node), nil
	case model.ProxyKind:
		proxy, err := s.repository.findProxyByContainerID(ctx, containerID)
		if err != nil {
			return Entry{}, err
		}
		return fromProxy(proxy), nil
	default:
		return Entry{}, fmt.Errorf("unknown unit kind %q", kind)
	}
}

func (s Service) Delete(ctx context.Context, kind model.UnitKind, containerID string) error {
	switch kind {
	case model.NodeKind:
		return s.repository.deleteNode(ctx, containerID)
	case model.ProxyKind:
		return s.repository.deleteProxy(ctx, containerID)
	default:
		return fmt.Errorf("unknown unit kind %q", kind)
	}
}

// FindAll lists units of given kind ordered by registration.
func (s Service) FindAll(ctx context.Context, kind model.UnitKind, offset, limit int) ([]Entry, error) {
	switch kind {
	case model.NodeKind:
		nodes, err := s.repository.findNodes(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry, len(nodes))
		for i, n := range nodes {
			entries[i] = fromNode(n)
		}
		return entries, nil
	case model.ProxyKind:
		proxies, err := s.repository.findProxies(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry, len(proxies))
		for i, p := range proxies {
			entries[i] = fromProxy(p)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("unknown unit kind %q", kind)
	}
}

// FindAllNodes lists every registered node.
func (s Service) FindAllNodes(ctx context.Context) ([]model.Node, error) {
	return s.repository.findNodes(ctx, 0, -1)
}
