package cluster

import (
	"context"

	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/pkg/model"
)

func NewService(clusterRepository *repository) Service {
	return Service{clusterRepository}
}

type Service struct {
	clusterRepository *repository
}

// Find returns the cluster with its members ordered by id.
func (s Service) Find(ctx context.Context, id uint) (model.Cluster, error) {
	return s.clusterRepository.find(ctx, id)
}

func (s Service) FindAll(ctx context.Context) ([]model.Cluster, error) {
	return s.clusterRepository.findAll(ctx)
}

func (s Service) Create(ctx context.Context, description string) (model.Cluster, error) {
	cluster := model.Cluster{
		Description: description,
	}

	err := s.clusterRepository.save(ctx, &cluster)
	if err != nil {
		return model.Cluster{}, err
	}

	return cluster, nil
}

// Delete removes a cluster and its proxies. Clusters with member nodes can't be deleted.
func (s Service) Delete(ctx context.Context, id uint) error {
	cluster, err := s.clusterRepository.find(ctx, id)
	if err != nil {
		return err
	}

	if len(cluster.Nodes) > 0 {
		return errdef.NewConflict("cluster %d still has %d node(s)", id, len(cluster.Nodes))
	}

	return s.clusterRepository.delete(ctx, cluster)
}

// AddNode makes the node a member of the cluster.
func (s Service) AddNode(ctx context.Context, clusterID, nodeID uint) (model.Cluster, error) {
	cluster, err := s.clusterRepository.find(ctx, clusterID)
	if err != nil {
		return model.Cluster{}, err
	}

	node, err := s.clusterRepository.findNode(ctx, nodeID)
	if err != nil {
		return model.Cluster{}, err
	}

	if node.ClusterID != nil && *node.ClusterID != clusterID {
		return model.Cluster{}, errdef.NewConflict("node %d is a member of cluster %d", nodeID, *node.ClusterID)
	}

	err = s.clusterRepository.setNodeCluster(ctx, node, &cluster.ID)
	if err != nil {
		return model.Cluster{}, err
	}

	return s.clusterRepository.find(ctx, clusterID)
}

func (s Service) RemoveNode(ctx context.Context, clusterID, nodeID uint) (model.Cluster, error) {
	node, err := s.clusterRepository.findNode(ctx, nodeID)
	if err != nil {
		return model.Cluster{}, err
	}

	if node.ClusterID == nil || *node.ClusterID != clusterID {
		return model.Cluster{}, errdef.NewNotFound("node %d is not a member of cluster %d", nodeID, clusterID)
	}

	err = s.clusterRepository.setNodeCluster(ctx, node, nil)
	if err != nil {
		return model.Cluster{}, err
	}

	return s.clusterRepository.find(ctx, clusterID)
}
