package cluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/pkg/model"
	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func orderedNodes(db *gorm.DB) *gorm.DB {
	return db.Order("nodes.id")
}

func (r repository) find(ctx context.Context, id uint) (model.Cluster, error) {
	var cluster model.Cluster
	err := r.db.
		WithContext(ctx).
		Preload("Nodes", orderedNodes).
		Preload("Proxies").
		Where("id = ?", id).
		First(&cluster).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cluster{}, errdef.NewNotFound("cluster with id %d doesn't exist", id)
	}

	if err != nil {
		return model.Cluster{}, fmt.Errorf("failed to find cluster: %v", err)
	}

	return cluster, nil
}

func (r repository) findAll(ctx context.Context) ([]model.Cluster, error) {
	var clusters []model.Cluster
	err := r.db.
		WithContext(ctx).
		Preload("Nodes", orderedNodes).
		Order("id").
		Find(&clusters).Error
	return clusters, err
}

func (r repository) save(ctx context.Context, cluster *model.Cluster) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Save(cluster).Error
}

func (r repository) delete(ctx context.Context, cluster model.Cluster) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Delete(&cluster).Error
}

func (r repository) findNode(ctx context.Context, id uint) (model.Node, error) {
	var node model.Node
	err := r.db.WithContext(ctx).First(&node, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Node{}, errdef.NewNotFound("node with id %d doesn't exist", id)
	}
	if err != nil {
		return model.Node{}, fmt.Errorf("failed to find node: %v", err)
	}
	return node, nil
}

func (r repository) setNodeCluster(ctx context.Context, node model.Node, clusterID *uint) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Model(&node).Update("cluster_id", clusterID).Error
}
