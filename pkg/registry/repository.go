package registry

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

func (r repository) createNode(ctx context.Context, node *model.Node) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(node).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("node %s already registered: %v", node.Address(), err)
	}
	return err
}

func (r repository) createProxy(ctx context.Context, proxy *model.Proxy) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(proxy).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("proxy %s already registered: %v", proxy.Address(), err)
	}
	return err
}

func (r repository) findNodeByContainerID(ctx context.Context, containerID string) (model.Node, error) {
	var node model.Node
	err := r.db.
		WithContext(ctx).
		Where("container_id = ?", containerID).
		First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Node{}, errdef.NewNotFound("node with container id %q doesn't exist", containerID)
	}
	if err != nil {
		return model.Node{}, fmt.Errorf("failed to find node: %v", err)
	}

	return node, nil
}

func (r repository) findProxyByContainerID(ctx context.Context, containerID string) (model.Proxy, error) {
	var proxy model.Proxy
	err := r.db.
		WithContext(ctx).
		Where("container_id = ?", containerID).
		First(&proxy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Proxy{}, errdef.NewNotFound("proxy with container id %q doesn't exist", containerID)
	}
	if err != nil {
		return model.Proxy{}, fmt.Errorf("failed to find proxy: %v", err)
	}

	return proxy, nil
}

func (r repository) deleteNode(ctx context.Context, containerID string) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Where("container_id = ?", containerID).Delete(&model.Node{}).Error
}

func (r repository) deleteProxy(ctx context.Context, containerID string) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Where("container_id = ?", containerID).Delete(&model.Proxy{}).Error
}

func (r repository) findNodes(ctx context.Context, offset, limit int) ([]model.Node, error) {
	var nodes []model.Node
	err := r.db.
		WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&nodes).Error
	return nodes, err
}

func (r repository) findProxies(ctx context.Context, offset, limit int) ([]model.Proxy, error) {
	var proxies []model.Proxy
	err := r.db.
		WithContext(ctx).
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&proxies).Error
	return proxies, err
}
