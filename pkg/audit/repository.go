package audit

import (
	"context"

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

func (r repository) create(ctx context.Context, audit *model.Audit) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Create(audit).Error
}

// findAll lists the most recent audits first.
func (r repository) findAll(ctx context.Context, offset, limit int) ([]model.Audit, error) {
	var audits []model.Audit
	err := r.db.
		WithContext(ctx).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&audits).Error
	return audits, err
}
