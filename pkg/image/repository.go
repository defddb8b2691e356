package image

import (
	"context"

	"github.com/redisctl/im-redis/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

// findAll returns every image ordered by name. An empty kind matches every kind.
func (r repository) findAll(ctx context.Context, kind model.ImageKind) ([]model.Image, error) {
	var images []model.Image
	query := r.db.WithContext(ctx).Order("name")
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	err := query.Find(&images).Error
	return images, err
}

// upsert creates the image or updates the kind and description of the image with the same name.
func (r repository) upsert(ctx context.Context, image *model.Image) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "description"}),
		}).
		Create(image).Error
}
