package image

import (
	"context"

	"github.com/redisctl/im-redis/pkg/model"
)

func NewService(imageRepository *repository) Service {
	return Service{imageRepository}
}

type Service struct {
	imageRepository *repository
}

func (s Service) FindAll(ctx context.Context, kind model.ImageKind) ([]model.Image, error) {
	return s.imageRepository.findAll(ctx, kind)
}

func (s Service) Save(ctx context.Context, image model.Image) (model.Image, error) {
	err := s.imageRepository.upsert(ctx, &image)
	return image, err
}
