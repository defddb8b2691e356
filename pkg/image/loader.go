package image

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redisctl/im-redis/pkg/model"
	"gopkg.in/yaml.v3"
)

type imagesYaml struct {
	Images []imageYaml `yaml:"images"`
}

type imageYaml struct {
	Kind        model.ImageKind `yaml:"kind"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
}

// LoadImages saves the images listed in the YAML file at path. Images which are already known are
// updated.
func LoadImages(ctx context.Context, logger *slog.Logger, path string, imageService Service) error {
	images, err := parseImages(path)
	if err != nil {
		return err
	}

	for _, image := range images {
		saved, err := imageService.Save(ctx, image)
		if err != nil {
			return fmt.Errorf("error saving image %q: %v", image.Name, err)
		}
		logger.InfoContext(ctx, "Image loaded", "name", saved.Name, "kind", saved.Kind)
	}

	return nil
}

func parseImages(path string) ([]model.Image, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading images %q: %v", path, err)
	}

	var parsed imagesYaml
	err = yaml.Unmarshal(file, &parsed)
	if err != nil {
		return nil, fmt.Errorf("error parsing images %q: %v", path, err)
	}

	images := make([]model.Image, 0, len(parsed.Images))
	for i, image := range parsed.Images {
		if image.Kind != model.RedisImage && image.Kind != model.ProxyImage {
			return nil, fmt.Errorf("image %d of %q has invalid kind %q", i, path, image.Kind)
		}
		if image.Name == "" {
			return nil, fmt.Errorf("image %d of %q has no name", i, path)
		}
		images = append(images, model.Image{
			Kind:        image.Kind,
			Name:        image.Name,
			Description: image.Description,
		})
	}
	return images, nil
}
