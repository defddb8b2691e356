package image

import (
	"testing"

	"github.com/redisctl/im-redis/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImages(t *testing.T) {
	images, err := parseImages("testdata/images.yaml")
	require.NoError(t, err)

	assert.Equal(t, []model.Image{
		{Kind: model.RedisImage, Name: "redis:7.2", Description: "Redis 7.2"},
		{Kind: model.RedisImage, Name: "redis:6.2"},
		{Kind: model.ProxyImage, Name: "cerberus:latest", Description: "Cluster proxy"},
	}, images)
}

func TestParseImagesInvalidKind(t *testing.T) {
	_, err := parseImages("testdata/invalid.yaml")

	assert.ErrorContains(t, err, `invalid kind "memcached"`)
}

func TestParseImagesMissingFile(t *testing.T) {
	_, err := parseImages("testdata/missing.yaml")

	assert.ErrorContains(t, err, "error reading images")
}
