// Package image keeps the container images Redis nodes and proxies can be deployed with. Images are
// seeded from a YAML file on startup.
package image

import "github.com/redisctl/im-redis/pkg/model"

// swagger:response Images
type _ struct {
	// in: body
	Body []model.Image
}

// swagger:parameters findAllImages
type _ struct {
	// redis or proxy
	// in: query
	Kind string `json:"kind"`
}
