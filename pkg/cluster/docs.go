// Package cluster manages Redis clusters and their member nodes.
//
// The first member of a cluster, the node with the lowest id, is the node proxies of the cluster
// are pointed at.
package cluster

import "github.com/redisctl/im-redis/pkg/model"

// swagger:response Cluster
type _ struct {
	// in: body
	Body model.Cluster
}

// swagger:response Clusters
type _ struct {
	// in: body
	Body []model.Cluster
}

// swagger:parameters clusterCreate
type _ struct {
	// in: body
	// required: true
	Body CreateClusterRequest
}

// swagger:parameters clusterAddNode
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`

	// in: body
	// required: true
	Body AddNodeRequest
}

// swagger:parameters clusterRemoveNode
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`

	// in: path
	// required: true
	NodeID uint `json:"nodeId"`
}

// swagger:parameters findClusterById clusterDelete
type _ struct {
	// in: path
	// required: true
	ID uint `json:"id"`
}
