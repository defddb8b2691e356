// Package containerize deploys Redis nodes and cluster proxies as containers and registers them.
//
// A unit is only kept running if it could be registered. Units which can't be registered, because
// their address or container id is taken, are removed again. Every registered and removed unit is
// audited.
//
// Proxies are told which node to forward to using SETREMOTES. The command is sent shortly after
// the proxy is deployed or revived, its outcome is only logged.
package containerize

import (
	"github.com/redisctl/im-redis/pkg/orchestrator"
	"github.com/redisctl/im-redis/pkg/registry"
)

// swagger:response Unit
type _ struct {
	// in: body
	Body orchestrator.Unit
}

// swagger:response Units
type _ struct {
	// in: body
	Body []orchestrator.Unit
}

// swagger:response Hosts
type _ struct {
	// in: body
	Body []orchestrator.Host
}

// swagger:response Overview
type _ struct {
	// in: body
	Body Overview
}

// swagger:response Nodes
type _ struct {
	// in: body
	Body []NodeDetails
}

// swagger:response Proxies
type _ struct {
	// in: body
	Body []registry.Entry
}

// swagger:parameters containerizeCreateNode
type _ struct {
	// in: body
	// required: true
	Body CreateNodeRequest
}

// swagger:parameters containerizeCreateProxy
type _ struct {
	// in: body
	// required: true
	Body CreateProxyRequest
}

// swagger:parameters containerizeRevive
type _ struct {
	// in: body
	// required: true
	Body ReviveRequest
}

// swagger:parameters containerizeRemove
type _ struct {
	// in: body
	// required: true
	Body RemoveRequest
}

// swagger:parameters containerizeFindNodes containerizeFindProxies
type _ struct {
	// in: query
	Page int `json:"page"`
}

// swagger:parameters containerizeFindHosts
type _ struct {
	// in: path
	// required: true
	Pod string `json:"pod"`
}
