// Package audit records the creation and deletion of containerized units.
//
// Audits are stored in PostgreSQL, streamed to connected clients and, if RabbitMQ is configured,
// published to a topic exchange with routing key audit.<event>.
package audit

import "github.com/redisctl/im-redis/pkg/model"

// swagger:response Audits
type _ struct {
	// in: body
	Body []model.Audit
}

// swagger:response Stream
type _ struct {
	// in: body
	Body string
}

// swagger:parameters findAllAudits
type _ struct {
	// Zero based page
	// in: query
	Page int `json:"page"`
}
