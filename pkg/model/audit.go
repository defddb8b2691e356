package model

import "time"

type AuditEvent string

const (
	AuditEventCreate AuditEvent = "create"
	AuditEventDelete AuditEvent = "delete"
)

// Audit is an append-only record of a containerized unit being created or deleted.
// swagger:model
type Audit struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"createdAt" gorm:"index"`
	Host      string     `json:"host"`
	Port      int        `json:"port"`
	Event     AuditEvent `json:"event"`
	UserID    uint       `json:"userId"`
	Payload   any        `json:"payload" gorm:"serializer:json;type:jsonb"`
}
