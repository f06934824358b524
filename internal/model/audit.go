package model

import "time"

// AuditRecord is one append-only entry in the admin action log. Written for
// irreversible operations (force-delete of a session, movement deletion) and
// exported asynchronously through the worker queue.
type AuditRecord struct {
	ID          uint   `gorm:"primaryKey"`
	ActorID     uint   `gorm:"not null;index"`
	Action      string `gorm:"not null"`
	Observation string
	TargetID    *uint
	CreatedAt   time.Time

	Actor *User `gorm:"foreignKey:ActorID"`
}

func (AuditRecord) TableName() string { return "audit_records" }
