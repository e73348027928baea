// Package queue moves audit events between the CRUD services and the
// notification worker over RabbitMQ.
package queue

import "time"

// Audit actions.
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionSoftDelete = "soft delete"
)

// FieldChange holds the value of one field before and after a mutation.  Old
// is null for created records.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// AuditEvent is published after every product mutation.  It carries enough
// information for the notification worker to describe the change without
// querying the products database.
type AuditEvent struct {
	User      string                 `json:"user"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Model     string                 `json:"model"`
	RecordID  string                 `json:"record_id"`
	Changes   map[string]FieldChange `json:"changes"`
}
