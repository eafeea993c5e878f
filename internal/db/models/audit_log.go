// Package models - audit_log.go defines the AuditLog model for recording
// mutating requests, capturing actor, action, affected resource, client IP,
// and arbitrary metadata.
package models

import "time"

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID           string         `json:"id"`
	UserID       *string        `json:"user_id"` // nil for unauthenticated or system actions
	Action       string         `json:"action"`  // "restaurant.delete", "owner.transfer", ...
	ResourceType *string        `json:"resource_type"`
	ResourceID   *string        `json:"resource_id"`
	Metadata     map[string]any `json:"metadata"`
	IPAddress    *string        `json:"ip_address"`
	CreatedAt    time.Time      `json:"created_at"`
}
