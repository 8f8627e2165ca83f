// Package store persists the audit trail and the small key/value state the dashboard keeps
// per operator: the signed-in user and the theme preference.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/agenthands/meddesert/internal/core/model"
)

var ErrNotFound = errors.New("not found")

// AuditStore is the append-only activity log shown in the audit view.
type AuditStore interface {
	// List returns entries oldest first. status "all" or "" returns everything.
	List(ctx context.Context, status string) ([]model.AuditLog, error)
	Append(ctx context.Context, entry model.AuditLog) error
	Close() error
}

// KVStore holds string values grouped by namespace. A zero ttl keeps the value forever.
type KVStore interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

const AuditTimeLayout = "03:04 PM"

// NewAuditEntry stamps an entry with a fresh id and the current wall-clock time.
func NewAuditEntry(id, event, user string, status model.AuditStatus, at time.Time) model.AuditLog {
	return model.AuditLog{
		ID:        id,
		Timestamp: at.Format(AuditTimeLayout),
		Event:     event,
		User:      user,
		Status:    status,
	}
}
