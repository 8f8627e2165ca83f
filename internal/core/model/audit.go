package model

type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditWarning AuditStatus = "warning"
	AuditInfo    AuditStatus = "info"
)

type AuditLog struct {
	ID        string      `json:"id" yaml:"id"`
	Timestamp string      `json:"timestamp" yaml:"timestamp"`
	Event     string      `json:"event" yaml:"event"`
	User      string      `json:"user" yaml:"user"`
	Status    AuditStatus `json:"status" yaml:"status"`
}
