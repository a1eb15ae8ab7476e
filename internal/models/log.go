package models

import "time"

// SystemActor 系统自动操作时的 performed_by
const SystemActor = "System"

// LogEntry 审计日志（对应 logs 表，只追加）
type LogEntry struct {
	LogID       string    `json:"log_id" db:"log_id"`
	Action      string    `json:"action" db:"action"`
	PerformedBy string    `json:"performed_by" db:"performed_by"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}
