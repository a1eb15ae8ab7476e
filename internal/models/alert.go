package models

import "time"

// AlertStatus 报警处理状态
type AlertStatus string

const (
	AlertActive       AlertStatus = "Active"
	AlertAcknowledged AlertStatus = "Acknowledged"
	AlertResolved     AlertStatus = "Resolved"
)

// Severity 报警级别
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Alert 报警（对应 alerts 表）
// 同一个 zone 同时最多只有一条 Active 报警
type Alert struct {
	AlertID   string      `json:"alert_id" db:"alert_id" validate:"required"`
	ZoneID    string      `json:"zone_id" db:"zone_id" validate:"required"`
	Severity  Severity    `json:"severity" db:"severity" validate:"required,oneof=Low Medium High"`
	Time      time.Time   `json:"time" db:"time"`
	Status    AlertStatus `json:"status" db:"status" validate:"required,oneof=Active Acknowledged Resolved"`
	Responder *string     `json:"responder" db:"responder"`
}

// AlertUpdate 报警状态更新（PUT /alerts/{id}）
type AlertUpdate struct {
	Status    AlertStatus `json:"status" validate:"required,oneof=Active Acknowledged Resolved"`
	Responder *string     `json:"responder,omitempty"`
}

// AlertFilters 报警查询条件
type AlertFilters struct {
	Status AlertStatus // 为空表示全部
	Limit  int
}
