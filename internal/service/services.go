package service

import (
	"crowdguard/internal/repository"

	"go.uber.org/zap"
)

// Services HTTP 层使用的全部服务
type Services struct {
	Users     *UserService
	Zones     *ZoneService
	CrowdData *CrowdDataService
	Alerts    *AlertService
	Logs      *LogService
}

// NewServices 基于同一组仓库创建全部服务；cache 可以为 nil
func NewServices(repos *repository.Repositories, hasher PasswordHasher, cache LatestReadings, logger *zap.Logger) *Services {
	audit := NewAuditor(repos.Logs, logger)
	var evictor LatestEvictor
	if cache != nil {
		evictor = cache
	}
	return &Services{
		Users:     NewUserService(repos.Users, hasher, audit, logger),
		Zones:     NewZoneService(repos.Zones, evictor, audit, logger),
		CrowdData: NewCrowdDataService(repos.CrowdData, repos.Zones, cache, logger),
		Alerts:    NewAlertService(repos.Alerts, audit),
		Logs:      NewLogService(repos.Logs),
	}
}
