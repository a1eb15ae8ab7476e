// Package seed 演示数据：3 个用户、6 个区域、每区域 5 条读数、3 条报警、3 条日志
package seed

import (
	"context"
	"fmt"
	"time"

	"crowdguard/internal/density"
	"crowdguard/internal/models"
	"crowdguard/internal/repository"

	"go.uber.org/zap"
)

// RandomSource 返回 [0, n) 内的随机整数
type RandomSource interface {
	IntN(n int) int
}

// PasswordHasher 密码哈希
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Dataset 演示数据集
type Dataset struct {
	Users    []models.User
	Zones    []models.Zone
	Readings []models.CrowdReading
	Alerts   []models.Alert
	Logs     []models.LogEntry
}

type seedUser struct {
	user     models.User
	password string
}

func strPtr(s string) *string { return &s }

var seedUsers = []seedUser{
	{models.User{UserID: "admin", Name: "Admin User", Role: models.RoleAdmin, Contact: "+91-9876543210"}, "admin123"},
	{models.User{UserID: "officer1", Name: "Security Officer", Role: models.RoleSecurityOfficer, Contact: "+91-9876543211", ZoneAssigned: strPtr("Z01")}, "officer123"},
	{models.User{UserID: "organizer", Name: "Event Organizer", Role: models.RoleEventOrganizer, Contact: "+91-9876543212"}, "org123"},
}

var seedZones = []models.Zone{
	{ZoneID: "Z01", LocationName: "Main Gate", Capacity: 300},
	{ZoneID: "Z02", LocationName: "Food Court", Capacity: 200},
	{ZoneID: "Z03", LocationName: "Stage Area", Capacity: 500},
	{ZoneID: "Z04", LocationName: "Parking Lot", Capacity: 150},
	{ZoneID: "Z05", LocationName: "Exit Gate", Capacity: 250},
	{ZoneID: "Z06", LocationName: "Prayer Hall", Capacity: 400},
}

const (
	readingsPerZone = 5
	readingStep     = 10 * time.Minute
	minSeedPeople   = 50
)

// BuildDataset 生成演示数据；读数人数在 [50, int(capacity*0.7)] 内
func BuildDataset(now time.Time, rng RandomSource, hasher PasswordHasher) (*Dataset, error) {
	ds := &Dataset{}

	for _, su := range seedUsers {
		hash, err := hasher.Hash(su.password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", su.user.UserID, err)
		}
		u := su.user
		u.PasswordHash = hash
		ds.Users = append(ds.Users, u)
	}

	ds.Zones = append(ds.Zones, seedZones...)

	for _, zone := range seedZones {
		upper := zone.Capacity * 7 / 10
		for i := 0; i < readingsPerZone; i++ {
			people := minSeedPeople + rng.IntN(upper-minSeedPeople+1)
			ds.Readings = append(ds.Readings, models.CrowdReading{
				ZoneID:       zone.ZoneID,
				Timestamp:    now.Add(-time.Duration(i) * readingStep),
				PeopleCount:  people,
				DensityLevel: density.Classify(people, zone.Capacity),
			})
		}
	}

	ds.Alerts = []models.Alert{
		{AlertID: "A001", ZoneID: "Z03", Severity: models.SeverityHigh, Time: now.Add(-15 * time.Minute), Status: models.AlertActive},
		{AlertID: "A002", ZoneID: "Z01", Severity: models.SeverityMedium, Time: now.Add(-30 * time.Minute), Status: models.AlertAcknowledged, Responder: strPtr("Security Officer")},
		{AlertID: "A003", ZoneID: "Z02", Severity: models.SeverityLow, Time: now.Add(-time.Hour), Status: models.AlertResolved, Responder: strPtr("Security Officer")},
	}

	ds.Logs = []models.LogEntry{
		{LogID: "LOG001", Action: "System initialized", PerformedBy: models.SystemActor, Timestamp: now.Add(-2 * time.Hour)},
		{LogID: "LOG002", Action: "Alert A001 created for zone Z03", PerformedBy: models.SystemActor, Timestamp: now.Add(-15 * time.Minute)},
		{LogID: "LOG003", Action: "Alert A002 acknowledged by Security Officer", PerformedBy: "Security Officer", Timestamp: now.Add(-25 * time.Minute)},
	}

	return ds, nil
}

// Apply 写入数据集；目标存储应当为空
func Apply(ctx context.Context, repos *repository.Repositories, ds *Dataset, logger *zap.Logger) error {
	for i := range ds.Users {
		if err := repos.Users.CreateUser(ctx, &ds.Users[i]); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", ds.Users[i].UserID, err)
		}
	}
	for i := range ds.Zones {
		if err := repos.Zones.CreateZone(ctx, &ds.Zones[i]); err != nil {
			return fmt.Errorf("failed to seed zone %s: %w", ds.Zones[i].ZoneID, err)
		}
	}
	for i := range ds.Readings {
		if err := repos.CrowdData.InsertReading(ctx, &ds.Readings[i]); err != nil {
			return fmt.Errorf("failed to seed reading for %s: %w", ds.Readings[i].ZoneID, err)
		}
	}
	for i := range ds.Alerts {
		if err := repos.Alerts.CreateAlert(ctx, &ds.Alerts[i]); err != nil {
			return fmt.Errorf("failed to seed alert %s: %w", ds.Alerts[i].AlertID, err)
		}
	}
	for i := range ds.Logs {
		if err := repos.Logs.AppendLog(ctx, &ds.Logs[i]); err != nil {
			return fmt.Errorf("failed to seed log %s: %w", ds.Logs[i].LogID, err)
		}
	}

	logger.Info("Database seeded",
		zap.Int("users", len(ds.Users)),
		zap.Int("zones", len(ds.Zones)),
		zap.Int("readings", len(ds.Readings)),
		zap.Int("alerts", len(ds.Alerts)),
		zap.Int("logs", len(ds.Logs)),
	)
	return nil
}

// SeedIfEmpty 没有任何区域时写入演示数据，返回是否写入
func SeedIfEmpty(ctx context.Context, repos *repository.Repositories, now time.Time, rng RandomSource, hasher PasswordHasher, logger *zap.Logger) (bool, error) {
	zones, err := repos.Zones.ListZones(ctx, 1)
	if err != nil {
		return false, fmt.Errorf("failed to check existing zones: %w", err)
	}
	if len(zones) > 0 {
		logger.Info("Store already has zones, skipping seed")
		return false, nil
	}

	ds, err := BuildDataset(now, rng, hasher)
	if err != nil {
		return false, err
	}
	if err := Apply(ctx, repos, ds, logger); err != nil {
		return false, err
	}
	return true, nil
}
