package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crowdguard/internal/models"
)

// MemoryStore: 用于 DB 未就绪时的联调和单元测试
// - 同时实现 Zones/CrowdData/Alerts/Users/Logs 五个接口
// - 约束与 Postgres 版本一致（主键唯一、每区域最多一条 Active 报警）
// - 所有操作在同一把锁下完成，CreateIfNoActive 因此是原子的
type MemoryStore struct {
	mu sync.RWMutex

	zones    map[string]models.Zone
	readings []models.CrowdReading
	alerts   map[string]models.Alert
	users    map[string]models.User
	logs     []models.LogEntry
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		zones:  map[string]models.Zone{},
		alerts: map[string]models.Alert{},
		users:  map[string]models.User{},
	}
}

// NewMemoryRepositories 使用同一个 MemoryStore 填充全部仓库
func NewMemoryRepositories(s *MemoryStore) *Repositories {
	return &Repositories{Zones: s, CrowdData: s, Alerts: s, Users: s, Logs: s}
}

// ---- zones ----

func (s *MemoryStore) ListZones(_ context.Context, limit int) ([]models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zones := make([]models.Zone, 0, len(s.zones))
	for _, z := range s.zones {
		zones = append(zones, z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ZoneID < zones[j].ZoneID })
	if limit > 0 && len(zones) > limit {
		zones = zones[:limit]
	}
	return zones, nil
}

func (s *MemoryStore) GetZone(_ context.Context, zoneID string) (*models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return nil, fmt.Errorf("zone %s: %w", zoneID, ErrNotFound)
	}
	return &z, nil
}

func (s *MemoryStore) CreateZone(_ context.Context, zone *models.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.zones[zone.ZoneID]; ok {
		return fmt.Errorf("zone %s: %w", zone.ZoneID, ErrDuplicate)
	}
	s.zones[zone.ZoneID] = *zone
	return nil
}

func (s *MemoryStore) UpdateZone(_ context.Context, zone *models.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.zones[zone.ZoneID]; !ok {
		return fmt.Errorf("zone %s: %w", zone.ZoneID, ErrNotFound)
	}
	s.zones[zone.ZoneID] = *zone
	return nil
}

func (s *MemoryStore) DeleteZone(_ context.Context, zoneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.zones[zoneID]; !ok {
		return fmt.Errorf("zone %s: %w", zoneID, ErrNotFound)
	}
	delete(s.zones, zoneID)
	return nil
}

// ---- crowd data ----

func (s *MemoryStore) InsertReading(_ context.Context, reading *models.CrowdReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, *reading)
	return nil
}

func (s *MemoryStore) ListReadings(_ context.Context, filters models.CrowdDataFilters) ([]models.CrowdReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CrowdReading, 0)
	// 倒序遍历：时间戳相同时后写入的排在前面
	for i := len(s.readings) - 1; i >= 0; i-- {
		r := s.readings[i]
		if filters.ZoneID != "" && r.ZoneID != filters.ZoneID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (s *MemoryStore) LatestPerZone(_ context.Context) ([]models.CrowdReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := map[string]models.CrowdReading{}
	for _, r := range s.readings {
		cur, ok := latest[r.ZoneID]
		if !ok || !r.Timestamp.Before(cur.Timestamp) {
			latest[r.ZoneID] = r
		}
	}
	out := make([]models.CrowdReading, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out, nil
}

// ---- alerts ----

func (s *MemoryStore) CreateAlert(_ context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.alerts[alert.AlertID]; ok {
		return fmt.Errorf("alert %s: %w", alert.AlertID, ErrDuplicate)
	}
	if alert.Status == models.AlertActive && s.hasActiveLocked(alert.ZoneID, "") {
		return fmt.Errorf("active alert for zone %s: %w", alert.ZoneID, ErrDuplicate)
	}
	s.alerts[alert.AlertID] = *alert
	return nil
}

func (s *MemoryStore) CreateIfNoActive(_ context.Context, alert *models.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasActiveLocked(alert.ZoneID, "") {
		return false, nil
	}
	if _, ok := s.alerts[alert.AlertID]; ok {
		return false, fmt.Errorf("alert %s: %w", alert.AlertID, ErrDuplicate)
	}
	s.alerts[alert.AlertID] = *alert
	return true, nil
}

func (s *MemoryStore) GetAlert(_ context.Context, alertID string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.alerts[alertID]
	if !ok {
		return nil, fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
	}
	return &a, nil
}

func (s *MemoryStore) ListAlerts(_ context.Context, filters models.AlertFilters) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Alert, 0)
	for _, a := range s.alerts {
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time.Equal(out[j].Time) {
			return out[i].AlertID < out[j].AlertID
		}
		return out[i].Time.After(out[j].Time)
	})
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (s *MemoryStore) UpdateAlertStatus(_ context.Context, alertID string, status models.AlertStatus, responder *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[alertID]
	if !ok {
		return fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
	}
	if status == models.AlertActive && s.hasActiveLocked(a.ZoneID, alertID) {
		return fmt.Errorf("active alert for zone %s: %w", a.ZoneID, ErrDuplicate)
	}
	a.Status = status
	if responder != nil {
		v := *responder
		a.Responder = &v
	}
	s.alerts[alertID] = a
	return nil
}

// hasActiveLocked 调用方必须持有锁；exceptID 用于排除自身
func (s *MemoryStore) hasActiveLocked(zoneID, exceptID string) bool {
	for id, a := range s.alerts {
		if id != exceptID && a.ZoneID == zoneID && a.Status == models.AlertActive {
			return true
		}
	}
	return false
}

// ---- users ----

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return &u, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.UserID]; ok {
		return fmt.Errorf("user %s: %w", user.UserID, ErrDuplicate)
	}
	s.users[user.UserID] = *user
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.UserID]; !ok {
		return fmt.Errorf("user %s: %w", user.UserID, ErrNotFound)
	}
	s.users[user.UserID] = *user
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	delete(s.users, userID)
	return nil
}

// ---- logs ----

func (s *MemoryStore) AppendLog(_ context.Context, entry *models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, *entry)
	return nil
}

func (s *MemoryStore) ListLogs(_ context.Context, limit int) ([]models.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LogEntry, 0, len(s.logs))
	for i := len(s.logs) - 1; i >= 0; i-- {
		out = append(out, s.logs[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
