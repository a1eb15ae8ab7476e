package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crowdguard/internal/auth"
	"crowdguard/internal/models"
	"crowdguard/internal/repository"
	"crowdguard/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testHasher = auth.NewHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

func newTestServices(t *testing.T) (*Services, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewServices(repository.NewMemoryRepositories(store), testHasher, nil, zap.NewNop()), store
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func assertKind(t *testing.T, err error, kind error, message string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
	var svcErr *Error
	if assert.True(t, errors.As(err, &svcErr)) && message != "" {
		assert.Equal(t, message, svcErr.Message)
	}
}

func TestUserService_CreateAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t)

	_, err := svc.Users.CreateUser(ctx, models.NewUserRequest{
		UserID: "U001", Name: "Admin User", Role: models.RoleAdmin, Contact: "admin@example.com", Password: "admin123",
	})
	require.NoError(t, err)

	stored, err := store.GetUser(ctx, "U001")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", stored.PasswordHash)

	_, err = svc.Users.CreateUser(ctx, models.NewUserRequest{
		UserID: "U001", Name: "Other", Role: models.RoleAdmin, Contact: "x", Password: "x",
	})
	assertKind(t, err, ErrConflict, "User ID already exists")

	profile, err := svc.Users.Login(ctx, models.LoginRequest{Username: "U001", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, "Admin User", profile.Name)
	assert.Equal(t, models.RoleAdmin, profile.Role)

	_, err = svc.Users.Login(ctx, models.LoginRequest{Username: "U001", Password: "wrong"})
	assertKind(t, err, ErrInvalidCredentials, "Invalid credentials")

	_, err = svc.Users.Login(ctx, models.LoginRequest{Username: "U404", Password: "admin123"})
	assertKind(t, err, ErrInvalidCredentials, "Invalid credentials")

	logs, err := store.ListLogs(ctx, 10)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, "User Admin User logged in")
}

func TestUserService_CreateInvalid(t *testing.T) {
	svc, _ := newTestServices(t)

	_, err := svc.Users.CreateUser(context.Background(), models.NewUserRequest{UserID: "U1", Name: "n", Role: "Guest", Contact: "c", Password: "p"})
	assertKind(t, err, ErrInvalidInput, "")
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)
	_, err := svc.Users.CreateUser(ctx, models.NewUserRequest{
		UserID: "U002", Name: "Officer", Role: models.RoleSecurityOfficer, Contact: "o@example.com", Password: "security123",
	})
	require.NoError(t, err)

	err = svc.Users.UpdateUser(ctx, "U404", models.UserPatch{Name: strPtr("x")})
	assertKind(t, err, ErrNotFound, "User not found")

	err = svc.Users.UpdateUser(ctx, "U002", models.UserPatch{})
	assertKind(t, err, ErrNoChange, "No changes made")

	err = svc.Users.UpdateUser(ctx, "U002", models.UserPatch{Name: strPtr("Officer"), Password: strPtr("security123")})
	assertKind(t, err, ErrNoChange, "No changes made")

	require.NoError(t, svc.Users.UpdateUser(ctx, "U002", models.UserPatch{ZoneAssigned: strPtr("Z01"), Password: strPtr("new-pass")}))

	user, err := svc.Users.GetUser(ctx, "U002")
	require.NoError(t, err)
	require.NotNil(t, user.ZoneAssigned)
	assert.Equal(t, "Z01", *user.ZoneAssigned)

	_, err = svc.Users.Login(ctx, models.LoginRequest{Username: "U002", Password: "new-pass"})
	assert.NoError(t, err)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(t)

	err := svc.Users.DeleteUser(ctx, "U404")
	assertKind(t, err, ErrNotFound, "User not found")
}

func TestZoneService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t)

	require.NoError(t, svc.Zones.CreateZone(ctx, models.Zone{ZoneID: "Z01", LocationName: "Main Gate", Capacity: 300}))
	assertKind(t, svc.Zones.CreateZone(ctx, models.Zone{ZoneID: "Z01", LocationName: "Dup", Capacity: 1}), ErrConflict, "Zone ID already exists")
	assertKind(t, svc.Zones.CreateZone(ctx, models.Zone{ZoneID: "Z02", LocationName: "Bad", Capacity: 0}), ErrInvalidInput, "")

	assertKind(t, svc.Zones.UpdateZone(ctx, "Z01", models.ZonePatch{Capacity: intPtr(300)}), ErrNoChange, "No changes made")
	assertKind(t, svc.Zones.UpdateZone(ctx, "Z09", models.ZonePatch{Capacity: intPtr(10)}), ErrNotFound, "Zone not found")
	require.NoError(t, svc.Zones.UpdateZone(ctx, "Z01", models.ZonePatch{Capacity: intPtr(350)}))

	zone, err := svc.Zones.GetZone(ctx, "Z01")
	require.NoError(t, err)
	assert.Equal(t, 350, zone.Capacity)
	assert.Equal(t, "Main Gate", zone.LocationName)

	require.NoError(t, svc.Zones.DeleteZone(ctx, "Z01"))
	assertKind(t, svc.Zones.DeleteZone(ctx, "Z01"), ErrNotFound, "Zone not found")

	logs, err := store.ListLogs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestCrowdDataService_AddReading(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t)
	require.NoError(t, store.CreateZone(ctx, &models.Zone{ZoneID: "Z01", LocationName: "Main Gate", Capacity: 300}))

	_, err := svc.CrowdData.AddReading(ctx, AddReadingRequest{ZoneID: "Z09", PeopleCount: intPtr(10)})
	assertKind(t, err, ErrNotFound, "Zone not found")

	_, err = svc.CrowdData.AddReading(ctx, AddReadingRequest{ZoneID: "Z01"})
	assertKind(t, err, ErrInvalidInput, "")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reading, err := svc.CrowdData.AddReading(ctx, AddReadingRequest{ZoneID: "Z01", PeopleCount: intPtr(250), Timestamp: &at, DensityLevel: "Low"})
	require.NoError(t, err)
	assert.Equal(t, models.DensityHigh, reading.DensityLevel)
	assert.Equal(t, at, reading.Timestamp)

	latest, err := svc.CrowdData.LatestReadings(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 250, latest[0].PeopleCount)
}

type stubLatest struct {
	readings []models.CrowdReading
	err      error
	puts     int
	evicted  []string
}

func (s *stubLatest) PutLatest(context.Context, *models.CrowdReading) error {
	s.puts++
	return nil
}

func (s *stubLatest) ListLatest(context.Context) ([]models.CrowdReading, error) {
	return s.readings, s.err
}

func (s *stubLatest) Evict(_ context.Context, zoneID string) error {
	s.evicted = append(s.evicted, zoneID)
	return nil
}

func newRedisLatestCache(t *testing.T) *store.LatestCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return store.NewLatestCache(store.NewRedisKV(client), "crowdguard:zone:", ":latest", time.Minute, zap.NewNop())
}

func TestCrowdDataService_LatestPrefersCache(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	require.NoError(t, mem.CreateZone(ctx, &models.Zone{ZoneID: "Z01", LocationName: "Main Gate", Capacity: 300}))
	require.NoError(t, mem.InsertReading(ctx, &models.CrowdReading{ZoneID: "Z01", PeopleCount: 1}))

	cache := &stubLatest{readings: []models.CrowdReading{{ZoneID: "Z01", Timestamp: time.Now(), PeopleCount: 99}}}
	svc := NewCrowdDataService(mem, mem, cache, zap.NewNop())
	latest, err := svc.LatestReadings(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 99, latest[0].PeopleCount)

	cache.readings = nil
	cache.err = errors.New("redis down")
	latest, err = svc.LatestReadings(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 1, latest[0].PeopleCount)
}

func TestCrowdDataService_LatestMergesPartialCache(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"Z01", "Z02", "Z03"} {
		require.NoError(t, mem.CreateZone(ctx, &models.Zone{ZoneID: id, LocationName: "Zone " + id, Capacity: 300}))
	}
	// 种子数据只在数据库里
	require.NoError(t, mem.InsertReading(ctx, &models.CrowdReading{ZoneID: "Z01", Timestamp: at, PeopleCount: 100, DensityLevel: models.DensityLow}))
	require.NoError(t, mem.InsertReading(ctx, &models.CrowdReading{ZoneID: "Z02", Timestamp: at, PeopleCount: 100, DensityLevel: models.DensityLow}))

	svc := NewCrowdDataService(mem, mem, newRedisLatestCache(t), zap.NewNop())
	later := at.Add(time.Minute)
	_, err := svc.AddReading(ctx, AddReadingRequest{ZoneID: "Z03", PeopleCount: intPtr(50), Timestamp: &later})
	require.NoError(t, err)

	latest, err := svc.LatestReadings(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, "Z01", latest[0].ZoneID)
	assert.Equal(t, 100, latest[0].PeopleCount)
	assert.Equal(t, "Z02", latest[1].ZoneID)
	assert.Equal(t, "Z03", latest[2].ZoneID)
	assert.Equal(t, 50, latest[2].PeopleCount)
}

func TestCrowdDataService_LatestIgnoresBackdatedReading(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"Z01", "Z02"} {
		require.NoError(t, mem.CreateZone(ctx, &models.Zone{ZoneID: id, LocationName: "Zone " + id, Capacity: 300}))
		require.NoError(t, mem.InsertReading(ctx, &models.CrowdReading{ZoneID: id, Timestamp: at, PeopleCount: 100, DensityLevel: models.DensityLow}))
	}

	svc := NewCrowdDataService(mem, mem, newRedisLatestCache(t), zap.NewNop())
	backdated := at.Add(-24 * time.Hour)
	_, err := svc.AddReading(ctx, AddReadingRequest{ZoneID: "Z01", PeopleCount: intPtr(290), Timestamp: &backdated})
	require.NoError(t, err)

	fromDB, err := mem.LatestPerZone(ctx)
	require.NoError(t, err)
	latest, err := svc.LatestReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, fromDB, latest)

	// 缓存已覆盖全部区域后，更早的读数依然不会顶掉较新的
	for _, id := range []string{"Z01", "Z02"} {
		now := at.Add(time.Hour)
		_, err := svc.AddReading(ctx, AddReadingRequest{ZoneID: id, PeopleCount: intPtr(120), Timestamp: &now})
		require.NoError(t, err)
	}
	_, err = svc.AddReading(ctx, AddReadingRequest{ZoneID: "Z02", PeopleCount: intPtr(280), Timestamp: &backdated})
	require.NoError(t, err)

	latest, err = svc.LatestReadings(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	for _, r := range latest {
		assert.Equal(t, 120, r.PeopleCount, r.ZoneID)
		assert.True(t, at.Add(time.Hour).Equal(r.Timestamp), r.ZoneID)
	}
}

func TestZoneService_DeleteEvictsLatest(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	cache := newRedisLatestCache(t)
	svcs := NewServices(repository.NewMemoryRepositories(mem), testHasher, cache, zap.NewNop())

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"Z01", "Z02"} {
		require.NoError(t, svcs.Zones.CreateZone(ctx, models.Zone{ZoneID: id, LocationName: "Zone " + id, Capacity: 300}))
		_, err := svcs.CrowdData.AddReading(ctx, AddReadingRequest{ZoneID: id, PeopleCount: intPtr(10), Timestamp: &at})
		require.NoError(t, err)
	}
	require.NoError(t, svcs.Zones.DeleteZone(ctx, "Z01"))

	_, err := cache.GetLatest(ctx, "Z01")
	assert.True(t, errors.Is(err, store.ErrMiss))

	cached, err := cache.ListLatest(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Z02", cached[0].ZoneID)

	latest, err := svcs.CrowdData.LatestReadings(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "Z02", latest[0].ZoneID)
}

func TestZoneService_DeleteCallsEvictor(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	cache := &stubLatest{}
	svcs := NewServices(repository.NewMemoryRepositories(mem), testHasher, cache, zap.NewNop())

	require.NoError(t, svcs.Zones.CreateZone(ctx, models.Zone{ZoneID: "Z01", LocationName: "Main Gate", Capacity: 300}))
	require.NoError(t, svcs.Zones.DeleteZone(ctx, "Z01"))
	assertKind(t, svcs.Zones.DeleteZone(ctx, "Z01"), ErrNotFound, "Zone not found")
	assert.Equal(t, []string{"Z01"}, cache.evicted)
}

func TestCrowdDataService_ListLimit(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		require.NoError(t, store.InsertReading(ctx, &models.CrowdReading{ZoneID: "Z01", Timestamp: base.Add(time.Duration(i) * time.Second)}))
	}

	readings, err := svc.CrowdData.ListReadings(ctx, "Z01")
	require.NoError(t, err)
	assert.Len(t, readings, DefaultReadingLimit)
	assert.Equal(t, base.Add(59*time.Second), readings[0].Timestamp)

	exported, err := svc.CrowdData.ExportReadings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, exported, 60)
}

func TestAlertService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestServices(t)

	alert := models.Alert{AlertID: "A001", ZoneID: "Z03", Severity: models.SeverityHigh, Status: models.AlertActive}
	require.NoError(t, svc.Alerts.CreateAlert(ctx, alert))

	assertKind(t, svc.Alerts.CreateAlert(ctx, alert), ErrConflict, "")
	second := models.Alert{AlertID: "A002", ZoneID: "Z03", Severity: models.SeverityLow, Status: models.AlertActive}
	assertKind(t, svc.Alerts.CreateAlert(ctx, second), ErrConflict, "")

	second.Status = models.AlertResolved
	require.NoError(t, svc.Alerts.CreateAlert(ctx, second))

	err := svc.Alerts.UpdateAlertStatus(ctx, "A002", models.AlertUpdate{Status: models.AlertActive})
	assertKind(t, err, ErrConflict, "Zone Z03 already has an active alert")

	err = svc.Alerts.UpdateAlertStatus(ctx, "A001", models.AlertUpdate{Status: models.AlertActive})
	assertKind(t, err, ErrNoChange, "No changes made")

	err = svc.Alerts.UpdateAlertStatus(ctx, "A404", models.AlertUpdate{Status: models.AlertResolved})
	assertKind(t, err, ErrNotFound, "Alert not found")

	err = svc.Alerts.UpdateAlertStatus(ctx, "A001", models.AlertUpdate{Status: "Closed"})
	assertKind(t, err, ErrInvalidInput, "")

	require.NoError(t, svc.Alerts.UpdateAlertStatus(ctx, "A001", models.AlertUpdate{Status: models.AlertAcknowledged, Responder: strPtr("Security Officer")}))

	got, err := svc.Alerts.GetAlert(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, models.AlertAcknowledged, got.Status)
	require.NotNil(t, got.Responder)
	assert.Equal(t, "Security Officer", *got.Responder)
	assert.False(t, got.Time.IsZero())

	active, err := svc.Alerts.ListAlerts(ctx, models.AlertActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	logs, err := store.ListLogs(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "Alert A001 status updated to Acknowledged", logs[0].Action)
	assert.Equal(t, "Security Officer", logs[0].PerformedBy)
}

func TestLogService_Clamp(t *testing.T) {
	assert.Equal(t, 1, ClampLogLimit(0))
	assert.Equal(t, 1, ClampLogLimit(-5))
	assert.Equal(t, 20, ClampLogLimit(20))
	assert.Equal(t, MaxLogLimit, ClampLogLimit(1000))

	ctx := context.Background()
	svc, store := newTestServices(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendLog(ctx, &models.LogEntry{LogID: string(rune('a' + i)), Timestamp: time.Now()}))
	}
	logs, err := svc.Logs.ListLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
