package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"crowdguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Zones(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateZone(ctx, &models.Zone{ZoneID: "Z02", LocationName: "Food Court", Capacity: 200}))
	require.NoError(t, s.CreateZone(ctx, &models.Zone{ZoneID: "Z01", LocationName: "Main Gate", Capacity: 300}))

	err := s.CreateZone(ctx, &models.Zone{ZoneID: "Z01", LocationName: "dup", Capacity: 1})
	assert.True(t, errors.Is(err, ErrDuplicate))

	zones, err := s.ListZones(ctx, 0)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "Z01", zones[0].ZoneID)

	limited, err := s.ListZones(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.DeleteZone(ctx, "Z02"))
	_, err = s.GetZone(ctx, "Z02")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_ReadingsOrderAndLatest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertReading(ctx, &models.CrowdReading{ZoneID: "Z01", Timestamp: base.Add(time.Duration(i) * time.Minute), PeopleCount: 100 + i}))
		require.NoError(t, s.InsertReading(ctx, &models.CrowdReading{ZoneID: "Z02", Timestamp: base.Add(time.Duration(i) * time.Minute), PeopleCount: 10 + i}))
	}

	all, err := s.ListReadings(ctx, models.CrowdDataFilters{Limit: 4})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, !all[0].Timestamp.Before(all[3].Timestamp))

	z1, err := s.ListReadings(ctx, models.CrowdDataFilters{ZoneID: "Z01"})
	require.NoError(t, err)
	require.Len(t, z1, 3)
	assert.Equal(t, 102, z1[0].PeopleCount)

	latest, err := s.LatestPerZone(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 102, latest[0].PeopleCount)
	assert.Equal(t, 12, latest[1].PeopleCount)
}

func TestMemoryStore_OneActiveAlertPerZone(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	created, err := s.CreateIfNoActive(ctx, &models.Alert{AlertID: "a1", ZoneID: "Z01", Status: models.AlertActive, Time: now})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateIfNoActive(ctx, &models.Alert{AlertID: "a2", ZoneID: "Z01", Status: models.AlertActive, Time: now})
	require.NoError(t, err)
	assert.False(t, created)

	err = s.CreateAlert(ctx, &models.Alert{AlertID: "a3", ZoneID: "Z01", Status: models.AlertActive, Time: now})
	assert.True(t, errors.Is(err, ErrDuplicate))

	// 已解决的报警不再阻止新的 Active 报警
	require.NoError(t, s.UpdateAlertStatus(ctx, "a1", models.AlertResolved, nil))
	created, err = s.CreateIfNoActive(ctx, &models.Alert{AlertID: "a4", ZoneID: "Z01", Status: models.AlertActive, Time: now})
	require.NoError(t, err)
	assert.True(t, created)

	// 重新激活 a1 会违反约束
	err = s.UpdateAlertStatus(ctx, "a1", models.AlertActive, nil)
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestMemoryStore_CreateIfNoActive_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.CreateIfNoActive(ctx, &models.Alert{
				AlertID: fmt.Sprintf("a-%d", i), ZoneID: "Z01", Status: models.AlertActive, Time: time.Now(),
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	active, err := s.ListAlerts(ctx, models.AlertFilters{Status: models.AlertActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestMemoryStore_UpdateAlertKeepsResponderWhenNil(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	officer := "Officer"

	require.NoError(t, s.CreateAlert(ctx, &models.Alert{AlertID: "a1", ZoneID: "Z01", Status: models.AlertActive, Responder: &officer}))
	require.NoError(t, s.UpdateAlertStatus(ctx, "a1", models.AlertAcknowledged, nil))

	a, err := s.GetAlert(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AlertAcknowledged, a.Status)
	require.NotNil(t, a.Responder)
	assert.Equal(t, "Officer", *a.Responder)
}

func TestMemoryStore_LogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now()

	require.NoError(t, s.AppendLog(ctx, &models.LogEntry{LogID: "1", Action: "old", Timestamp: base.Add(-time.Hour)}))
	require.NoError(t, s.AppendLog(ctx, &models.LogEntry{LogID: "2", Action: "new", Timestamp: base}))

	logs, err := s.ListLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "new", logs[0].Action)
}
