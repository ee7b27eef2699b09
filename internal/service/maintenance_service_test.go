package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortly-go/internal/model"
	"shortly-go/internal/plan"
)

func TestRollupDailyStats(t *testing.T) {
	db := newTestDB(t)
	links := NewLinkService(db, nil, DefaultCodeLength)
	svc := NewMaintenanceService(db)

	link, err := links.Create(nil, "https://example.com", "", "")
	require.NoError(t, err)

	now := time.Now()
	today := now.Format("2006-01-02")
	seedClick(t, db, link.ID, now.Add(-time.Minute), "Chrome", DeviceDesktop, "")
	seedClick(t, db, link.ID, now.Add(-2*time.Minute), "Chrome", DeviceDesktop, "")
	// Yesterday's click stays out of today's bucket.
	seedClick(t, db, link.ID, now.AddDate(0, 0, -1), "Chrome", DeviceDesktop, "")

	require.NoError(t, svc.RollupDailyStats())

	var stat model.DailyStat
	require.NoError(t, db.Where("link_id = ? AND date = ?", link.ID, today).First(&stat).Error)
	assert.EqualValues(t, 2, stat.Clicks)

	t.Run("Idempotent", func(t *testing.T) {
		seedClick(t, db, link.ID, now.Add(-time.Second), "Chrome", DeviceDesktop, "")
		require.NoError(t, svc.RollupDailyStats())

		var stats []model.DailyStat
		require.NoError(t, db.Where("link_id = ? AND date = ?", link.ID, today).Find(&stats).Error)
		require.Len(t, stats, 1, "rerun updates in place, no duplicate row")
		assert.EqualValues(t, 3, stats[0].Clicks)
	})
}

func TestPurgeExpiredClicks(t *testing.T) {
	db := newTestDB(t)
	links := NewLinkService(db, nil, DefaultCodeLength)
	svc := NewMaintenanceService(db)

	freeUser := newTestUser(t, db, "free-user", plan.TierFree)
	proUser := newTestUser(t, db, "pro-user", plan.TierPro)

	freeLink, err := links.Create(freeUser, "https://example.com/free", "", "")
	require.NoError(t, err)
	proLink, err := links.Create(proUser, "https://example.com/pro", "", "")
	require.NoError(t, err)
	anonLink, err := links.Create(nil, "https://example.com/anon", "", "")
	require.NoError(t, err)

	now := time.Now()
	tenDaysAgo := now.AddDate(0, 0, -10)
	seedClick(t, db, freeLink.ID, tenDaysAgo, "Chrome", DeviceDesktop, "")
	seedClick(t, db, freeLink.ID, now.Add(-time.Hour), "Chrome", DeviceDesktop, "")
	seedClick(t, db, proLink.ID, tenDaysAgo, "Chrome", DeviceDesktop, "")
	seedClick(t, db, anonLink.ID, tenDaysAgo, "Chrome", DeviceDesktop, "")

	require.NoError(t, svc.PurgeExpiredClicks())

	count := func(linkID uint) int64 {
		var n int64
		require.NoError(t, db.Model(&model.ClickEvent{}).Where("link_id = ?", linkID).Count(&n).Error)
		return n
	}

	assert.EqualValues(t, 1, count(freeLink.ID), "free tier keeps 7 days, the 10-day-old click goes")
	assert.EqualValues(t, 1, count(proLink.ID), "pro tier keeps 90 days")
	assert.EqualValues(t, 0, count(anonLink.ID), "anonymous links use the free window")
}

func TestStatsForLinkNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaintenanceService(db)

	for _, day := range []string{"2026-08-29", "2026-08-31", "2026-08-30"} {
		require.NoError(t, db.Create(&model.DailyStat{LinkID: 1, Date: day, Clicks: 1}).Error)
	}
	require.NoError(t, db.Create(&model.DailyStat{LinkID: 2, Date: "2026-08-31", Clicks: 9}).Error)

	rows, err := svc.StatsForLink(1)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "2026-08-31", rows[0].Date)
	assert.Equal(t, "2026-08-30", rows[1].Date)
	assert.Equal(t, "2026-08-29", rows[2].Date)
}
