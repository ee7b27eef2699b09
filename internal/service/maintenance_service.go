package service

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shortly-go/internal/dto"
	"shortly-go/internal/model"
	"shortly-go/internal/plan"
	"shortly-go/pkg/logging"
)

// MaintenanceService runs the cron-driven background work: daily stat
// rollups and plan-retention purges of old click events.
type MaintenanceService struct {
	db *gorm.DB
}

func NewMaintenanceService(db *gorm.DB) *MaintenanceService {
	return &MaintenanceService{db: db}
}

// RollupDailyStats upserts today's per-link click totals into
// daily_stats so dashboards read a small table instead of scanning
// events.
func (s *MaintenanceService) RollupDailyStats() error {
	logging.Logger.Info("RollupDailyStats start")

	now := time.Now()
	today := now.Format("2006-01-02")
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var rows []struct {
		LinkID uint
		Count  int64
	}
	err := s.db.Model(&model.ClickEvent{}).
		Select("link_id, COUNT(*) AS count").
		Where("clicked_at >= ?", dayStart).
		Group("link_id").
		Scan(&rows).Error
	if err != nil {
		logging.Logger.Error("Daily rollup query failed", zap.Error(err))
		return err
	}

	for _, row := range rows {
		stat := &model.DailyStat{
			LinkID: row.LinkID,
			Date:   today,
			Clicks: row.Count,
		}
		result := s.db.Where("link_id = ? AND date = ?", row.LinkID, today).
			Assign("clicks", row.Count).
			FirstOrCreate(stat)
		if result.Error != nil {
			logging.Logger.Error("Failed to upsert daily stat",
				zap.Uint("link_id", row.LinkID),
				zap.String("date", today),
				zap.Int64("clicks", row.Count),
				zap.Error(result.Error),
			)
		}
	}

	logging.Logger.Info("RollupDailyStats end", zap.Int("links", len(rows)))
	return nil
}

// PurgeExpiredClicks deletes click events older than the owning plan's
// retention window. Anonymous links use the free-tier window.
func (s *MaintenanceService) PurgeExpiredClicks() error {
	logging.Logger.Info("PurgeExpiredClicks start")

	now := time.Now()
	for tier, cfg := range plan.Plans {
		cutoff := now.AddDate(0, 0, -cfg.RetentionDays)
		owned := s.db.Model(&model.Link{}).
			Select("links.id").
			Joins("JOIN users ON users.id = links.user_id").
			Where("users.plan = ?", tier)

		result := s.db.Where("clicked_at < ? AND link_id IN (?)", cutoff, owned).
			Delete(&model.ClickEvent{})
		if result.Error != nil {
			logging.Logger.Error("Retention purge failed",
				zap.String("plan", tier),
				zap.Error(result.Error),
			)
			continue
		}
		if result.RowsAffected > 0 {
			logging.Logger.Info("Purged click events",
				zap.String("plan", tier),
				zap.Int64("rows", result.RowsAffected),
			)
		}
	}

	freeCutoff := now.AddDate(0, 0, -plan.Plans[plan.TierFree].RetentionDays)
	anonymous := s.db.Model(&model.Link{}).
		Select("id").
		Where("user_id IS NULL")
	result := s.db.Where("clicked_at < ? AND link_id IN (?)", freeCutoff, anonymous).
		Delete(&model.ClickEvent{})
	if result.Error != nil {
		logging.Logger.Error("Retention purge failed for anonymous links", zap.Error(result.Error))
		return result.Error
	}

	logging.Logger.Info("PurgeExpiredClicks end")
	return nil
}

// StatsForLink reads the rolled-up daily history, newest first.
func (s *MaintenanceService) StatsForLink(linkID uint) ([]dto.DayCount, error) {
	var stats []model.DailyStat
	err := s.db.Where("link_id = ?", linkID).Order("date DESC").Find(&stats).Error
	if err != nil {
		return nil, err
	}
	rows := make([]dto.DayCount, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, dto.DayCount{Date: st.Date, Count: st.Clicks})
	}
	return rows, nil
}
