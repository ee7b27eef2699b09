package service

import (
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shortly-go/constant"
	"shortly-go/internal/apperrors"
	"shortly-go/internal/dto"
	"shortly-go/internal/model"
	"shortly-go/internal/plan"
	"shortly-go/pkg/logging"
)

// StatsService computes on-demand rollups over stored click events.
type StatsService struct {
	db   *gorm.DB
	pool *redis.Pool
}

func NewStatsService(db *gorm.DB, pool *redis.Pool) *StatsService {
	return &StatsService{db: db, pool: pool}
}

// LinkStats assembles the per-link analytics payload: window counts,
// top breakdowns (browsers and countries capped at 5, devices
// unbounded) and a 30-day daily series.
func (s *StatsService) LinkStats(link *model.Link) (*dto.LinkStats, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	clicksToday, err := s.countSince(link.ID, today)
	if err != nil {
		return nil, err
	}
	clicksThisWeek, err := s.countSince(link.ID, weekAgo)
	if err != nil {
		return nil, err
	}
	clicksThisMonth, err := s.countSince(link.ID, monthAgo)
	if err != nil {
		return nil, err
	}

	topBrowsers, err := s.topByColumn(link.ID, "browser", 5, false)
	if err != nil {
		return nil, err
	}
	topDevices, err := s.topByColumn(link.ID, "device_type", 0, false)
	if err != nil {
		return nil, err
	}
	topCountries, err := s.topByColumn(link.ID, "country", 5, true)
	if err != nil {
		return nil, err
	}

	clicksByDay, err := s.clicksByDay(link.ID, monthAgo)
	if err != nil {
		return nil, err
	}

	return &dto.LinkStats{
		TotalClicks:     link.ClicksCount,
		ClicksToday:     clicksToday,
		ClicksThisWeek:  clicksThisWeek,
		ClicksThisMonth: clicksThisMonth,
		UniqueVisitors:  s.uniqueVisitors(link.ShortCode),
		TopBrowsers:     topBrowsers,
		TopDevices:      topDevices,
		TopCountries:    topCountries,
		ClicksByDay:     clicksByDay,
	}, nil
}

// UserStats summarizes a user's footprint: link quota usage, total
// clicks across owned links, 30-day daily series.
func (s *StatsService) UserStats(user *model.User) (*dto.UserStats, error) {
	var linksUsed int64
	if err := s.db.Model(&model.Link{}).Where("user_id = ?", user.ID).Count(&linksUsed).Error; err != nil {
		return nil, s.queryFailed(err)
	}

	var totalClicks int64
	err := s.db.Model(&model.ClickEvent{}).
		Joins("JOIN links ON links.id = click_events.link_id").
		Where("links.user_id = ?", user.ID).
		Count(&totalClicks).Error
	if err != nil {
		return nil, s.queryFailed(err)
	}

	monthAgo := time.Now().AddDate(0, 0, -30)
	var rows []dto.DayCount
	err = s.db.Model(&model.ClickEvent{}).
		Select("DATE(clicked_at) AS date, COUNT(*) AS count").
		Joins("JOIN links ON links.id = click_events.link_id").
		Where("links.user_id = ? AND clicked_at >= ?", user.ID, monthAgo).
		Group("DATE(clicked_at)").
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, s.queryFailed(err)
	}

	return &dto.UserStats{
		Username:    user.Username,
		Plan:        user.Plan,
		LinksLimit:  plan.ConfigFor(user).LinksLimit,
		LinksUsed:   linksUsed,
		TotalClicks: totalClicks,
		ClicksByDay: rows,
	}, nil
}

func (s *StatsService) countSince(linkID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&model.ClickEvent{}).
		Where("link_id = ? AND clicked_at >= ?", linkID, since).
		Count(&count).Error
	if err != nil {
		return 0, s.queryFailed(err)
	}
	return count, nil
}

// topByColumn groups events by a classification column, descending by
// count. limit 0 means unbounded; excludeEmpty skips blank values
// (unresolved countries).
func (s *StatsService) topByColumn(linkID uint, column string, limit int, excludeEmpty bool) ([]dto.KeyCount, error) {
	db := s.db.Model(&model.ClickEvent{}).
		Select(column + " AS `key`, COUNT(*) AS count").
		Where("link_id = ?", linkID)
	if excludeEmpty {
		db = db.Where(column + " != ''")
	}
	db = db.Group(column).Order("count DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var rows []dto.KeyCount
	if err := db.Scan(&rows).Error; err != nil {
		return nil, s.queryFailed(err)
	}
	if rows == nil {
		rows = []dto.KeyCount{}
	}
	return rows, nil
}

func (s *StatsService) clicksByDay(linkID uint, since time.Time) ([]dto.DayCount, error) {
	var rows []dto.DayCount
	err := s.db.Model(&model.ClickEvent{}).
		Select("DATE(clicked_at) AS date, COUNT(*) AS count").
		Where("link_id = ? AND clicked_at >= ?", linkID, since).
		Group("DATE(clicked_at)").
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, s.queryFailed(err)
	}
	if rows == nil {
		rows = []dto.DayCount{}
	}
	return rows, nil
}

// uniqueVisitors reads the HyperLogLog cardinality. Zero when redis is
// unavailable; the field is informational.
func (s *StatsService) uniqueVisitors(shortCode string) int64 {
	if s.pool == nil {
		return 0
	}

	conn := s.pool.Get()
	defer func() {
		if err := conn.Close(); err != nil {
			logging.Logger.Warn("Redis connection close failed", zap.Error(err))
		}
	}()

	count, err := redis.Int64(conn.Do("PFCOUNT", constant.GetTotalUVKey(shortCode)))
	if err != nil {
		logging.Logger.Warn("Failed to read unique visitors",
			zap.String("short_code", shortCode),
			zap.Error(err),
		)
		return 0
	}
	return count
}

func (s *StatsService) queryFailed(err error) error {
	logging.Logger.Error("Stats query failed", zap.Error(err))
	return apperrors.SystemErrorDefault()
}
