package service

import (
	"time"
	"unicode/utf8"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shortly-go/constant"
	"shortly-go/internal/model"
	"shortly-go/pkg/logging"
)

// MaxUserAgentLength and MaxReferrerLength bound the stored raw strings.
const (
	MaxUserAgentLength = 500
	MaxReferrerLength  = 2048
)

// RequestContext carries the raw click attributes extracted from the
// inbound request. IP is the first hop of a forwarded-for chain when
// one is present.
type RequestContext struct {
	IP        string
	UserAgent string
	Referrer  string
}

// ClickService turns a request context into a durable ClickEvent and
// bumps the link counter. The event insert and the counter increment
// are two sequential writes with no wrapping transaction: a crash
// between them loses at most the single in-flight click, which keeps
// the recording path transaction-free (documented eventual consistency).
type ClickService struct {
	db    *gorm.DB
	pool  *redis.Pool
	links *LinkService
	geo   GeoResolver
}

func NewClickService(db *gorm.DB, pool *redis.Pool, links *LinkService, geo GeoResolver) *ClickService {
	if geo == nil {
		geo = NoopGeoResolver{}
	}
	return &ClickService{db: db, pool: pool, links: links, geo: geo}
}

// Record classifies, persists and counts one click. Derived fields are
// computed here once and never recomputed.
func (s *ClickService) Record(link *model.Link, rc RequestContext) (*model.ClickEvent, error) {
	device, browser, os := ClassifyUserAgent(rc.UserAgent)
	country, city := s.geo.Resolve(rc.IP)

	var ipPtr *string
	if rc.IP != "" {
		ip := rc.IP
		ipPtr = &ip
	}

	event := &model.ClickEvent{
		LinkID:     link.ID,
		ClickedAt:  time.Now(),
		IPAddress:  ipPtr,
		UserAgent:  truncate(rc.UserAgent, MaxUserAgentLength),
		Referrer:   truncate(rc.Referrer, MaxReferrerLength),
		Country:    country,
		City:       city,
		DeviceType: device,
		Browser:    browser,
		OS:         os,
	}

	if err := s.db.Create(event).Error; err != nil {
		logging.Logger.Error("Click event insert failed",
			zap.Uint("link_id", link.ID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.links.IncrementClicks(link.ID); err != nil {
		logging.Logger.Error("Click counter increment failed",
			zap.Uint("link_id", link.ID),
			zap.Error(err),
		)
		return event, err
	}

	s.recordUniqueVisitor(link.ShortCode, rc.IP)

	return event, nil
}

// recordUniqueVisitor feeds the per-link HyperLogLog. Best effort.
func (s *ClickService) recordUniqueVisitor(shortCode, ip string) {
	if s.pool == nil || ip == "" {
		return
	}

	conn := s.pool.Get()
	defer func() {
		if err := conn.Close(); err != nil {
			logging.Logger.Warn("Redis connection close failed", zap.Error(err))
		}
	}()

	if _, err := conn.Do("PFADD", constant.GetTotalUVKey(shortCode), ip); err != nil {
		logging.Logger.Warn("Failed to record unique visitor",
			zap.String("short_code", shortCode),
			zap.Error(err),
		)
	}
}

// truncate clips s to at most max bytes without splitting a rune, so
// the stored value stays valid UTF-8 for the utf8mb4 columns.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
