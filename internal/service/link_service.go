package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shortly-go/constant"
	"shortly-go/internal/apperrors"
	"shortly-go/internal/model"
	"shortly-go/internal/plan"
	"shortly-go/pkg/logging"
	"shortly-go/pkg/utils"
	"shortly-go/response"
)

// LinkService is the durable code/alias → link store. A nil redis pool
// disables caching (tests, degraded mode); all reads then go to the DB.
type LinkService struct {
	db         *gorm.DB
	pool       *redis.Pool
	codeLength int
}

func NewLinkService(db *gorm.DB, pool *redis.Pool, codeLength int) *LinkService {
	if codeLength <= 0 {
		codeLength = DefaultCodeLength
	}
	return &LinkService{db: db, pool: pool, codeLength: codeLength}
}

// Create validates the destination, enforces alias and plan rules, then
// persists the link under a freshly generated code. Code uniqueness is
// enforced by the store's unique index; on violation a new code is
// generated, up to MaxGenerateAttempts.
func (s *LinkService) Create(user *model.User, originalURL, alias, title string) (*model.Link, error) {
	if err := utils.ValidateTargetURL(originalURL); err != nil {
		return nil, apperrors.InvalidRequestError(err.Error())
	}

	var aliasPtr *string
	if alias != "" {
		alias = utils.NormalizeAlias(alias)
		if err := utils.ValidateAlias(alias); err != nil {
			return nil, apperrors.InvalidRequestError(err.Error())
		}
		if user == nil {
			// The public low-trust endpoint only grants aliases to
			// resolved principals.
			return nil, apperrors.FeatureNotAllowedError("error.alias_requires_account")
		}
		if !plan.CanUseCustomAlias(plan.ConfigFor(user)) {
			return nil, apperrors.FeatureNotAllowedError("error.alias_requires_plan")
		}
		taken, err := s.aliasExists(alias)
		if err != nil {
			return nil, apperrors.SystemErrorDefault()
		}
		if taken {
			return nil, apperrors.AliasTakenError("error.alias_taken")
		}
		aliasPtr = &alias
	}

	if user != nil {
		count, err := s.CountByUser(user.ID)
		if err != nil {
			return nil, apperrors.SystemErrorDefault()
		}
		if !plan.CanCreateLink(user, plan.ConfigFor(user), count) {
			return nil, apperrors.PlanLimitError("error.link_limit_reached")
		}
	}

	var userID *uint
	if user != nil {
		userID = &user.ID
	}

	for attempt := 0; attempt < MaxGenerateAttempts; attempt++ {
		code, err := GenerateCode(s.codeLength)
		if err != nil {
			return nil, apperrors.SystemErrorDefault()
		}

		link := &model.Link{
			ShortCode:   code,
			CustomAlias: aliasPtr,
			OriginalURL: originalURL,
			Title:       title,
			UserID:      userID,
			IsActive:    true,
		}

		err = s.db.Create(link).Error
		if err == nil {
			// A probe for this code or alias before it existed may
			// have left a remembered miss; drop it so the new link
			// resolves immediately.
			s.invalidateCache(link)
			return link, nil
		}
		if !utils.IsUniqueViolation(err) {
			logging.Logger.Error("Link insert failed", zap.Error(err))
			return nil, apperrors.SystemErrorDefault()
		}

		// A unique violation can come from either namespace. If the
		// alias lost a concurrent race, give up; otherwise the code
		// collided and a fresh draw may succeed.
		if aliasPtr != nil {
			taken, checkErr := s.aliasExists(alias)
			if checkErr == nil && taken {
				return nil, apperrors.AliasTakenError("error.alias_taken")
			}
		}
	}

	logging.Logger.Error("Short code space exhausted",
		zap.Int("attempts", MaxGenerateAttempts),
		zap.Int("code_length", s.codeLength),
	)
	return nil, apperrors.CodeExhaustionError()
}

func (s *LinkService) aliasExists(alias string) (bool, error) {
	var existing model.Link
	err := s.db.Select("id").Where("custom_alias = ?", alias).First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// Lookup resolves an inbound code to a link, alias namespace first. It
// is a pure read: no counters move. Results (including misses) are
// cached in redis in front of the DB.
func (s *LinkService) Lookup(code string) (*model.Link, error) {
	if code == "" {
		return nil, apperrors.NotFoundError("link_not_found")
	}

	if link, ok, hit := s.cacheGet(code); hit {
		if !ok {
			return nil, apperrors.NotFoundError("link_not_found")
		}
		return link, nil
	}

	link, err := s.lookupDB(code)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
			s.cacheSetNegative(code)
		}
		return nil, err
	}

	s.cacheSet(code, link)
	return link, nil
}

func (s *LinkService) lookupDB(code string) (*model.Link, error) {
	var link model.Link
	err := s.db.Where("custom_alias = ?", code).First(&link).Error
	if err == nil {
		return &link, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("Link lookup failed", zap.String("code", code), zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	err = s.db.Where("short_code = ?", code).First(&link).Error
	if err == nil {
		return &link, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("link_not_found")
	}
	logging.Logger.Error("Link lookup failed", zap.String("code", code), zap.Error(err))
	return nil, apperrors.SystemErrorDefault()
}

// GetOwned fetches a link by code and checks ownership.
func (s *LinkService) GetOwned(code string, user *model.User) (*model.Link, error) {
	link, err := s.lookupDB(code)
	if err != nil {
		return nil, err
	}
	if user == nil || link.UserID == nil || *link.UserID != user.ID {
		return nil, apperrors.NotFoundError("link_not_found")
	}
	return link, nil
}

// IncrementClicks adds exactly one to the click counter with a single
// atomic UPDATE, never read-modify-write, so concurrent redirects of a
// popular link cannot lose updates.
func (s *LinkService) IncrementClicks(linkID uint) error {
	return s.db.Model(&model.Link{}).
		Where("id = ?", linkID).
		UpdateColumn("clicks_count", gorm.Expr("clicks_count + ?", 1)).Error
}

// Delete removes an owned link, cascading to its click events and
// daily stats, and drops its cache entries.
func (s *LinkService) Delete(code string, user *model.User) error {
	link, err := s.GetOwned(code, user)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", link.ID).Delete(&model.ClickEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", link.ID).Delete(&model.DailyStat{}).Error; err != nil {
			return err
		}
		return tx.Delete(link).Error
	})
	if err != nil {
		logging.Logger.Error("Link delete failed", zap.Uint("id", link.ID), zap.Error(err))
		return apperrors.SystemErrorDefault()
	}

	s.invalidateCache(link)
	return nil
}

// UpdateStatus flips the active flag and invalidates the cache so a
// disabled link stops redirecting immediately.
func (s *LinkService) UpdateStatus(code string, user *model.User, active bool) error {
	link, err := s.GetOwned(code, user)
	if err != nil {
		return err
	}

	link.IsActive = active
	if err := s.db.Save(link).Error; err != nil {
		logging.Logger.Error("Link status update failed", zap.Uint("id", link.ID), zap.Error(err))
		return apperrors.SystemErrorDefault()
	}

	s.invalidateCache(link)
	return nil
}

// UpdateTargetURL repoints an owned link at a new destination.
func (s *LinkService) UpdateTargetURL(code string, user *model.User, targetURL string) error {
	if err := utils.ValidateTargetURL(targetURL); err != nil {
		return apperrors.InvalidRequestError(err.Error())
	}

	link, err := s.GetOwned(code, user)
	if err != nil {
		return err
	}
	if link.OriginalURL == targetURL {
		return nil
	}

	link.OriginalURL = targetURL
	if err := s.db.Save(link).Error; err != nil {
		logging.Logger.Error("Link update failed", zap.Uint("id", link.ID), zap.Error(err))
		return apperrors.SystemErrorDefault()
	}

	s.invalidateCache(link)
	return nil
}

// CountByUser counts the links owned by a user, active or not.
func (s *LinkService) CountByUser(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&model.Link{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// List returns a page of the user's links, newest first.
func (s *LinkService) List(user *model.User, page, size int) (*response.PageResponse[model.Link], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	db := s.db.Model(&model.Link{}).Where("user_id = ?", user.ID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperrors.SystemError("Failed to count links: " + err.Error())
	}

	if total == 0 {
		return &response.PageResponse[model.Link]{
			Page:      page,
			Size:      size,
			Total:     0,
			TotalPage: 0,
			List:      []model.Link{},
		}, nil
	}

	var links []model.Link
	if err := db.
		Limit(size).
		Offset((page - 1) * size).
		Order("id DESC").
		Find(&links).Error; err != nil {
		logging.Logger.Error("Link list query failed", zap.Error(err))
		return nil, apperrors.SystemErrorDefault()
	}

	totalPage := (int(total) + size - 1) / size

	return &response.PageResponse[model.Link]{
		Page:      page,
		Size:      size,
		Total:     int(total),
		TotalPage: totalPage,
		List:      links,
	}, nil
}

// cacheGet returns (link, found, cacheHit). A cached empty value is a
// remembered miss.
func (s *LinkService) cacheGet(code string) (*model.Link, bool, bool) {
	if s.pool == nil {
		return nil, false, false
	}

	conn := s.pool.Get()
	defer s.closeConn(conn)

	cached, err := redis.Bytes(conn.Do("GET", constant.GetLinkCacheKey(code)))
	if err != nil {
		if err != redis.ErrNil {
			logging.Logger.Warn("Redis GET failed", zap.String("code", code), zap.Error(err))
		}
		return nil, false, false
	}
	if len(cached) == 0 {
		return nil, false, true
	}

	var link model.Link
	if err := json.Unmarshal(cached, &link); err != nil {
		logging.Logger.Warn("Failed to unmarshal cached link", zap.String("code", code), zap.Error(err))
		return nil, false, false
	}
	return &link, true, true
}

func (s *LinkService) cacheSet(code string, link *model.Link) {
	if s.pool == nil {
		return
	}

	conn := s.pool.Get()
	defer s.closeConn(conn)

	value, err := json.Marshal(link)
	if err != nil {
		return
	}
	if _, err := conn.Do("SET", constant.GetLinkCacheKey(code), value, "EX", constant.LinkCacheTTL); err != nil {
		logging.Logger.Warn("Redis SET failed", zap.String("code", code), zap.Error(err))
	}
}

// cacheSetNegative remembers a miss briefly to blunt cache-penetration
// floods of unknown codes.
func (s *LinkService) cacheSetNegative(code string) {
	if s.pool == nil {
		return
	}

	conn := s.pool.Get()
	defer s.closeConn(conn)

	if _, err := conn.Do("SET", constant.GetLinkCacheKey(code), "", "EX", constant.NegativeCacheTTL); err != nil {
		logging.Logger.Warn("Redis SET failed", zap.String("code", code), zap.Error(err))
	}
}

// invalidateCache drops the cache entries for both lookup namespaces.
func (s *LinkService) invalidateCache(link *model.Link) {
	if s.pool == nil {
		return
	}

	conn := s.pool.Get()
	defer s.closeConn(conn)

	keys := []interface{}{constant.GetLinkCacheKey(link.ShortCode)}
	if link.CustomAlias != nil && *link.CustomAlias != "" {
		keys = append(keys, constant.GetLinkCacheKey(*link.CustomAlias))
	}
	if _, err := conn.Do("DEL", keys...); err != nil {
		logging.Logger.Warn("Redis DEL failed", zap.Uint("id", link.ID), zap.Error(err))
	}
}

func (s *LinkService) closeConn(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		logging.Logger.Warn("Redis connection close failed", zap.Error(err))
	}
}
