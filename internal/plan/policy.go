// Package plan holds the pure plan-tier policy: no I/O, no ambient
// state. Callers supply the tier config and current usage explicitly.
package plan

import "shortly-go/internal/model"

// UnlimitedLinks is the sentinel for tiers without a link-count cap.
const UnlimitedLinks = -1

const (
	TierFree     = "free"
	TierPro      = "pro"
	TierBusiness = "business"
)

// Config is the fixed configuration of one plan tier.
type Config struct {
	Name          string
	LinksLimit    int
	CustomAlias   bool
	APIAccess     bool
	RetentionDays int // click-history retention window
}

// Plans maps tier name to configuration. Unknown tiers fall back to free.
var Plans = map[string]Config{
	TierFree: {
		Name:          "Free",
		LinksLimit:    25,
		CustomAlias:   false,
		APIAccess:     false,
		RetentionDays: 7,
	},
	TierPro: {
		Name:          "Pro",
		LinksLimit:    500,
		CustomAlias:   true,
		APIAccess:     true,
		RetentionDays: 90,
	},
	TierBusiness: {
		Name:          "Business",
		LinksLimit:    UnlimitedLinks,
		CustomAlias:   true,
		APIAccess:     true,
		RetentionDays: 365,
	},
}

// ConfigFor resolves a user's tier config. Nil users get the free config,
// though anonymous requests are never subject to limits (see CanCreateLink).
func ConfigFor(user *model.User) Config {
	if user == nil {
		return Plans[TierFree]
	}
	if cfg, ok := Plans[user.Plan]; ok {
		return cfg
	}
	return Plans[TierFree]
}

// CanCreateLink reports whether another link may be created. Anonymous
// links are never counted against a plan.
func CanCreateLink(user *model.User, cfg Config, currentCount int64) bool {
	if user == nil {
		return true
	}
	if cfg.LinksLimit == UnlimitedLinks {
		return true
	}
	return currentCount < int64(cfg.LinksLimit)
}

// CanUseCustomAlias reports whether the tier includes custom aliases.
func CanUseCustomAlias(cfg Config) bool {
	return cfg.CustomAlias
}

// HasAPIAccess reports whether the tier includes programmatic API access.
func HasAPIAccess(cfg Config) bool {
	return cfg.APIAccess
}
