package constant

import "fmt"

const (
	BasePrefix = "shortly:"
	Separator  = ":"
)

// Redis key templates. The link cache is keyed by the inbound code
// (alias or short code); UV HyperLogLogs are keyed by short code.
const (
	LinkCache = BasePrefix + "link" + Separator + "%s"
	TotalUV   = BasePrefix + "total_uv" + Separator + "%s"
)

// Cache TTLs in seconds.
const (
	LinkCacheTTL     = 3600
	NegativeCacheTTL = 300
)

// GetLinkCacheKey builds the cache key for an inbound code.
func GetLinkCacheKey(code string) string {
	return fmt.Sprintf(LinkCache, code)
}

// GetTotalUVKey builds the unique-visitor HyperLogLog key for a link.
func GetTotalUVKey(shortCode string) string {
	return fmt.Sprintf(TotalUV, shortCode)
}
