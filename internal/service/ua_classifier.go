package service

import "strings"

// Device classes.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// uaRule maps case-insensitive substrings to a label. Rules are
// evaluated in slice order and the first match wins; the order is
// behaviorally significant (android phones classify as mobile before
// any tablet check) and must not be reordered.
type uaRule struct {
	substrings []string
	label      string
}

var deviceRules = []uaRule{
	{[]string{"mobile", "android"}, DeviceMobile},
	{[]string{"tablet", "ipad"}, DeviceTablet},
}

var browserRules = []uaRule{
	{[]string{"chrome"}, "Chrome"},
	{[]string{"firefox"}, "Firefox"},
	{[]string{"safari"}, "Safari"},
	{[]string{"edge"}, "Edge"},
}

var osRules = []uaRule{
	{[]string{"windows"}, "Windows"},
	{[]string{"mac"}, "macOS"},
	{[]string{"linux"}, "Linux"},
	{[]string{"android"}, "Android"},
	{[]string{"iphone", "ipad"}, "iOS"},
}

func matchRules(rules []uaRule, uaLower, fallback string) string {
	for _, rule := range rules {
		for _, s := range rule.substrings {
			if strings.Contains(uaLower, s) {
				return rule.label
			}
		}
	}
	return fallback
}

// ClassifyUserAgent derives device class, browser family and OS family
// from a raw user-agent string. Computed once at click creation time.
func ClassifyUserAgent(userAgent string) (device, browser, os string) {
	uaLower := strings.ToLower(userAgent)
	device = matchRules(deviceRules, uaLower, DeviceDesktop)
	browser = matchRules(browserRules, uaLower, "Other")
	os = matchRules(osRules, uaLower, "Other")
	return device, browser, os
}
