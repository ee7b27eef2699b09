package service

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// GeoResolver supplies country/city for an IP. The values are opaque to
// the core; a resolver that cannot answer returns empty strings.
type GeoResolver interface {
	Resolve(ip string) (country, city string)
}

// NoopGeoResolver always answers with empty strings. The default when
// geo lookup is disabled.
type NoopGeoResolver struct{}

func (NoopGeoResolver) Resolve(ip string) (string, string) {
	return "", ""
}

type geoCacheItem struct {
	country string
	city    string
	expires time.Time
}

// IPWhoisResolver resolves against ipwho.is with a TTL cache. Private
// and unparsable addresses short-circuit to empty.
type IPWhoisResolver struct {
	mu    sync.Mutex
	cache map[string]geoCacheItem
	ttl   time.Duration
}

func NewIPWhoisResolver(ttl time.Duration) *IPWhoisResolver {
	return &IPWhoisResolver{
		cache: make(map[string]geoCacheItem),
		ttl:   ttl,
	}
}

func (g *IPWhoisResolver) Resolve(ip string) (string, string) {
	if ip == "" || isPrivateIP(ip) {
		return "", ""
	}

	now := time.Now()
	g.mu.Lock()
	if item, ok := g.cache[ip]; ok && now.Before(item.expires) {
		g.mu.Unlock()
		return item.country, item.city
	}
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ipwho.is/"+ip, nil)
	if err != nil {
		return "", ""
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ""
	}

	var out struct {
		Success bool   `json:"success"`
		Country string `json:"country"`
		City    string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", ""
	}
	if !out.Success {
		return "", ""
	}

	country := strings.TrimSpace(out.Country)
	city := strings.TrimSpace(out.City)

	g.mu.Lock()
	g.cache[ip] = geoCacheItem{country: country, city: city, expires: now.Add(g.ttl)}
	g.mu.Unlock()

	return country, city
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	if parsed.IsLoopback() {
		return true
	}
	if v4 := parsed.To4(); v4 != nil {
		switch {
		case v4[0] == 10:
			return true
		case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
			return true
		case v4[0] == 192 && v4[1] == 168:
			return true
		case v4[0] == 169 && v4[1] == 254:
			return true
		}
	}
	return false
}
