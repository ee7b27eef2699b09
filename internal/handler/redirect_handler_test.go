package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shortly-go/internal/model"
	"shortly-go/internal/plan"
	"shortly-go/internal/service"
)

type redirectFixture struct {
	db      *gorm.DB
	links   *service.LinkService
	handler *RedirectHandler
	router  *gin.Engine
	done    chan struct{}
}

func newRedirectFixture(t *testing.T) *redirectFixture {
	t.Helper()
	db := newTestDB(t)
	links := service.NewLinkService(db, nil, service.DefaultCodeLength)
	clicks := service.NewClickService(db, nil, links, nil)

	h := NewRedirectHandler(links, clicks)
	done := make(chan struct{}, 8)
	h.afterRecord = func() { done <- struct{}{} }

	r := gin.New()
	r.NoRoute(h.Redirect)

	return &redirectFixture{db: db, links: links, handler: h, router: r, done: done}
}

func (f *redirectFixture) get(path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *redirectFixture) waitRecorded(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("click recording did not finish in time")
	}
}

func TestRedirectSuccess(t *testing.T) {
	f := newRedirectFixture(t)

	link, err := f.links.Create(nil, "https://example.com/landing", "", "")
	require.NoError(t, err)

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14) Chrome/120.0 Mobile Safari/537.36")
	header.Set("Referer", "https://news.example.org/feed")

	w := f.get("/"+link.ShortCode, header)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/landing", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-cache")

	f.waitRecorded(t)

	var stored model.Link
	require.NoError(t, f.db.First(&stored, link.ID).Error)
	assert.EqualValues(t, 1, stored.ClicksCount)

	var events []model.ClickEvent
	require.NoError(t, f.db.Where("link_id = ?", link.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, service.DeviceMobile, events[0].DeviceType)
	assert.Equal(t, "Chrome", events[0].Browser)
	assert.Equal(t, "https://news.example.org/feed", events[0].Referrer)
}

func TestRedirectUnknownCode(t *testing.T) {
	f := newRedirectFixture(t)

	w := f.get("/nope123", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestRedirectInactiveLink(t *testing.T) {
	f := newRedirectFixture(t)

	link, err := f.links.Create(nil, "https://example.com", "", "")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(link).Update("is_active", false).Error)

	w := f.get("/"+link.ShortCode, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, _ := body["data"].(map[string]any)
	assert.Equal(t, "inactive", data["status"])

	var events int64
	require.NoError(t, f.db.Model(&model.ClickEvent{}).Where("link_id = ?", link.ID).Count(&events).Error)
	assert.Zero(t, events, "inactive hits are not recorded")
}

func TestRedirectExpiredLink(t *testing.T) {
	f := newRedirectFixture(t)

	link, err := f.links.Create(nil, "https://example.com", "", "")
	require.NoError(t, err)
	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, f.db.Model(link).Update("expires_at", yesterday).Error)

	w := f.get("/"+link.ShortCode, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, _ := body["data"].(map[string]any)
	assert.Equal(t, "expired", data["status"])

	var stored model.Link
	require.NoError(t, f.db.First(&stored, link.ID).Error)
	assert.Zero(t, stored.ClicksCount, "expired hits do not count")
}

func TestRedirectRejectsNestedPath(t *testing.T) {
	f := newRedirectFixture(t)

	w := f.get("/a/b", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirectByCustomAlias(t *testing.T) {
	f := newRedirectFixture(t)

	pro := newTestUser(t, f.db, "pro-user", plan.TierPro)
	link, err := f.links.Create(pro, "https://example.com/page", "promo", "")
	require.NoError(t, err)
	assert.Equal(t, "promo", link.Code())

	w := f.get("/promo", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/page", w.Header().Get("Location"))

	f.waitRecorded(t)

	var stored model.Link
	require.NoError(t, f.db.First(&stored, link.ID).Error)
	assert.EqualValues(t, 1, stored.ClicksCount)
}
