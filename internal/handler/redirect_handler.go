package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortly-go/internal/i18n"
	"shortly-go/internal/model"
	"shortly-go/internal/service"
	"shortly-go/pkg/logging"
	"shortly-go/response"
)

// RedirectHandler is the hot path: inbound code → lookup → liveness
// checks → redirect, with click recording detached from the response.
type RedirectHandler struct {
	links  *service.LinkService
	clicks *service.ClickService

	// afterRecord, when set, is called once a detached recording
	// finishes. Tests use it to observe the asynchronous write.
	afterRecord func()
}

func NewRedirectHandler(links *service.LinkService, clicks *service.ClickService) *RedirectHandler {
	return &RedirectHandler{links: links, clicks: clicks}
}

// Redirect runs the per-code state machine. Terminal states: NotFound,
// Inactive, Expired (informational pages, no click recorded), Success.
// A failed recording never alters or delays the redirect outcome.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, response.Error(i18n.T(c.Request.Context(), "link_not_found", nil)))
		return
	}

	code := strings.TrimPrefix(c.Request.URL.Path, "/")
	if code == "" || strings.Contains(code, "/") {
		c.JSON(http.StatusNotFound, response.Error(i18n.T(c.Request.Context(), "link_not_found", nil)))
		return
	}

	link, err := h.links.Lookup(code)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(i18n.T(c.Request.Context(), "link_not_found", nil)))
		return
	}

	if !link.IsActive {
		c.JSON(http.StatusOK, response.OK(gin.H{"status": "inactive"},
			i18n.T(c.Request.Context(), "link_inactive", nil)))
		return
	}

	if link.IsExpired(time.Now()) {
		c.JSON(http.StatusOK, response.OK(gin.H{"status": "expired"},
			i18n.T(c.Request.Context(), "link_expired", nil)))
		return
	}

	// ClientIP resolves the first hop of an X-Forwarded-For chain.
	rc := service.RequestContext{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, link.OriginalURL)

	// Fire-and-continue: the client never waits on the recording.
	go h.record(link, rc)
}

func (h *RedirectHandler) record(link *model.Link, rc service.RequestContext) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Error("Click recording panicked",
				zap.Uint("link_id", link.ID),
				zap.Any("panic", r),
			)
		}
	}()

	if _, err := h.clicks.Record(link, rc); err != nil {
		logging.Logger.Warn("Click recording failed",
			zap.Uint("link_id", link.ID),
			zap.Error(err),
		)
	}

	if h.afterRecord != nil {
		h.afterRecord()
	}
}
