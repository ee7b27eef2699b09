package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shortly-go/internal/apperrors"
	"shortly-go/internal/dto"
	"shortly-go/internal/middleware"
	"shortly-go/internal/service"
	"shortly-go/response"
)

// LinkHandler serves the programmatic link management API.
type LinkHandler struct {
	links       *service.LinkService
	stats       *service.StatsService
	maintenance *service.MaintenanceService
	qr          service.QRService
	baseURL     string
}

func NewLinkHandler(
	links *service.LinkService,
	stats *service.StatsService,
	maintenance *service.MaintenanceService,
	baseURL string,
) *LinkHandler {
	return &LinkHandler{
		links:       links,
		stats:       stats,
		maintenance: maintenance,
		baseURL:     baseURL,
	}
}

func (h *LinkHandler) shortURL(code string) string {
	return h.baseURL + "/" + code
}

// Shorten creates a link. Anonymous callers are accepted; a bearer
// credential, when present, was already resolved by the principal
// middleware.
func (h *LinkHandler) Shorten(c *gin.Context) {
	var req dto.ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Warn("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	user := middleware.CurrentUser(c)

	link, err := h.links.Create(user, req.URL, req.Alias, req.Title)
	if err != nil {
		zap.L().Warn("Link creation failed",
			zap.Error(err),
			zap.String("alias", req.Alias),
		)
		_ = c.Error(err)
		return
	}

	shortURL := h.shortURL(link.Code())
	qrCode, err := h.qr.MakeBase64(shortURL, service.DefaultQRSize)
	if err != nil {
		zap.L().Warn("QR generation failed", zap.Error(err), zap.String("short_url", shortURL))
	}

	c.JSON(http.StatusCreated, response.OK(dto.ShortenResponse{
		ShortCode:   link.ShortCode,
		ShortURL:    shortURL,
		OriginalURL: link.OriginalURL,
		QRCode:      qrCode,
	}, "Link created"))
}

// List returns a page of the caller's links.
func (h *LinkHandler) List(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	sizeStr := c.DefaultQuery("size", "10")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		_ = c.Error(apperrors.InvalidRequestError("page must be a positive integer"))
		return
	}

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 || size > 100 {
		_ = c.Error(apperrors.InvalidRequestError("size must be between 1 and 100"))
		return
	}

	pageResp, err := h.links.List(middleware.CurrentUser(c), page, size)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(pageResp, "success"))
}

// Stats returns the analytics payload for an owned link.
func (h *LinkHandler) Stats(c *gin.Context) {
	link, err := h.links.GetOwned(c.Param("code"), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	stats, err := h.stats.LinkStats(link)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(stats, "success"))
}

// History returns the rolled-up daily click history for an owned link.
func (h *LinkHandler) History(c *gin.Context) {
	link, err := h.links.GetOwned(c.Param("code"), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	history, err := h.maintenance.StatsForLink(link.ID)
	if err != nil {
		_ = c.Error(apperrors.SystemErrorDefault())
		return
	}

	c.JSON(http.StatusOK, response.OK(history, "success"))
}

// QR returns the QR payload for an owned link's short URL.
func (h *LinkHandler) QR(c *gin.Context) {
	link, err := h.links.GetOwned(c.Param("code"), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	shortURL := h.shortURL(link.Code())
	qrCode, err := h.qr.MakeBase64(shortURL, service.DefaultQRSize)
	if err != nil {
		_ = c.Error(apperrors.SystemErrorDefault())
		return
	}

	c.JSON(http.StatusOK, response.OK(dto.QRResponse{
		ShortCode: link.ShortCode,
		ShortURL:  shortURL,
		QRCode:    qrCode,
	}, "success"))
}

// UpdateStatus activates or deactivates an owned link.
func (h *LinkHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	if err := h.links.UpdateStatus(c.Param("code"), middleware.CurrentUser(c), *req.IsActive); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(struct{}{}, "Link status updated"))
}

// UpdateTargetURL repoints an owned link.
func (h *LinkHandler) UpdateTargetURL(c *gin.Context) {
	var req dto.UpdateTargetURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidRequestErrorDefault())
		return
	}

	if err := h.links.UpdateTargetURL(c.Param("code"), middleware.CurrentUser(c), req.URL); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(struct{}{}, "Link updated"))
}

// Delete removes an owned link and all of its click events.
func (h *LinkHandler) Delete(c *gin.Context) {
	if err := h.links.Delete(c.Param("code"), middleware.CurrentUser(c)); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(struct{}{}, "Link deleted"))
}

// UserStats returns the caller's account rollup.
func (h *LinkHandler) UserStats(c *gin.Context) {
	stats, err := h.stats.UserStats(middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.OK(stats, "success"))
}
