package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	thirdPartyI18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"shortly-go/internal/i18n"
)

// I18nMiddleware picks a localizer from Accept-Language. Exact tag
// matches win; otherwise the base language is tried ("zh-CN" falls back
// to "zh"), then the default.
func I18nMiddleware(bundle *thirdPartyI18n.Bundle) gin.HandlerFunc {
	return func(c *gin.Context) {
		tags, _, _ := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
		lang := "en"
		for _, tag := range tags {
			if slices.Contains(i18n.SupportedLanguages, tag.String()) {
				lang = tag.String()
				break
			}
			if base, conf := tag.Base(); conf != language.No && slices.Contains(i18n.SupportedLanguages, base.String()) {
				lang = base.String()
				break
			}
		}

		localizer := thirdPartyI18n.NewLocalizer(bundle, lang)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), "i18n.Localizer", localizer))
		c.Next()
	}
}
