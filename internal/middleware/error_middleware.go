package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortly-go/internal/apperrors"
	"shortly-go/internal/i18n"
	"shortly-go/response"
)

// GlobalErrorMiddleware translates AppErrors pushed onto the gin error
// stack into the JSON envelope, localizing message keys on the way out.
func GlobalErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				var appErr *apperrors.AppError
				if errors.As(err.Err, &appErr) {
					localized := &apperrors.AppError{
						Code:    appErr.Code,
						Message: i18n.T(c.Request.Context(), appErr.Message, nil),
					}
					c.AbortWithStatusJSON(appErr.Code, response.ErrorFromAppError(localized))
					return
				}
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error("Internal server error"))
			return
		}
	}
}
