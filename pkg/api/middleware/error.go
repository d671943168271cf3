package middleware

import (
	"net/http"

	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/models"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic in handler", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Detail: "internal server error",
		})
	})
}
