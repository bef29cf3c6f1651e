package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/response"
	"github.com/yourname/sleeptoggle/internal/service"
)

// RequestIDMiddleware ensures every request has a correlation/request ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Next()
	}
}

// NoticeGateMiddleware blocks interaction while a health-store notice is
// showing and has not been dismissed.
func NoticeGateMiddleware(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := app.Sleep().Blocking(c.Request.Context())
		if err == nil {
			c.Next()
			return
		}
		notice := service.NoticePermissionDenied
		if errors.Is(err, internal.ErrCapabilityUnavailable) {
			notice = service.NoticeCapabilityUnavailable
		}
		app.Logger().Warnf("[request_id=%s] blocked by notice %s", c.GetString("request_id"), notice)
		status := internal.StatusFor(err)
		c.AbortWithStatusJSON(status, response.Blocked(status, notice, err.Error()))
	}
}
