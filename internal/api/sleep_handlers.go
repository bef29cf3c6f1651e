package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/service"
)

func GetStatus(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), app.Sleep().Status(c.Request.Context()), nil)
	}
}

func PostToggle(app App, kind internal.IntervalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := app.Sleep().Toggle(c.Request.Context(), kind)
		if err != nil && res == nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Toggle failed")
			return
		}
		var meta map[string]any
		if err != nil {
			// The toggle happened but did not reach durable storage.
			app.Logger().Errorf("[request_id=%s] %v", c.GetString("request_id"), err)
			meta = map[string]any{"persisted": false, "warning": err.Error()}
		}
		HandleSuccess(c, app.Logger(), res, meta)
	}
}

func GetReviews(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), app.Sleep().PendingReviews(), nil)
	}
}

func PostReviewDecision(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.ReviewDecision
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := service.ValidateDecision(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		sample, err := app.Sleep().Decide(c.Request.Context(), c.Param("id"), &body)
		if err != nil {
			HandleDomainError(c, app.Logger(), err, "Review failed")
			return
		}
		if sample == nil {
			HandleSuccess(c, app.Logger(), nil, map[string]any{"action": service.ActionDiscard})
			return
		}
		HandleSuccess(c, app.Logger(), sample, map[string]any{"action": service.ActionSubmit})
	}
}

func GetSamples(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		samples, err := app.Sleep().ListSamples(c.Request.Context())
		if err != nil {
			HandleDomainError(c, app.Logger(), err, "Failed to fetch samples")
			return
		}
		HandleSuccess(c, app.Logger(), samples, map[string]any{"count": len(samples)})
	}
}
