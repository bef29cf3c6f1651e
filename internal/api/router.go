package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/metrics"
)

// NewRouter wires every route. auth guards everything except /metrics.
func NewRouter(app App, auth gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware())

	r.GET("/metrics", gin.WrapH(metrics.HTTPHandler(app.Metrics().Registry())))

	protected := r.Group("/", auth)
	protected.GET("/status", GetStatus(app))
	protected.GET("/reviews", GetReviews(app))
	protected.GET("/samples", GetSamples(app))
	protected.GET("/health/authorization", GetAuthorization(app))
	protected.POST("/health/authorization", PostAuthorization(app))
	protected.POST("/notice/dismiss", PostDismissNotice(app))
	protected.POST("/resume", PostResume(app))

	gated := protected.Group("/", NoticeGateMiddleware(app))
	gated.POST("/bed/toggle", PostToggle(app, internal.KindInBed))
	gated.POST("/sleep/toggle", PostToggle(app, internal.KindAsleep))
	gated.POST("/reviews/:id", PostReviewDecision(app))

	return r
}
