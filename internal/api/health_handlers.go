package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthorizationRequest struct {
	Share *bool `json:"share" binding:"required"`
}

func GetAuthorization(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := app.Sleep().AuthorizationStatus(c.Request.Context())
		HandleSuccess(c, app.Logger(), gin.H{"status": status}, nil)
	}
}

func PostAuthorization(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body AuthorizationRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid request: share required")
			return
		}
		status, err := app.Sleep().RequestAuthorization(c.Request.Context(), *body.Share)
		if err != nil {
			HandleDomainError(c, app.Logger(), err, "Authorization failed")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"status": status}, nil)
	}
}

func PostDismissNotice(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		app.Sleep().DismissNotice()
		HandleSuccess(c, app.Logger(), app.Sleep().Status(c.Request.Context()), nil)
	}
}

func PostResume(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		app.Sleep().Resume(c.Request.Context())
		HandleSuccess(c, app.Logger(), app.Sleep().Status(c.Request.Context()), nil)
	}
}
