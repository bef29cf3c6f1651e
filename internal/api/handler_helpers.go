package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/response"
)

// HandleError logs err against the request id and writes the error envelope
// with status.
func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s %s: %s: %v", requestID, c.Request.Method, c.FullPath(), msg, err)

	detail := msg + ": " + err.Error()
	var resp response.APIResponse
	switch status {
	case http.StatusBadRequest:
		resp = response.BadRequest(detail)
	case http.StatusNotFound:
		resp = response.NotFound(detail)
	case http.StatusInternalServerError:
		resp = response.InternalError(detail)
	default:
		resp = response.NewAppError(status, detail)
	}
	c.JSON(status, resp)
}

// HandleDomainError is HandleError with the status taken from the error
// sentinel err wraps.
func HandleDomainError(c *gin.Context, logger internal.Logger, err error, msg string) {
	HandleError(c, logger, err, internal.StatusFor(err), msg)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	logger.Debugf("[request_id=%s] %s %s ok", c.GetString("request_id"), c.Request.Method, c.FullPath())
	c.JSON(http.StatusOK, response.Success(data, meta))
}
