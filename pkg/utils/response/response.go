package response

import (
	"fmt"
	"net/http"

	"scoreboard/pkg/errors"
	"scoreboard/pkg/utils/contextkey"
	"scoreboard/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope of every scoreboard endpoint.
type Response struct {
	Code    errors.ErrorCode       `json:"code"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	TraceID string                 `json:"trace_id,omitempty"`
}

func write(c *gin.Context, status int, resp Response) {
	if id := c.Request.Context().Value(contextkey.TraceID); id != nil {
		resp.TraceID = fmt.Sprint(id)
	}
	c.JSON(status, resp)
}

func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, Response{Code: errors.Success, Message: "Success", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Response{Code: errors.Success, Message: "Created", Data: data})
}

// Error answers with the code carried by err. Foreign errors become internal errors.
func Error(c *gin.Context, err error) {
	e := errors.GetError(err)
	status := e.Code.HTTPStatus()
	fields := []zap.Field{zap.Int("code", int(e.Code)), zap.String("message", e.Error())}
	if len(e.Details) > 0 {
		fields = append(fields, zap.Any("details", e.Details))
	}
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", append(fields, zap.String("stack", e.Stack()))...)
	} else {
		logger.Info(c.Request.Context(), "request rejected", fields...)
	}
	write(c, status, Response{Code: e.Code, Message: e.Error(), Details: e.Details})
}

// ErrorWithCode answers with code, using its default message when message is empty.
func ErrorWithCode(c *gin.Context, code errors.ErrorCode, message string) {
	if message == "" {
		message = code.Message()
	}
	logger.Info(c.Request.Context(), "request rejected", zap.Int("code", int(code)), zap.String("message", message))
	write(c, code.HTTPStatus(), Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, errors.InvalidParams, message)
}

func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func AbortWithErrorCode(c *gin.Context, code errors.ErrorCode, message string) {
	ErrorWithCode(c, code, message)
	c.Abort()
}
