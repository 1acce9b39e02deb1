package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/logic"
	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// handleError 按业务错误类型映射 HTTP 状态码，未知错误记录日志并返回 500
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logic.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, logic.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, trimSentinel(err, logic.ErrValidation))
	case errors.Is(err, logic.ErrInvalidAction):
		ErrorResponse(c, http.StatusBadRequest, trimSentinel(err, logic.ErrInvalidAction))
	case errors.Is(err, logic.ErrVersionConflict):
		ErrorResponse(c, http.StatusConflict, err.Error())
	default:
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// trimSentinel 去掉错误信息中的哨兵前缀，只保留具体原因
func trimSentinel(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

// bindError 请求体解析失败
func bindError(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}
