// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/pkg/llm"

	"github.com/gin-gonic/gin"
)

// statusFor 把领域错误映射为 HTTP 状态码。
func statusFor(err error) int {
	var batchErr *model.BatchExtractionError
	var writeErr *model.ArtifactWriteError
	switch {
	case errors.Is(err, model.ErrMissingInput):
		return http.StatusBadRequest
	case errors.As(err, &batchErr):
		return http.StatusUnprocessableEntity
	case llm.IsTransport(err), llm.IsMalformed(err):
		return http.StatusBadGateway
	case errors.As(err, &writeErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError 以 {"error": "..."} 的形式返回错误。
func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// sessionID 读取 SessionAuth 中间件写入的会话 ID。
func sessionID(c *gin.Context) string {
	return c.GetString("sessionID")
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    data,
	})
}
