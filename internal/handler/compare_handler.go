package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"smart-pdf-chatbot/internal/service"
	"smart-pdf-chatbot/pkg/log"

	"github.com/gin-gonic/gin"
)

// CompareRequest 是对比接口的请求体。Prompt 为空时由会话文档构建。
type CompareRequest struct {
	Prompt string `json:"prompt"`
}

// ArtifactOpener 读取已保存的报告，用于 minio 后端。
type ArtifactOpener interface {
	Open(ctx context.Context, fileName string) (io.ReadCloser, int64, error)
}

// CompareHandler 负责对比报告的生成、列表与读取。
type CompareHandler struct {
	compareService service.CompareService
	opener         ArtifactOpener
}

// NewCompareHandler 创建一个新的 CompareHandler。opener 仅在报告不由静态目录托管时需要。
func NewCompareHandler(compareService service.CompareService, opener ArtifactOpener) *CompareHandler {
	return &CompareHandler{compareService: compareService, opener: opener}
}

// Compare 返回 {artifactUrl} 或 {error}。
func (h *CompareHandler) Compare(c *gin.Context) {
	var req CompareRequest
	// 空请求体等同于 {}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	url, err := h.compareService.Compare(c.Request.Context(), sessionID(c), req.Prompt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifactUrl": url})
}

// ListDashboards 返回会话最近生成的报告。
func (h *CompareHandler) ListDashboards(c *gin.Context) {
	items, err := h.compareService.ListDashboards(c.Request.Context(), sessionID(c))
	if err != nil {
		log.Errorf("ListDashboards: %v", err)
		writeError(c, err)
		return
	}
	success(c, items)
}

// ServeDashboard 从对象存储读取报告并原样返回。
func (h *CompareHandler) ServeDashboard(c *gin.Context) {
	rc, size, err := h.opener.Open(c.Request.Context(), c.Param("file"))
	if err != nil {
		log.Warnf("ServeDashboard: 读取报告失败, file: %s, error: %v", c.Param("file"), err)
		c.Status(http.StatusNotFound)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, size, "text/html; charset=utf-8", rc, nil)
}
