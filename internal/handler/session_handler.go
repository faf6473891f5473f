package handler

import (
	"net/http"

	"smart-pdf-chatbot/internal/service"
	"smart-pdf-chatbot/pkg/log"

	"github.com/gin-gonic/gin"
)

// SessionHandler 负责会话的创建与文档集合查询。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Create 新建会话并返回 {sessionId, token}。
func (h *SessionHandler) Create(c *gin.Context) {
	sess, err := h.sessionService.Create()
	if err != nil {
		log.Error("Create: failed to create session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// ListDocuments 返回当前会话的文档记录（不含正文以外的派生数据）。
func (h *SessionHandler) ListDocuments(c *gin.Context) {
	corpus, err := h.sessionService.Corpus(c.Request.Context(), sessionID(c))
	if err != nil {
		log.Errorf("ListDocuments: failed to load corpus: %v", err)
		writeError(c, err)
		return
	}
	success(c, corpus.Records)
}
