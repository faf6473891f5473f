package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"smart-pdf-chatbot/internal/service"
	"smart-pdf-chatbot/pkg/log"
	"smart-pdf-chatbot/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// ChatRequest 是问答接口的请求体。CorpusText 为空时使用会话当前文档。
type ChatRequest struct {
	Question   string `json:"question"`
	CorpusText string `json:"corpusText"`
}

// ChatHandler 负责 HTTP 与 WebSocket 两种问答入口。
type ChatHandler struct {
	chatService service.ChatService
	jwtManager  *token.JWTManager
	limiter     func(sessionID string) *rate.Limiter
}

// NewChatHandler 创建一个新的 ChatHandler。limiter 为 nil 时 WebSocket 消息不限流。
func NewChatHandler(chatService service.ChatService, jwtManager *token.JWTManager, limiter func(sessionID string) *rate.Limiter) *ChatHandler {
	return &ChatHandler{chatService: chatService, jwtManager: jwtManager, limiter: limiter}
}

// Chat 返回 {answer} 或 {error}。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	answer, err := h.chatService.Ask(c.Request.Context(), sessionID(c), req.Question, req.CorpusText)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Handle 处理一个传入的 WebSocket 连接。每条消息是 ChatRequest JSON 或纯文本问题，
// 每个回复是 {"answer": ...} 或 {"error": ...}。
func (h *ChatHandler) Handle(c *gin.Context) {
	claims, err := h.jwtManager.VerifyToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	sid := claims.SessionID
	log.Infof("WebSocket 连接已建立，会话: %s", sid)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			break
		}

		req := parseChatMessage(message)
		if h.limiter != nil && !h.limiter(sid).Allow() {
			h.writeJSON(conn, gin.H{"error": "请求过于频繁，请稍后重试"})
			continue
		}
		answer, err := h.chatService.Ask(c.Request.Context(), sid, req.Question, req.CorpusText)
		if err != nil {
			h.writeJSON(conn, gin.H{"error": err.Error()})
			continue
		}
		h.writeJSON(conn, gin.H{"answer": answer})
	}
}

func (h *ChatHandler) writeJSON(conn *websocket.Conn, v interface{}) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	b, _ := json.Marshal(v)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("写入 WebSocket 消息失败: %v", err)
	}
}

// parseChatMessage 兼容 JSON 请求与纯文本问题。
func parseChatMessage(message []byte) ChatRequest {
	trimmed := strings.TrimSpace(string(message))
	if strings.HasPrefix(trimmed, "{") {
		var req ChatRequest
		if err := json.Unmarshal([]byte(trimmed), &req); err == nil {
			return req
		}
	}
	return ChatRequest{Question: string(message)}
}
