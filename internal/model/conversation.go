package model

import "time"

// 会话消息的角色。
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ChatMessage 代表会话聊天记录中的单条消息，只追加不修改。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "bot"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage 构造一条用户消息。
func NewUserMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleUser, Text: text, Timestamp: time.Now()}
}

// NewBotMessage 构造一条机器人消息。
func NewBotMessage(text string) ChatMessage {
	return ChatMessage{Role: RoleBot, Text: text, Timestamp: time.Now()}
}
