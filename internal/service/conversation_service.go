package service

import (
	"context"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/internal/repository"
)

// ConversationService 定义了聊天记录的读取接口。
type ConversationService interface {
	GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// GetConversationHistory 按对话顺序返回会话的全部消息。
func (s *conversationService) GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.repo.History(ctx, sessionID)
}
