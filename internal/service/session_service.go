package service

import (
	"context"
	"fmt"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/internal/repository"
	"smart-pdf-chatbot/pkg/log"
	"smart-pdf-chatbot/pkg/token"

	"github.com/google/uuid"
)

// Session 是新建会话返回给前端的凭据。
type Session struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

// SessionService 负责会话的创建与当前文档集合的读取。
type SessionService interface {
	Create() (Session, error)
	Corpus(ctx context.Context, sessionID string) (model.Corpus, error)
}

type sessionService struct {
	jwtManager  *token.JWTManager
	sessionRepo repository.SessionRepository
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(jwtManager *token.JWTManager, sessionRepo repository.SessionRepository) SessionService {
	return &sessionService{jwtManager: jwtManager, sessionRepo: sessionRepo}
}

func (s *sessionService) Create() (Session, error) {
	id := uuid.NewString()
	tok, err := s.jwtManager.GenerateToken(id)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	log.Infof("[SessionService] 新建会话: %s", id)
	return Session{SessionID: id, Token: tok}, nil
}

func (s *sessionService) Corpus(ctx context.Context, sessionID string) (model.Corpus, error) {
	return s.sessionRepo.GetCorpus(ctx, sessionID)
}
