// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/internal/pipeline"
	"smart-pdf-chatbot/internal/repository"
	"smart-pdf-chatbot/pkg/llm"
	"smart-pdf-chatbot/pkg/log"
)

// ChatService 定义了摘要与问答操作的接口。
type ChatService interface {
	// Summarize 为合并文本生成摘要，并把结果（或失败原因）作为 bot 消息追加到聊天记录。
	Summarize(ctx context.Context, sessionID, combinedText string) (string, error)
	// Ask 回答问题。corpusText 为空时使用会话当前文档集合的合并文本。
	Ask(ctx context.Context, sessionID, question, corpusText string) (string, error)
}

type chatService struct {
	llmClient        llm.Client
	sessionRepo      repository.SessionRepository
	conversationRepo repository.ConversationRepository
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(llmClient llm.Client, sessionRepo repository.SessionRepository, conversationRepo repository.ConversationRepository) ChatService {
	return &chatService{
		llmClient:        llmClient,
		sessionRepo:      sessionRepo,
		conversationRepo: conversationRepo,
	}
}

func (s *chatService) Summarize(ctx context.Context, sessionID, combinedText string) (string, error) {
	if strings.TrimSpace(combinedText) == "" {
		return "", model.MissingInput("document text")
	}
	answer, err := s.llmClient.Ask(ctx, pipeline.BuildSummaryPrompt(combinedText))
	if err != nil {
		log.Errorf("[ChatService] 生成摘要失败, session: %s, error: %v", sessionID, err)
		s.appendMessages(ctx, sessionID, model.NewBotMessage(err.Error()))
		return "", err
	}
	s.appendMessages(ctx, sessionID, model.NewBotMessage(answer.Text))
	return answer.Text, nil
}

func (s *chatService) Ask(ctx context.Context, sessionID, question, corpusText string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", model.MissingInput("question")
	}
	if corpusText == "" {
		corpus, err := s.sessionRepo.GetCorpus(ctx, sessionID)
		if err != nil {
			return "", fmt.Errorf("load session corpus: %w", err)
		}
		corpusText = pipeline.Materialize(corpus)
	}
	prompt, err := pipeline.BuildAnswerPrompt(question, corpusText)
	if err != nil {
		return "", err
	}

	s.appendMessages(ctx, sessionID, model.NewUserMessage(question))
	answer, err := s.llmClient.Ask(ctx, prompt)
	if err != nil {
		log.Errorf("[ChatService] 问答失败, session: %s, error: %v", sessionID, err)
		s.appendMessages(ctx, sessionID, model.NewBotMessage(err.Error()))
		return "", err
	}
	// 回答原样写入聊天记录，不做任何转换
	s.appendMessages(ctx, sessionID, model.NewBotMessage(answer.Text))
	return answer.Text, nil
}

// appendMessages 写聊天记录失败只记日志，不影响已经拿到的回答。
func (s *chatService) appendMessages(ctx context.Context, sessionID string, messages ...model.ChatMessage) {
	if err := s.conversationRepo.Append(context.WithoutCancel(ctx), sessionID, messages...); err != nil {
		log.Errorf("[ChatService] 保存聊天记录失败, session: %s, error: %v", sessionID, err)
	}
}
