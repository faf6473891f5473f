package repository

import (
	"context"
	"sync"

	"smart-pdf-chatbot/internal/model"
)

// MemoryStore 是 SessionRepository 与 ConversationRepository 的进程内实现，
// 用于 session.store 为 memory 的单实例部署和测试。进程退出后数据丢失。
type MemoryStore struct {
	mu            sync.RWMutex
	corpora       map[string]model.Corpus
	conversations map[string][]model.ChatMessage
}

// NewMemoryStore 创建一个空的 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		corpora:       make(map[string]model.Corpus),
		conversations: make(map[string][]model.ChatMessage),
	}
}

// SaveCorpus 实现 SessionRepository。
func (s *MemoryStore) SaveCorpus(_ context.Context, sessionID string, corpus model.Corpus) error {
	records := make([]model.DocumentRecord, len(corpus.Records))
	copy(records, corpus.Records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpora[sessionID] = model.Corpus{Records: records}
	return nil
}

// GetCorpus 实现 SessionRepository。
func (s *MemoryStore) GetCorpus(_ context.Context, sessionID string) (model.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.corpora[sessionID]
	if !ok {
		return model.Corpus{}, nil
	}
	records := make([]model.DocumentRecord, len(c.Records))
	copy(records, c.Records)
	return model.Corpus{Records: records}, nil
}

// Append 实现 ConversationRepository。
func (s *MemoryStore) Append(_ context.Context, sessionID string, messages ...model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[sessionID] = append(s.conversations[sessionID], messages...)
	return nil
}

// History 实现 ConversationRepository。
func (s *MemoryStore) History(_ context.Context, sessionID string) ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.conversations[sessionID]
	out := make([]model.ChatMessage, len(history))
	copy(out, history)
	return out, nil
}
