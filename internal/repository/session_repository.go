package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smart-pdf-chatbot/internal/model"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 保存每个会话当前的文档集合。
// 一次新的上传会整体替换旧的集合。
type SessionRepository interface {
	SaveCorpus(ctx context.Context, sessionID string, corpus model.Corpus) error
	// GetCorpus 在会话尚未上传任何文档时返回空集合。
	GetCorpus(ctx context.Context, sessionID string) (model.Corpus, error)
}

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewSessionRepository 创建一个基于 Redis 的 SessionRepository。
func NewSessionRepository(redisClient *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl}
}

func corpusKey(sessionID string) string {
	return fmt.Sprintf("session:%s:corpus", sessionID)
}

func (r *redisSessionRepository) SaveCorpus(ctx context.Context, sessionID string, corpus model.Corpus) error {
	data, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}
	if err := r.redisClient.Set(ctx, corpusKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save corpus: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) GetCorpus(ctx context.Context, sessionID string) (model.Corpus, error) {
	data, err := r.redisClient.Get(ctx, corpusKey(sessionID)).Bytes()
	if err == redis.Nil {
		return model.Corpus{}, nil
	}
	if err != nil {
		return model.Corpus{}, fmt.Errorf("failed to get corpus: %w", err)
	}
	var corpus model.Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return model.Corpus{}, fmt.Errorf("failed to unmarshal corpus: %w", err)
	}
	return corpus, nil
}
