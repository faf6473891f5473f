package repository

import (
	"context"
	"sync"

	"smart-pdf-chatbot/internal/model"

	"gorm.io/gorm"
)

// ArtifactRepository 记录已生成的对比报告元数据。
type ArtifactRepository interface {
	Create(ctx context.Context, index *model.ArtifactIndex) error
	// ListRecent 返回会话最近生成的报告，按创建时间倒序。
	ListRecent(ctx context.Context, sessionID string, limit int) ([]model.ArtifactIndex, error)
}

type artifactRepository struct {
	db *gorm.DB
}

// NewArtifactRepository 创建一个基于 gorm 的 ArtifactRepository。
func NewArtifactRepository(db *gorm.DB) ArtifactRepository {
	return &artifactRepository{db: db}
}

func (r *artifactRepository) Create(ctx context.Context, index *model.ArtifactIndex) error {
	return r.db.WithContext(ctx).Create(index).Error
}

func (r *artifactRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]model.ArtifactIndex, error) {
	var items []model.ArtifactIndex
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// memoryArtifactRepository 在未配置 MySQL 时使用。
type memoryArtifactRepository struct {
	mu    sync.RWMutex
	items []model.ArtifactIndex
}

// NewMemoryArtifactRepository 创建进程内的 ArtifactRepository。
func NewMemoryArtifactRepository() ArtifactRepository {
	return &memoryArtifactRepository{}
}

func (r *memoryArtifactRepository) Create(_ context.Context, index *model.ArtifactIndex) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *index)
	return nil
}

func (r *memoryArtifactRepository) ListRecent(_ context.Context, sessionID string, limit int) ([]model.ArtifactIndex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.ArtifactIndex
	for i := len(r.items) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if r.items[i].SessionID == sessionID {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}
