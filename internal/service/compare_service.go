package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/internal/pipeline"
	"smart-pdf-chatbot/internal/repository"
	"smart-pdf-chatbot/pkg/events"
	"smart-pdf-chatbot/pkg/idgen"
	"smart-pdf-chatbot/pkg/kafka"
	"smart-pdf-chatbot/pkg/llm"
	"smart-pdf-chatbot/pkg/log"
	"smart-pdf-chatbot/pkg/storage"
)

const dashboardListLimit = 50

// CompareService 生成并列出文档对比报告。
type CompareService interface {
	// Compare 发送对比提示词并把回复渲染为报告，返回报告 URL。
	// prompt 为空时由会话当前的文档集合构建。
	Compare(ctx context.Context, sessionID, prompt string) (string, error)
	ListDashboards(ctx context.Context, sessionID string) ([]model.ArtifactDTO, error)
}

type compareService struct {
	llmClient    llm.Client
	sessionRepo  repository.SessionRepository
	artifactRepo repository.ArtifactRepository
	store        storage.ArtifactStore
	ids          *idgen.Generator
	producer     kafka.Producer
	now          func() time.Time
}

// NewCompareService 创建一个新的 CompareService 实例。
func NewCompareService(llmClient llm.Client, sessionRepo repository.SessionRepository, artifactRepo repository.ArtifactRepository,
	store storage.ArtifactStore, ids *idgen.Generator, producer kafka.Producer) CompareService {
	return &compareService{
		llmClient:    llmClient,
		sessionRepo:  sessionRepo,
		artifactRepo: artifactRepo,
		store:        store,
		ids:          ids,
		producer:     producer,
		now:          time.Now,
	}
}

func (s *compareService) Compare(ctx context.Context, sessionID, prompt string) (string, error) {
	documentCount := 0
	if strings.TrimSpace(prompt) == "" {
		corpus, err := s.sessionRepo.GetCorpus(ctx, sessionID)
		if err != nil {
			return "", fmt.Errorf("load session corpus: %w", err)
		}
		if prompt, err = pipeline.BuildComparisonPrompt(corpus); err != nil {
			return "", err
		}
		documentCount = corpus.UsableCount()
	}

	answer, err := s.llmClient.Ask(ctx, prompt)
	if err != nil {
		log.Errorf("[CompareService] 对比请求失败, session: %s, error: %v", sessionID, err)
		return "", err
	}

	artifact, err := pipeline.BuildComparisonArtifact(s.ids.NextString(), answer.Text, s.now())
	if err != nil {
		return "", &model.ArtifactWriteError{ID: artifact.ID, Err: err}
	}
	url, err := s.store.Write(ctx, artifact)
	if err != nil {
		return "", err
	}
	log.Infof("[CompareService] 对比报告已生成, session: %s, url: %s", sessionID, url)

	// 报告文件已经可访问，索引失败只记录日志
	index := &model.ArtifactIndex{
		ID:            artifact.ID,
		URL:           url,
		SessionID:     sessionID,
		DocumentCount: documentCount,
		SizeBytes:     len(artifact.HTMLBody),
		CreatedAt:     artifact.CreatedAt,
	}
	if err := s.artifactRepo.Create(ctx, index); err != nil {
		log.Warnf("[CompareService] 写入报告索引失败, id: %s, error: %v", artifact.ID, err)
	}
	ev := events.New(events.TypeArtifactCreated, sessionID, events.ArtifactCreated{ArtifactID: artifact.ID, URL: url})
	if err := s.producer.Publish(ctx, ev); err != nil {
		log.Warnf("[CompareService] 发送事件失败: %v", err)
	}
	return url, nil
}

func (s *compareService) ListDashboards(ctx context.Context, sessionID string) ([]model.ArtifactDTO, error) {
	items, err := s.artifactRepo.ListRecent(ctx, sessionID, dashboardListLimit)
	if err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	out := make([]model.ArtifactDTO, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToDTO())
	}
	return out, nil
}
