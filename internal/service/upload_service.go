package service

import (
	"context"
	"errors"
	"fmt"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/internal/pipeline"
	"smart-pdf-chatbot/internal/repository"
	"smart-pdf-chatbot/pkg/events"
	"smart-pdf-chatbot/pkg/kafka"
	"smart-pdf-chatbot/pkg/log"
	"smart-pdf-chatbot/pkg/storage"
)

// UploadResult 是一次上传的处理结果。摘要失败不影响文档集合本身。
type UploadResult struct {
	Records      []model.DocumentRecord `json:"records"`
	Summary      string                 `json:"summary,omitempty"`
	SummaryError string                 `json:"summaryError,omitempty"`
}

// UploadService 定义了上传批次的处理接口。
type UploadService interface {
	Upload(ctx context.Context, sessionID string, files []pipeline.UploadFile) (UploadResult, error)
	// Resummarize 对会话当前的文档集合重新生成摘要。
	Resummarize(ctx context.Context, sessionID string) (string, error)
}

type uploadService struct {
	ingestor    *pipeline.Ingestor
	sessionRepo repository.SessionRepository
	chat        ChatService
	retainer    storage.UploadRetainer
	producer    kafka.Producer
}

// NewUploadService 创建一个新的 UploadService 实例。retainer 为 nil 时不保存原始文件。
func NewUploadService(ingestor *pipeline.Ingestor, sessionRepo repository.SessionRepository, chat ChatService,
	retainer storage.UploadRetainer, producer kafka.Producer) UploadService {
	return &uploadService{
		ingestor:    ingestor,
		sessionRepo: sessionRepo,
		chat:        chat,
		retainer:    retainer,
		producer:    producer,
	}
}

// Upload 处理一个上传批次：提取文本，替换会话文档集合，然后生成摘要。
// 批次内全部文件失败时返回记录与 *model.BatchExtractionError，会话原有集合保持不变。
func (s *uploadService) Upload(ctx context.Context, sessionID string, files []pipeline.UploadFile) (UploadResult, error) {
	corpus, err := s.ingestor.Ingest(ctx, files)
	if err != nil {
		var batchErr *model.BatchExtractionError
		if errors.As(err, &batchErr) {
			s.publish(ctx, sessionID, corpus)
		}
		return UploadResult{Records: corpus.Records}, err
	}

	if s.retainer != nil {
		s.retain(ctx, corpus, files)
	}
	if err := s.sessionRepo.SaveCorpus(ctx, sessionID, corpus); err != nil {
		return UploadResult{}, fmt.Errorf("save session corpus: %w", err)
	}
	s.publish(ctx, sessionID, corpus)

	result := UploadResult{Records: corpus.Records}
	summary, err := s.chat.Summarize(ctx, sessionID, pipeline.Materialize(corpus))
	if err != nil {
		result.SummaryError = err.Error()
		return result, nil
	}
	result.Summary = summary
	return result, nil
}

func (s *uploadService) Resummarize(ctx context.Context, sessionID string) (string, error) {
	corpus, err := s.sessionRepo.GetCorpus(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session corpus: %w", err)
	}
	return s.chat.Summarize(ctx, sessionID, pipeline.Materialize(corpus))
}

// retain 只保存提取成功的文件；失败仅记录日志。
func (s *uploadService) retain(ctx context.Context, corpus model.Corpus, files []pipeline.UploadFile) {
	for i, r := range corpus.Records {
		if !r.Usable() {
			continue
		}
		if err := s.retainer.Retain(ctx, r.StorageID, files[i].Data); err != nil {
			log.Warnf("[UploadService] 保存原始文件失败, storageId: %s, error: %v", r.StorageID, err)
		}
	}
}

func (s *uploadService) publish(ctx context.Context, sessionID string, corpus model.Corpus) {
	payload := events.CorpusIngested{Documents: corpus.Len(), Usable: corpus.UsableCount()}
	for _, r := range corpus.Records {
		if !r.Usable() {
			payload.Failed = append(payload.Failed, r.DisplayName)
		}
	}
	if err := s.producer.Publish(ctx, events.New(events.TypeCorpusIngested, sessionID, payload)); err != nil {
		log.Warnf("[UploadService] 发送事件失败: %v", err)
	}
}
