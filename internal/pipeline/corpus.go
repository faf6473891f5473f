// Package pipeline 定义了文档集合的构建、提示词组装与对比报告渲染流程。
package pipeline

import (
	"context"
	"errors"
	"strings"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/pkg/idgen"
	"smart-pdf-chatbot/pkg/log"

	"golang.org/x/sync/errgroup"
)

// DocumentSeparator 分隔合并文本中的相邻文档，便于模型识别文档边界。
const DocumentSeparator = "\n\n=== DOCUMENT BOUNDARY ===\n\n"

// UploadFile 是上传批次中的一个命名字节块。
type UploadFile struct {
	Name string
	Data []byte
}

// Ingestor 负责把一个上传批次转换为 Corpus。
type Ingestor struct {
	extractor   Extractor
	ids         *idgen.Generator
	concurrency int
}

// NewIngestor 创建一个新的 Ingestor 实例。concurrency <= 0 时串行提取。
func NewIngestor(extractor Extractor, ids *idgen.Generator, concurrency int) *Ingestor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Ingestor{extractor: extractor, ids: ids, concurrency: concurrency}
}

// Ingest 为每个文件调用 Extractor。单个文件失败只记录在对应记录上，其余文件继续处理；
// 全部失败时同时返回 Corpus 与 *model.BatchExtractionError。
func (i *Ingestor) Ingest(ctx context.Context, files []UploadFile) (model.Corpus, error) {
	if len(files) == 0 {
		return model.Corpus{}, model.MissingInput("upload batch")
	}
	log.Infof("[Ingestor] 开始处理上传批次, 文件数: %d", len(files))

	// storageId 按上传顺序预先分配，保证与记录顺序一致。
	records := make([]model.DocumentRecord, len(files))
	storageIDs := make([]string, len(files))
	for idx, f := range files {
		storageIDs[idx] = i.ids.StorageID(f.Name)
	}

	var g errgroup.Group
	g.SetLimit(i.concurrency)
	for idx, f := range files {
		idx, f := idx, f
		g.Go(func() error {
			text, err := i.extractor.Extract(ctx, f.Name, f.Data)
			if err != nil {
				records[idx] = model.NewFailedRecord(f.Name, storageIDs[idx], extractionMessage(err))
				return nil
			}
			records[idx] = model.NewExtractedRecord(f.Name, storageIDs[idx], text)
			return nil
		})
	}
	_ = g.Wait()

	corpus := model.Corpus{Records: records}
	if corpus.UsableCount() == 0 {
		failures := make([]model.ExtractionError, 0, len(records))
		for _, r := range records {
			failures = append(failures, model.ExtractionError{FileName: r.DisplayName, Message: *r.ExtractionError})
		}
		log.Warnf("[Ingestor] 批次内所有文件提取失败, 文件数: %d", len(files))
		return corpus, &model.BatchExtractionError{Failures: failures}
	}
	log.Infof("[Ingestor] 批次处理完成, 成功: %d, 失败: %d", corpus.UsableCount(), corpus.Len()-corpus.UsableCount())
	return corpus, nil
}

// extractionMessage 取出面向用户的单文件失败原因。
func extractionMessage(err error) string {
	var ee *model.ExtractionError
	if errors.As(err, &ee) {
		return ee.Message
	}
	return err.Error()
}

// Materialize 按 Corpus 顺序拼接所有可用文本，文档之间插入 DocumentSeparator。
func Materialize(corpus model.Corpus) string {
	usable := corpus.Usable()
	texts := make([]string, 0, len(usable))
	for _, r := range usable {
		texts = append(texts, *r.Text)
	}
	return strings.Join(texts, DocumentSeparator)
}
