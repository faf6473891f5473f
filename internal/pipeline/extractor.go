package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/pkg/log"
)

var pdfMagic = []byte("%PDF-")

// Extractor 把单个文件的原始字节转换为纯文本，失败时返回 *model.ExtractionError。
type Extractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (string, error)
}

// TextExtractor 是外部文本提取服务（Tika）的最小接口。
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, fileName string) (string, error)
}

// PDFExtractor 先校验 PDF 文件头，再交给 Tika 提取文本。
type PDFExtractor struct {
	backend TextExtractor
}

// NewPDFExtractor 创建一个新的 PDFExtractor 实例。
func NewPDFExtractor(backend TextExtractor) *PDFExtractor {
	return &PDFExtractor{backend: backend}
}

// Extract 实现 Extractor。
func (e *PDFExtractor) Extract(ctx context.Context, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &model.ExtractionError{FileName: fileName, Message: "file is empty"}
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), pdfMagic) {
		return "", &model.ExtractionError{FileName: fileName, Message: "not a PDF document"}
	}

	text, err := e.backend.ExtractText(ctx, bytes.NewReader(data), fileName)
	if err != nil {
		log.Errorf("[Extractor] 使用Tika提取文本失败, FileName: %s, Error: %v", fileName, err)
		return "", &model.ExtractionError{FileName: fileName, Message: "text extraction failed: " + err.Error()}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &model.ExtractionError{FileName: fileName, Message: "no extractable text (scanned or empty PDF)"}
	}
	log.Infof("[Extractor] 文本提取成功, FileName: %s, 内容长度: %d 字符", fileName, utf8.RuneCountInString(text))
	return text, nil
}
