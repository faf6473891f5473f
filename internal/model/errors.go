package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput 表示问题、提示词或文档集合为空，在任何网络调用之前被拒绝。
var ErrMissingInput = errors.New("missing input")

// ErrInsufficientDocuments 表示可用于对比的文档少于两份。
var ErrInsufficientDocuments = fmt.Errorf("%w: comparison needs at least two readable documents", ErrMissingInput)

// MissingInput 返回带字段说明的 ErrMissingInput。
func MissingInput(what string) error {
	return fmt.Errorf("%w: %s is empty", ErrMissingInput, what)
}

// ExtractionError 是单个文件的文本提取失败，不影响同批次其他文件。
type ExtractionError struct {
	FileName string
	Message  string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s", e.FileName, e.Message)
}

// BatchExtractionError 表示批次内所有文件都提取失败。
type BatchExtractionError struct {
	Failures []ExtractionError
}

func (e *BatchExtractionError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return "no document could be read: " + strings.Join(parts, "; ")
}

// ArtifactWriteError 表示对比报告持久化失败，此时不返回任何报告链接。
type ArtifactWriteError struct {
	ID  string
	Err error
}

func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("failed to write comparison artifact %s: %v", e.ID, e.Err)
}

func (e *ArtifactWriteError) Unwrap() error {
	return e.Err
}
