// Package model 定义了文档、会话消息与对比报告等核心数据结构。
package model

// DocumentRecord 对应上传批次中的单个文件。
// Text 与 ExtractionError 互斥：提取完成后恰好有一个非空。
type DocumentRecord struct {
	DisplayName     string  `json:"displayName"`
	StorageID       string  `json:"storageId"`
	Text            *string `json:"text,omitempty"`
	ExtractionError *string `json:"extractionError,omitempty"`
}

// NewExtractedRecord 创建一个提取成功的记录。
func NewExtractedRecord(displayName, storageID, text string) DocumentRecord {
	return DocumentRecord{DisplayName: displayName, StorageID: storageID, Text: &text}
}

// NewFailedRecord 创建一个提取失败的记录。
func NewFailedRecord(displayName, storageID, message string) DocumentRecord {
	return DocumentRecord{DisplayName: displayName, StorageID: storageID, ExtractionError: &message}
}

// Usable 表示该记录是否带有可用文本。
func (r DocumentRecord) Usable() bool {
	return r.Text != nil
}

// Corpus 是当前会话的文档集合，顺序即上传顺序。
// 每次新上传整体替换，不做增量合并。
type Corpus struct {
	Records []DocumentRecord `json:"records"`
}

// Len 返回记录总数（包括提取失败的记录）。
func (c Corpus) Len() int {
	return len(c.Records)
}

// Usable 按原顺序返回带文本的记录。
func (c Corpus) Usable() []DocumentRecord {
	out := make([]DocumentRecord, 0, len(c.Records))
	for _, r := range c.Records {
		if r.Usable() {
			out = append(out, r)
		}
	}
	return out
}

// UsableCount 返回带文本的记录数。
func (c Corpus) UsableCount() int {
	n := 0
	for _, r := range c.Records {
		if r.Usable() {
			n++
		}
	}
	return n
}
