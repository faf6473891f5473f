// Package events 定义了发送到 Kafka 的领域事件。
package events

import "time"

// 事件类型。
const (
	TypeCorpusIngested  = "corpus.ingested"
	TypeArtifactCreated = "artifact.created"
)

// Event 是一条领域事件，Payload 为 CorpusIngested 或 ArtifactCreated。
type Event struct {
	Type       string      `json:"type"`
	SessionID  string      `json:"sessionId,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// CorpusIngested 在一批文件处理完成后发出。
type CorpusIngested struct {
	Documents int      `json:"documents"`
	Usable    int      `json:"usable"`
	Failed    []string `json:"failed,omitempty"`
}

// ArtifactCreated 在对比报告写入后发出。
type ArtifactCreated struct {
	ArtifactID string `json:"artifactId"`
	URL        string `json:"url"`
}

// New 构造一条事件。
func New(eventType, sessionID string, payload interface{}) Event {
	return Event{Type: eventType, SessionID: sessionID, OccurredAt: time.Now(), Payload: payload}
}
