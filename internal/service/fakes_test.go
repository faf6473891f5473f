package service

import (
	"context"
	"sync"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/pkg/events"
	"smart-pdf-chatbot/pkg/llm"
)

// fakeLLM 记录收到的提示词并按顺序返回预设回复。
type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeLLM) Ask(_ context.Context, prompt string) (llm.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return llm.Answer{}, f.err
	}
	return llm.Answer{Text: f.reply}, nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type recordingProducer struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingProducer) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

type fakeExtractor struct{}

// Extract 把内容当作文本；"BAD" 开头视为坏文件。
func (fakeExtractor) Extract(_ context.Context, name string, data []byte) (string, error) {
	if len(data) >= 3 && string(data[:3]) == "BAD" {
		return "", &model.ExtractionError{FileName: name, Message: "not a PDF document"}
	}
	return string(data), nil
}

type memoryArtifactStore struct {
	written []model.ComparisonArtifact
	err     error
}

func (s *memoryArtifactStore) Write(_ context.Context, a model.ComparisonArtifact) (string, error) {
	if s.err != nil {
		return "", &model.ArtifactWriteError{ID: a.ID, Err: s.err}
	}
	s.written = append(s.written, a)
	return "/dashboards/" + a.FileName(), nil
}

type failingArtifactRepo struct{}

func (failingArtifactRepo) Create(context.Context, *model.ArtifactIndex) error {
	return context.DeadlineExceeded
}

func (failingArtifactRepo) ListRecent(context.Context, string, int) ([]model.ArtifactIndex, error) {
	return nil, nil
}
