package service

import (
	"context"
	"errors"
	"testing"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/internal/repository"
	"smart-pdf-chatbot/pkg/events"
	"smart-pdf-chatbot/pkg/idgen"
	"smart-pdf-chatbot/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoSectionReply = "Similarities:\n- A\nDifferences:\n- B"

func twoDocCorpus() model.Corpus {
	return model.Corpus{Records: []model.DocumentRecord{
		model.NewExtractedRecord("a.pdf", "1.pdf", "alpha"),
		model.NewExtractedRecord("b.pdf", "2.pdf", "beta"),
	}}
}

func TestCompareService_CompareFromSessionCorpus(t *testing.T) {
	ctx := context.Background()
	sessions := repository.NewMemoryStore()
	require.NoError(t, sessions.SaveCorpus(ctx, "s1", twoDocCorpus()))
	artifacts := repository.NewMemoryArtifactRepository()
	store := &memoryArtifactStore{}
	producer := &recordingProducer{}
	client := &fakeLLM{reply: twoSectionReply}
	svc := NewCompareService(client, sessions, artifacts, store, idgen.New(), producer)

	url, err := svc.Compare(ctx, "s1", "")
	require.NoError(t, err)
	require.Len(t, store.written, 1)
	assert.Equal(t, "/dashboards/"+store.written[0].ID+".html", url)
	assert.Contains(t, store.written[0].HTMLBody, "section-heading similarities")
	assert.Contains(t, client.prompts[0], "Document 1: a.pdf")
	assert.Contains(t, client.prompts[0], "Document 2: b.pdf")

	list, err := svc.ListDashboards(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, url, list[0].URL)
	assert.Equal(t, 2, list[0].DocumentCount)

	require.Len(t, producer.events, 1)
	assert.Equal(t, events.TypeArtifactCreated, producer.events[0].Type)
}

func TestCompareService_InsufficientDocumentsMakesNoCall(t *testing.T) {
	ctx := context.Background()
	sessions := repository.NewMemoryStore()
	require.NoError(t, sessions.SaveCorpus(ctx, "s1", model.Corpus{Records: []model.DocumentRecord{
		model.NewExtractedRecord("a.pdf", "1.pdf", "alpha"),
		model.NewFailedRecord("b.pdf", "2.pdf", "file is empty"),
	}}))
	client := &fakeLLM{reply: twoSectionReply}
	svc := NewCompareService(client, sessions, repository.NewMemoryArtifactRepository(), &memoryArtifactStore{}, idgen.New(), &recordingProducer{})

	_, err := svc.Compare(ctx, "s1", "")
	assert.ErrorIs(t, err, model.ErrInsufficientDocuments)
	assert.Equal(t, 0, client.calls())
}

func TestCompareService_ExplicitPromptAndUniqueIDs(t *testing.T) {
	client := &fakeLLM{reply: twoSectionReply}
	store := &memoryArtifactStore{}
	svc := NewCompareService(client, repository.NewMemoryStore(), repository.NewMemoryArtifactRepository(), store, idgen.New(), &recordingProducer{})

	u1, err := svc.Compare(context.Background(), "s1", "compare these")
	require.NoError(t, err)
	u2, err := svc.Compare(context.Background(), "s1", "compare these")
	require.NoError(t, err)
	assert.NotEqual(t, u1, u2)
	assert.Equal(t, "compare these", client.prompts[0])
}

func TestCompareService_ModelFailureWritesNothing(t *testing.T) {
	client := &fakeLLM{err: &llm.MalformedResponseError{Reason: "no candidates"}}
	store := &memoryArtifactStore{}
	svc := NewCompareService(client, repository.NewMemoryStore(), repository.NewMemoryArtifactRepository(), store, idgen.New(), &recordingProducer{})

	url, err := svc.Compare(context.Background(), "s1", "p")
	assert.Empty(t, url)
	assert.True(t, llm.IsMalformed(err))
	assert.Empty(t, store.written)
}

func TestCompareService_WriteFailureReturnsNoURL(t *testing.T) {
	store := &memoryArtifactStore{err: errors.New("disk full")}
	producer := &recordingProducer{}
	svc := NewCompareService(&fakeLLM{reply: "x"}, repository.NewMemoryStore(), repository.NewMemoryArtifactRepository(), store, idgen.New(), producer)

	url, err := svc.Compare(context.Background(), "s1", "p")
	assert.Empty(t, url)
	var werr *model.ArtifactWriteError
	assert.True(t, errors.As(err, &werr))
	assert.Empty(t, producer.events)
}

func TestCompareService_IndexFailureKeepsURL(t *testing.T) {
	store := &memoryArtifactStore{}
	svc := NewCompareService(&fakeLLM{reply: "x"}, repository.NewMemoryStore(), failingArtifactRepo{}, store, idgen.New(), &recordingProducer{})

	url, err := svc.Compare(context.Background(), "s1", "p")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}
