package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/internal/pipeline"
	"smart-pdf-chatbot/internal/repository"
	"smart-pdf-chatbot/pkg/events"
	"smart-pdf-chatbot/pkg/idgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRetainer struct {
	ids []string
}

func (r *recordingRetainer) Retain(_ context.Context, storageID string, _ []byte) error {
	r.ids = append(r.ids, storageID)
	return nil
}

func newUploadFixture(reply string, retainer *recordingRetainer) (UploadService, *repository.MemoryStore, *fakeLLM, *recordingProducer) {
	store := repository.NewMemoryStore()
	client := &fakeLLM{reply: reply}
	producer := &recordingProducer{}
	ingestor := pipeline.NewIngestor(fakeExtractor{}, idgen.New(), 2)
	chat := NewChatService(client, store, store)
	var svc UploadService
	if retainer != nil {
		svc = NewUploadService(ingestor, store, chat, retainer, producer)
	} else {
		svc = NewUploadService(ingestor, store, chat, nil, producer)
	}
	return svc, store, client, producer
}

func TestUploadService_PartialFailureSummarizesUsableOnly(t *testing.T) {
	ctx := context.Background()
	svc, store, client, producer := newUploadFixture("the summary", nil)

	result, err := svc.Upload(ctx, "s1", []pipeline.UploadFile{
		{Name: "a.pdf", Data: []byte("alpha")},
		{Name: "b.pdf", Data: []byte("BAD")},
		{Name: "c.pdf", Data: []byte("gamma")},
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	assert.NotNil(t, result.Records[1].ExtractionError)
	assert.Equal(t, "the summary", result.Summary)
	assert.Empty(t, result.SummaryError)

	require.Equal(t, 1, client.calls())
	assert.Contains(t, client.prompts[0], "alpha"+pipeline.DocumentSeparator+"gamma")
	assert.NotContains(t, client.prompts[0], "BAD")

	corpus, _ := store.GetCorpus(ctx, "s1")
	assert.Equal(t, 3, corpus.Len())

	require.Len(t, producer.events, 1)
	assert.Equal(t, events.TypeCorpusIngested, producer.events[0].Type)
	payload := producer.events[0].Payload.(events.CorpusIngested)
	assert.Equal(t, 2, payload.Usable)
	assert.Equal(t, []string{"b.pdf"}, payload.Failed)
}

func TestUploadService_AllFailedKeepsPreviousCorpus(t *testing.T) {
	ctx := context.Background()
	svc, store, client, _ := newUploadFixture("unused", nil)
	previous := model.Corpus{Records: []model.DocumentRecord{model.NewExtractedRecord("old.pdf", "1.pdf", "old")}}
	require.NoError(t, store.SaveCorpus(ctx, "s1", previous))

	result, err := svc.Upload(ctx, "s1", []pipeline.UploadFile{{Name: "x.pdf", Data: []byte("BAD")}})
	var batch *model.BatchExtractionError
	require.True(t, errors.As(err, &batch))
	assert.Len(t, result.Records, 1)
	assert.Equal(t, 0, client.calls())

	corpus, _ := store.GetCorpus(ctx, "s1")
	assert.Equal(t, previous, corpus)
}

func TestUploadService_SummaryFailureStillReturnsRecords(t *testing.T) {
	svc, _, client, _ := newUploadFixture("", nil)
	client.err = errors.New("boom")

	result, err := svc.Upload(context.Background(), "s1", []pipeline.UploadFile{{Name: "a.pdf", Data: []byte("alpha")}})
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, "boom", result.SummaryError)
}

func TestUploadService_RetainsOnlyUsableFiles(t *testing.T) {
	retainer := &recordingRetainer{}
	svc, _, _, _ := newUploadFixture("ok", retainer)

	result, err := svc.Upload(context.Background(), "s1", []pipeline.UploadFile{
		{Name: "a.pdf", Data: []byte("alpha")},
		{Name: "b.pdf", Data: []byte("BAD")},
	})
	require.NoError(t, err)
	require.Len(t, retainer.ids, 1)
	assert.Equal(t, result.Records[0].StorageID, retainer.ids[0])
	assert.True(t, strings.HasSuffix(retainer.ids[0], ".pdf"))
}

func TestUploadService_Resummarize(t *testing.T) {
	ctx := context.Background()
	svc, store, client, _ := newUploadFixture("again", nil)

	_, err := svc.Resummarize(ctx, "empty")
	assert.ErrorIs(t, err, model.ErrMissingInput)
	assert.Equal(t, 0, client.calls())

	require.NoError(t, store.SaveCorpus(ctx, "s1", model.Corpus{Records: []model.DocumentRecord{model.NewExtractedRecord("a.pdf", "1.pdf", "alpha")}}))
	summary, err := svc.Resummarize(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "again", summary)
}
