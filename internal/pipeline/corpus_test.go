package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/pkg/idgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor 把文件内容本身当作文本返回；内容以 "BAD" 开头时报错。
type fakeExtractor struct {
	calls atomic.Int32
}

func (f *fakeExtractor) Extract(_ context.Context, name string, data []byte) (string, error) {
	f.calls.Add(1)
	if strings.HasPrefix(string(data), "BAD") {
		return "", &model.ExtractionError{FileName: name, Message: "not a PDF document"}
	}
	return string(data), nil
}

func files(pairs ...string) []UploadFile {
	out := make([]UploadFile, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, UploadFile{Name: pairs[i], Data: []byte(pairs[i+1])})
	}
	return out
}

func TestIngest_RecordPerFileAndExclusive(t *testing.T) {
	ing := NewIngestor(&fakeExtractor{}, idgen.New(), 4)

	corpus, err := ing.Ingest(context.Background(), files(
		"a.pdf", "alpha",
		"b.pdf", "BAD bytes",
		"c.pdf", "gamma",
	))
	require.NoError(t, err)
	require.Equal(t, 3, corpus.Len())

	for _, r := range corpus.Records {
		assert.True(t, (r.Text == nil) != (r.ExtractionError == nil), "record %s must have exactly one of text/error", r.DisplayName)
	}
	assert.Equal(t, "a.pdf", corpus.Records[0].DisplayName)
	assert.Equal(t, "alpha", *corpus.Records[0].Text)
	require.NotNil(t, corpus.Records[1].ExtractionError)
	assert.Equal(t, "not a PDF document", *corpus.Records[1].ExtractionError)
	assert.Equal(t, 2, corpus.UsableCount())
}

func TestIngest_StorageIDsUniqueAndOrdered(t *testing.T) {
	ing := NewIngestor(&fakeExtractor{}, idgen.New(), 3)

	corpus, err := ing.Ingest(context.Background(), files(
		"same.pdf", "1", "same.pdf", "2", "same.pdf", "3", "same.pdf", "4",
	))
	require.NoError(t, err)

	seen := map[string]bool{}
	prev := ""
	for _, r := range corpus.Records {
		assert.False(t, seen[r.StorageID])
		seen[r.StorageID] = true
		assert.True(t, strings.HasSuffix(r.StorageID, ".pdf"))
		if prev != "" {
			assert.Less(t, prev, r.StorageID)
		}
		prev = r.StorageID
	}
}

func TestIngest_AllFailed(t *testing.T) {
	ing := NewIngestor(&fakeExtractor{}, idgen.New(), 2)

	corpus, err := ing.Ingest(context.Background(), files("a.pdf", "BAD", "b.pdf", "BAD too"))
	require.Error(t, err)

	var batch *model.BatchExtractionError
	require.ErrorAs(t, err, &batch)
	require.Len(t, batch.Failures, 2)
	assert.Equal(t, "a.pdf", batch.Failures[0].FileName)
	assert.Equal(t, "b.pdf", batch.Failures[1].FileName)
	assert.Equal(t, 2, corpus.Len())
	assert.Equal(t, 0, corpus.UsableCount())
}

func TestIngest_EmptyBatch(t *testing.T) {
	ing := NewIngestor(&fakeExtractor{}, idgen.New(), 1)
	_, err := ing.Ingest(context.Background(), nil)
	assert.True(t, errors.Is(err, model.ErrMissingInput))
}

func TestMaterialize_OrderPreservingAndSkipsFailures(t *testing.T) {
	c := model.Corpus{Records: []model.DocumentRecord{
		model.NewExtractedRecord("a.pdf", "1.pdf", "AAA"),
		model.NewFailedRecord("b.pdf", "2.pdf", "broken"),
		model.NewExtractedRecord("c.pdf", "3.pdf", "CCC"),
	}}
	assert.Equal(t, "AAA"+DocumentSeparator+"CCC", Materialize(c))

	reversed := model.Corpus{Records: []model.DocumentRecord{c.Records[2], c.Records[1], c.Records[0]}}
	assert.Equal(t, "CCC"+DocumentSeparator+"AAA", Materialize(reversed))
}

func TestMaterialize_Idempotent(t *testing.T) {
	ext := &fakeExtractor{}
	ing := NewIngestor(ext, idgen.New(), 1)
	corpus, err := ing.Ingest(context.Background(), files("a.pdf", "one", "b.pdf", "two"))
	require.NoError(t, err)

	first := Materialize(corpus)
	second := Materialize(corpus)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), ext.calls.Load(), "materialize must not re-run extraction")
}

func TestMaterialize_Empty(t *testing.T) {
	assert.Equal(t, "", Materialize(model.Corpus{}))
}

type stubTika struct {
	text string
	err  error
	got  string
}

func (s *stubTika) ExtractText(_ context.Context, r io.Reader, _ string) (string, error) {
	b, _ := io.ReadAll(r)
	s.got = string(b)
	return s.text, s.err
}

func TestPDFExtractor(t *testing.T) {
	t.Run("extracts and trims", func(t *testing.T) {
		backend := &stubTika{text: "\n\n  Hello PDF \n"}
		text, err := NewPDFExtractor(backend).Extract(context.Background(), "a.pdf", []byte("%PDF-1.7 ..."))
		require.NoError(t, err)
		assert.Equal(t, "Hello PDF", text)
		assert.Equal(t, "%PDF-1.7 ...", backend.got)
	})

	cases := []struct {
		name    string
		data    string
		backend *stubTika
		msg     string
	}{
		{name: "empty file", data: "", backend: &stubTika{}, msg: "file is empty"},
		{name: "not a pdf", data: "PK\x03\x04 zip", backend: &stubTika{text: "zip"}, msg: "not a PDF document"},
		{name: "tika failure", data: "%PDF-1.4", backend: &stubTika{err: errors.New("boom")}, msg: "text extraction failed: boom"},
		{name: "no text", data: "%PDF-1.4", backend: &stubTika{text: "   \n"}, msg: "no extractable text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPDFExtractor(tc.backend).Extract(context.Background(), "x.pdf", []byte(tc.data))
			var ee *model.ExtractionError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, "x.pdf", ee.FileName)
			assert.Contains(t, ee.Message, tc.msg)
		})
	}
}
