package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minirag/internal/vectorindex"
)

type fakeCompleter struct {
	answer string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

type recordingSink struct {
	chunks []string
	done   int
	failed []error
}

func (s *recordingSink) Emit(chunk string) error {
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *recordingSink) Done() error {
	s.done++
	return nil
}

func (s *recordingSink) Fail(err error) error {
	s.failed = append(s.failed, err)
	return nil
}

func newChatFixture(t *testing.T, answer string) (*Chat, *fakeCompleter, *fakeEmbedder) {
	t.Helper()
	st := newMemStore()
	emb := newFakeEmbedder()
	idx := newTestIndex(t)

	g := NewIngestor(st, emb, idx, 10, 0)
	_, _, err := g.Ingest(context.Background(), tenSegmentText(), 1, 42)
	require.NoError(t, err)

	completer := &fakeCompleter{answer: answer}
	return NewChat(NewRetriever(emb, idx, st), completer, 0), completer, emb
}

// limitSpyIndex records the search limit passed through by the pipeline.
type limitSpyIndex struct {
	vectorindex.Index
	lastLimit int
}

func (s *limitSpyIndex) Search(ctx context.Context, vector []float32, limit int, filter vectorindex.Filter) ([]vectorindex.Hit, error) {
	s.lastLimit = limit
	return s.Index.Search(ctx, vector, limit, filter)
}

func TestChatUsesConfiguredTopK(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	emb := newFakeEmbedder()
	idx := newTestIndex(t)

	g := NewIngestor(st, emb, idx, 10, 0)
	_, _, err := g.Ingest(ctx, tenSegmentText(), 1, 42)
	require.NoError(t, err)

	spy := &limitSpyIndex{Index: idx}
	chat := NewChat(NewRetriever(emb, spy, st), &fakeCompleter{answer: "ok"}, 2)
	sink := &recordingSink{}

	chat.HandleQuery(ctx, sink, segment(5), 1, nil)

	assert.Equal(t, 2, spy.lastLimit)
	assert.Equal(t, 1, sink.done)

	// Zero falls back to the default limit.
	chat = NewChat(NewRetriever(emb, spy, st), &fakeCompleter{answer: "ok"}, 0)
	chat.HandleQuery(ctx, sink, segment(5), 1, nil)
	assert.Equal(t, DefaultSearchLimit, spy.lastLimit)
}

func TestHandleQueryStreamsAnswer(t *testing.T) {
	answer := strings.Repeat("answer text ", 30) // > one stream window
	chat, completer, _ := newChatFixture(t, answer)
	sink := &recordingSink{}

	chat.HandleQuery(context.Background(), sink, segment(5), 1, nil)

	assert.Equal(t, 1, sink.done)
	assert.Empty(t, sink.failed)
	// Increments reassemble to the full answer, in order, each bounded.
	assert.Equal(t, answer, strings.Join(sink.chunks, ""))
	for _, c := range sink.chunks {
		assert.LessOrEqual(t, len([]rune(c)), streamWindow)
	}
	// The prompt carried the query and the stitched context verbatim.
	assert.Contains(t, completer.prompt, segment(5))
	assert.Contains(t, completer.prompt, segment(4))
}

func TestHandleQueryNoContent(t *testing.T) {
	chat, completer, _ := newChatFixture(t, "unused")
	sink := &recordingSink{}

	// Owner 2 has no chunks: a notice, a Done, and no completion call.
	chat.HandleQuery(context.Background(), sink, "unrelated term", 2, nil)

	assert.Equal(t, []string{NoContentNotice}, sink.chunks)
	assert.Equal(t, 1, sink.done)
	assert.Empty(t, sink.failed)
	assert.Empty(t, completer.prompt)
}

func TestHandleQueryCompletionFailure(t *testing.T) {
	chat, completer, _ := newChatFixture(t, "")
	completer.err = errors.New("model unavailable")
	sink := &recordingSink{}

	chat.HandleQuery(context.Background(), sink, segment(5), 1, nil)

	assert.Zero(t, sink.done)
	require.Len(t, sink.failed, 1)
	assert.ErrorContains(t, sink.failed[0], "model unavailable")
}

func TestHandleQueryEmbeddingFailure(t *testing.T) {
	chat, _, emb := newChatFixture(t, "unused")
	emb.fail = true
	sink := &recordingSink{}

	chat.HandleQuery(context.Background(), sink, "anything", 1, nil)

	require.Len(t, sink.failed, 1)
	assert.ErrorIs(t, sink.failed[0], ErrEmbeddingFailure)
	assert.Zero(t, sink.done)
}

func TestAnswerSynchronous(t *testing.T) {
	chat, _, _ := newChatFixture(t, "the answer")

	answer, err := chat.Answer(context.Background(), segment(5), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}
