package rag

import (
	"context"

	"github.com/rs/zerolog/log"
)

// NoContentNotice is sent when the owner has no relevant chunks for the
// query. Reported as a normal outcome, never as an error.
const NoContentNotice = "No relevant documents found. Please upload a PDF first."

// streamWindow is the number of runes per emitted answer increment.
const streamWindow = 120

// Chat drives one query end to end: retrieve, assemble context, complete,
// and deliver the answer.
type Chat struct {
	retriever *Retriever
	completer Completer
	topK      int
}

// NewChat wires a query pipeline retrieving up to topK chunks per query.
// A topK of zero or less falls back to DefaultSearchLimit.
func NewChat(retriever *Retriever, completer Completer, topK int) *Chat {
	if topK <= 0 {
		topK = DefaultSearchLimit
	}
	return &Chat{retriever: retriever, completer: completer, topK: topK}
}

// Answer runs the query synchronously and returns the complete answer.
func (c *Chat) Answer(ctx context.Context, query string, userID int64, pdfID *int64) (string, error) {
	hits, err := c.retriever.Retrieve(ctx, query, userID, pdfID, c.topK)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return NoContentNotice, nil
	}

	contextText, err := c.retriever.BuildContext(ctx, hits)
	if err != nil {
		return "", err
	}

	return c.completer.Complete(ctx, BuildPrompt(query, contextText))
}

// HandleQuery runs the query and delivers the answer to the sink in
// ordered bounded increments, ending with exactly one Done or Fail.
// Increments already emitted before a late failure are not retracted.
func (c *Chat) HandleQuery(ctx context.Context, sink Sink, query string, userID int64, pdfID *int64) {
	answer, err := c.Answer(ctx, query, userID, pdfID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("query failed")
		_ = sink.Fail(err)
		return
	}

	if err = c.streamText(sink, answer); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("answer delivery failed")
		_ = sink.Fail(err)
		return
	}
	_ = sink.Done()
}

func (c *Chat) streamText(sink Sink, text string) error {
	runes := []rune(text)
	for i := 0; i < len(runes); i += streamWindow {
		end := i + streamWindow
		if end > len(runes) {
			end = len(runes)
		}
		if err := sink.Emit(string(runes[i:end])); err != nil {
			return err
		}
	}
	return nil
}
