// Package search maintains a full-text index over message bodies.
// The index is derived state: the store remains the source of truth and
// search hits are re-read from it before being returned to a caller.
package search

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
)

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index inserts or replaces the document for a message id.
func (i *MessageIndex) Index(id, text string) error {
	doc := bluge.NewDocument(id).
		AddField(bluge.NewTextField("text", text).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Remove drops a message from the index.
func (i *MessageIndex) Remove(id string) error {
	return i.writer.Delete(bluge.Identifier(id))
}

// Search returns the ids of the messages matching the terms, best match
// first, at most limit of them.
func (i *MessageIndex) Search(ctx context.Context, terms string, limit int) ([]string, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Failed to close index reader", "error", err)
		}
	}()

	query := bluge.NewMatchQuery(terms).SetField("text")
	request := bluge.NewTopNSearch(limit, query)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
