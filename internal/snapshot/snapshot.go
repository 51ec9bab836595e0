// Package snapshot persists corpus records so the vector store can be
// rebuilt without recomputing embeddings.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"semsearch/internal/domain"
	"semsearch/internal/vectorstore"
)

// Store is implemented by every snapshot backend.
type Store = domain.SnapshotStore

// jsonRecord is the on-disk JSON form. Field names match the
// embeddings.json caches produced by earlier versions of the tool.
type jsonRecord struct {
	ID     int       `json:"chunk_id"`
	Text   string    `json:"text"`
	Vector []float32 `json:"embedding"`
}

// FromVectorStore lists the store contents in id order.
func FromVectorStore(store *vectorstore.Store) []domain.Record {
	records := make([]domain.Record, 0, store.Len())
	for id, item := range store.All() {
		records = append(records, domain.Record{ID: id, Text: item.Payload, Vector: item.Vector})
	}
	return records
}

// Populate appends records to store. Record ids must continue the store's
// id sequence in order, so an empty store takes ids 0..n-1.
func Populate(store *vectorstore.Store, records []domain.Record) error {
	for i, rec := range records {
		if want := store.Len(); rec.ID != want {
			return fmt.Errorf("snapshot: record %d has id %d, want %d", i, rec.ID, want)
		}
		if _, err := store.Add(rec.Text, rec.Vector); err != nil {
			return fmt.Errorf("snapshot: record %d: %w", rec.ID, err)
		}
	}
	return nil
}

func encodeJSON(w io.Writer, records []domain.Record) error {
	out := make([]jsonRecord, len(records))
	for i, rec := range records {
		out[i] = jsonRecord{ID: rec.ID, Text: rec.Text, Vector: rec.Vector}
	}
	return json.NewEncoder(w).Encode(out)
}

func decodeJSON(r io.Reader) ([]domain.Record, error) {
	var in []jsonRecord
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	records := make([]domain.Record, len(in))
	for i, rec := range in {
		records[i] = domain.Record{ID: rec.ID, Text: rec.Text, Vector: rec.Vector}
	}
	return records, nil
}
