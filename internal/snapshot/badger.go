package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"semsearch/internal/domain"
	"semsearch/internal/logging"
)

var recordPrefix = []byte("rec/")

// BadgerOptions configures the Badger store.
type BadgerOptions struct {
	// Dir is the database directory. Required unless InMemory is set.
	Dir string
	// InMemory runs badger without disk persistence.
	InMemory bool
	Logger   *slog.Logger
}

// Badger keeps one key per record: "rec/" followed by the big-endian id,
// so key order is id order.
type Badger struct {
	db *badger.DB
}

var _ Store = (*Badger)(nil)

type badgerValue struct {
	Text   string    `msgpack:"text"`
	Vector []float32 `msgpack:"embedding"`
}

// OpenBadger opens the database.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("snapshot: badger directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(logging.Badger(opts.Logger))
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

func recordKey(id int) []byte {
	k := make([]byte, len(recordPrefix)+8)
	copy(k, recordPrefix)
	binary.BigEndian.PutUint64(k[len(recordPrefix):], uint64(id))
	return k
}

func (b *Badger) Exists(context.Context) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = recordPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Seek(recordPrefix)
		found = it.ValidForPrefix(recordPrefix)
		return nil
	})
	return found, err
}

func (b *Badger) Load(ctx context.Context) ([]domain.Record, error) {
	var records []domain.Record
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(recordPrefix); it.ValidForPrefix(recordPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id := int(binary.BigEndian.Uint64(item.Key()[len(recordPrefix):]))
			var v badgerValue
			if err := item.Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &v)
			}); err != nil {
				return fmt.Errorf("snapshot: record %d: %w", id, err)
			}
			records = append(records, domain.Record{ID: id, Text: v.Text, Vector: v.Vector})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Save drops any previous records and writes the new set in a batch.
func (b *Badger) Save(_ context.Context, records []domain.Record) error {
	if err := b.db.DropPrefix(recordPrefix); err != nil {
		return err
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, rec := range records {
		val, err := msgpack.Marshal(badgerValue{Text: rec.Text, Vector: rec.Vector})
		if err != nil {
			return err
		}
		if err := wb.Set(recordKey(rec.ID), val); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) Close() error { return b.db.Close() }
