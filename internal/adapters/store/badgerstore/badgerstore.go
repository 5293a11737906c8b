package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Stream/internal/adapters/store"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	streamPrefix = "stream/"
	chatPrefix   = "chat/"
)

type Store struct {
	db  *badger.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open opens a badger database at path, or an in-memory one when path is
// empty.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", path, err)
	}
	log.Info().Str("module", "store.badger").Str("path", path).Bool("in_memory", path == "").Msg("opened")
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func streamKey(id domain.StreamID) []byte { return []byte(streamPrefix + string(id)) }

// chatStreamPrefix ends in a NUL so one stream id can never prefix another.
func chatStreamPrefix(id domain.StreamID) []byte { return []byte(chatPrefix + string(id) + "\x00") }

func (s *Store) CreateStream(_ context.Context, rec domain.StreamRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(streamKey(rec.ID))
		switch {
		case err == nil:
			return store.ErrAlreadyExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(streamKey(rec.ID), val)
	})
}

func (s *Store) GetStream(_ context.Context, id domain.StreamID) (domain.StreamRecord, error) {
	var rec domain.StreamRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getStream(txn, id)
		return err
	})
	return rec, err
}

func getStream(txn *badger.Txn, id domain.StreamID) (domain.StreamRecord, error) {
	var rec domain.StreamRecord
	item, err := txn.Get(streamKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, store.ErrNotFound
	}
	if err != nil {
		return rec, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

func (s *Store) ListStreams(_ context.Context) ([]domain.StreamRecord, error) {
	out := []domain.StreamRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(streamPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec domain.StreamRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func (s *Store) MarkStreamEnded(_ context.Context, id domain.StreamID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getStream(txn, id)
		if err != nil {
			return err
		}
		if rec.IsEnded() {
			return nil
		}
		rec.MarkEnded(s.now().UTC())
		val, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(streamKey(id), val)
	})
}

func (s *Store) AppendChatLog(_ context.Context, entry domain.ChatEntry) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := append(chatStreamPrefix(entry.StreamID), store.ChatKey(entry.Timestamp)...)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (s *Store) ListChat(_ context.Context, id domain.StreamID, limit int) ([]domain.ChatEntry, error) {
	prefix := chatStreamPrefix(id)
	out := []domain.ChatEntry{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) == limit {
				break
			}
			var e domain.ChatEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// badgerLogger routes badger's own logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, args ...any) {
	log.Error().Str("module", "store.badger").Msgf(f, args...)
}

func (badgerLogger) Warningf(f string, args ...any) {
	log.Warn().Str("module", "store.badger").Msgf(f, args...)
}

func (badgerLogger) Infof(f string, args ...any) {
	log.Debug().Str("module", "store.badger").Msgf(f, args...)
}

func (badgerLogger) Debugf(f string, args ...any) {
	log.Trace().Str("module", "store.badger").Msgf(f, args...)
}
