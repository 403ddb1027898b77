package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/storage"
)

// SlideRepository implements storage.SlideRepository for BadgerDB.
type SlideRepository struct {
	backend *Backend
}

var _ storage.SlideRepository = (*SlideRepository)(nil)

// NewSlideRepository creates a new SlideRepository.
func NewSlideRepository(backend *Backend) *SlideRepository {
	return &SlideRepository{backend: backend}
}

// Close releases repository resources.
func (r *SlideRepository) Close() error {
	return nil
}

// UpsertSlideRecords inserts or fully replaces slide records.
// Each record is written and committed in one transaction, so readers see
// either the old record or the new one, never a mix.
func (r *SlideRepository) UpsertSlideRecords(ctx context.Context, records ...*core.SlideRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			key := makeSlideRecordKey(record.Id)

			old, err := r.readSlideRecord(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				// Full replace keeps the original insertion time.
				record.InsertedAt = old.InsertedAt
			} else {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalSlideRecord(record)); err != nil {
				return err
			}

			deckKey := makeSlideDeckKey(record.DeckId, record.Id)
			if err := tx.Set(deckKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetSlideRecord retrieves a single slide record by ID.
func (r *SlideRepository) GetSlideRecord(ctx context.Context, id core.ID) (*core.SlideRecord, error) {
	var result *core.SlideRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readSlideRecord(tx, makeSlideRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetSlideRecords retrieves multiple slide records by their IDs.
func (r *SlideRepository) GetSlideRecords(ctx context.Context, ids ...core.ID) ([]*core.SlideRecord, error) {
	var result []*core.SlideRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := r.readSlideRecord(tx, makeSlideRecordKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetSlideRecordsByDeck retrieves all slide records of a deck, ordered by
// slide number.
func (r *SlideRepository) GetSlideRecordsByDeck(ctx context.Context, deckId core.ID) ([]*core.SlideRecord, error) {
	var results []*core.SlideRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := r.slideIDsForDeck(tx, deckId)
		if err != nil {
			return err
		}
		for _, id := range ids {
			record, err := r.readSlideRecord(tx, makeSlideRecordKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b *core.SlideRecord) int {
		return a.SlideNumber - b.SlideNumber
	})
	return results, nil
}

// DeleteSlideRecords removes slide records by their IDs.
// Missing ids are skipped, not errors.
func (r *SlideRepository) DeleteSlideRecords(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeSlideRecordKey(id)
			record, err := r.readSlideRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if err := tx.Delete(makeSlideDeckKey(record.DeckId, record.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteDeck removes a deck and all of its slide records, returning the
// removed slide IDs.
func (r *SlideRepository) DeleteDeck(ctx context.Context, deckId core.ID) ([]core.ID, error) {
	var removed []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := r.slideIDsForDeck(tx, deckId)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Delete(makeSlideDeckKey(deckId, id)); err != nil {
				return err
			}
			if err := tx.Delete(makeSlideRecordKey(id)); err != nil {
				return err
			}
			removed = append(removed, id)
		}
		if err := tx.Delete(makeDeckKey(deckId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ForEachSlideRecord visits every stored slide record.
func (r *SlideRepository) ForEachSlideRecord(ctx context.Context, fn func(record *core.SlideRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(slideRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record *core.SlideRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalSlideRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// UpsertDeck inserts or replaces deck metadata.
func (r *SlideRepository) UpsertDeck(ctx context.Context, deck *core.Deck) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDeckKey(deck.Id), storage.MarshalDeck(deck)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDeck retrieves deck metadata by ID.
func (r *SlideRepository) GetDeck(ctx context.Context, id core.ID) (*core.Deck, error) {
	var deck *core.Deck
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDeckKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			deck, unmarshalErr = storage.UnmarshalDeck(val)
			return unmarshalErr
		})
	}, false)
	return deck, err
}

// Helper methods

// readSlideRecord reads a slide record from the transaction.
// Returns nil, nil when the key does not exist.
func (r *SlideRepository) readSlideRecord(tx *badger.Txn, key []byte) (*core.SlideRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.SlideRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalSlideRecord(val)
		return unmarshalErr
	})
	return record, err
}

// slideIDsForDeck scans the deck index for the deck's slide IDs.
func (r *SlideRepository) slideIDsForDeck(tx *badger.Txn, deckId core.ID) ([]core.ID, error) {
	startKey := makePartialSlideDeckKey(deckId)
	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	var ids []core.ID
	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
			break
		}
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
