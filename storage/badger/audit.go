package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/storage"
)

// AuditLog implements storage.AuditLog for BadgerDB.
// Entries are keyed by a monotonic sequence number and committed before
// Append returns, so a caller never observes an effect whose audit entry
// is not yet persisted.
type AuditLog struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.AuditLog = (*AuditLog)(nil)

// NewAuditLog creates a new AuditLog.
func NewAuditLog(backend *Backend) (*AuditLog, error) {
	seq, err := backend.GetSequence(auditSeqName)
	if err != nil {
		return nil, err
	}
	return &AuditLog{backend: backend, seq: seq}, nil
}

// Close releases the sequence.
func (l *AuditLog) Close() error {
	return l.seq.Release()
}

// Append assigns the entry a sequence number and persists it.
func (l *AuditLog) Append(ctx context.Context, entry *core.AuditEntry) error {
	next, err := l.seq.Next()
	if err != nil {
		return err
	}
	// Sequences can return 0 on first call; audit keys start at 1.
	if next == 0 {
		next, err = l.seq.Next()
		if err != nil {
			return err
		}
	}
	entry.Seq = next
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	return l.backend.WithTx(func(tx *badger.Txn) error {
		key := makeAuditEntryKey(entry.Seq)
		if err := tx.Set(key, storage.MarshalAuditEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Entries returns entries in append order. A limit <= 0 returns all.
func (l *AuditLog) Entries(ctx context.Context, limit int) ([]*core.AuditEntry, error) {
	var entries []*core.AuditEntry
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(auditEntryPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *core.AuditEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalAuditEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry != nil {
				entries = append(entries, entry)
			}
		}
		return nil
	}, false)
	return entries, err
}
