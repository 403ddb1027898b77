package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/storage"
)

// GrantRepository implements storage.GrantRepository for BadgerDB.
type GrantRepository struct {
	backend *Backend
}

var _ storage.GrantRepository = (*GrantRepository)(nil)

// NewGrantRepository creates a new GrantRepository.
func NewGrantRepository(backend *Backend) *GrantRepository {
	return &GrantRepository{backend: backend}
}

// Close releases repository resources.
func (r *GrantRepository) Close() error {
	return nil
}

// AddRequest persists a new access request and its pending marker.
func (r *GrantRepository) AddRequest(ctx context.Context, request *core.AccessRequest) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeAccessRequestKey(request.Id), storage.MarshalAccessRequest(request)); err != nil {
			return err
		}
		if request.State == core.RequestStatePending {
			pendingKey := makePendingRequestKey(request.SlideId, request.RequesterId)
			if err := tx.Set(pendingKey, []byte(request.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetRequest retrieves a request by ID.
func (r *GrantRepository) GetRequest(ctx context.Context, id string) (*core.AccessRequest, error) {
	var request *core.AccessRequest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		request, err = readRequest(tx, makeAccessRequestKey(id))
		if err != nil {
			return err
		}
		if request == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return request, err
}

// FindPendingRequest finds the pending request for a (slide, requester) pair.
// Returns nil, nil when none is pending.
func (r *GrantRepository) FindPendingRequest(ctx context.Context, slideId core.ID, requesterId string) (*core.AccessRequest, error) {
	var request *core.AccessRequest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePendingRequestKey(slideId, requesterId))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		var requestID string
		if err := item.Value(func(val []byte) error {
			requestID = string(val)
			return nil
		}); err != nil {
			return err
		}
		request, err = readRequest(tx, makeAccessRequestKey(requestID))
		return err
	}, false)
	return request, err
}

// UpdateRequest persists a state transition. The pending marker is cleared
// when the request leaves the pending state.
func (r *GrantRepository) UpdateRequest(ctx context.Context, request *core.AccessRequest) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeAccessRequestKey(request.Id)
		old, err := readRequest(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}
		if err := tx.Set(key, storage.MarshalAccessRequest(request)); err != nil {
			return err
		}
		if old.State == core.RequestStatePending && request.State != core.RequestStatePending {
			pendingKey := makePendingRequestKey(request.SlideId, request.RequesterId)
			if err := tx.Delete(pendingKey); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// AddGrant persists a newly issued grant and its per-requester index entry.
func (r *GrantRepository) AddGrant(ctx context.Context, grant *core.Grant) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeGrantKey(grant.Id), storage.MarshalGrant(grant)); err != nil {
			return err
		}
		userKey := makeGrantByUserKey(grant.RequesterId, grant.Id)
		if err := tx.Set(userKey, []byte(grant.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetGrant retrieves a grant by ID.
func (r *GrantRepository) GetGrant(ctx context.Context, id string) (*core.Grant, error) {
	var grant *core.Grant
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		grant, err = readGrant(tx, makeGrantKey(id))
		if err != nil {
			return err
		}
		if grant == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return grant, err
}

// UpdateGrant persists a revocation marker.
func (r *GrantRepository) UpdateGrant(ctx context.Context, grant *core.Grant) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeGrantKey(grant.Id)
		old, err := readGrant(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}
		if err := tx.Set(key, storage.MarshalGrant(grant)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GrantsForRequester retrieves all grants ever issued to a requester.
func (r *GrantRepository) GrantsForRequester(ctx context.Context, requesterId string) ([]*core.Grant, error) {
	var grants []*core.Grant
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialGrantByUserKey(requesterId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}
			var grantID string
			if err := iter.Item().Value(func(val []byte) error {
				grantID = string(val)
				return nil
			}); err != nil {
				return err
			}
			grant, err := readGrant(tx, makeGrantKey(grantID))
			if err != nil {
				return err
			}
			if grant != nil {
				grants = append(grants, grant)
			}
		}
		return nil
	}, false)
	return grants, err
}

// readRequest reads an access request from the transaction.
// Returns nil, nil when the key does not exist.
func readRequest(tx *badger.Txn, key []byte) (*core.AccessRequest, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	var request *core.AccessRequest
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		request, unmarshalErr = storage.UnmarshalAccessRequest(val)
		return unmarshalErr
	})
	return request, err
}

// readGrant reads a grant from the transaction.
// Returns nil, nil when the key does not exist.
func readGrant(tx *badger.Txn, key []byte) (*core.Grant, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	var grant *core.Grant
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		grant, unmarshalErr = storage.UnmarshalGrant(val)
		return unmarshalErr
	})
	return grant, err
}
