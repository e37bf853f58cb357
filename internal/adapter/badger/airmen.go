package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// ReplaceAirmen writes each airman as a whole, replacing any previous
// record with the same unique id. Writes share one transaction; when the
// transaction grows too big it is committed and a fresh one is started.
// A single airman is never split across transactions.
func (b *Backend) ReplaceAirmen(ctx context.Context, airmen []domain.Airman) error {
	txn := b.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	for i := range airmen {
		if err := ctx.Err(); err != nil {
			return err
		}
		a := &airmen[i]
		if a.UniqueID == "" {
			return errors.New("airman without unique id")
		}
		val, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode airman %s: %w", a.UniqueID, err)
		}
		key := makeAirmanKey(a.UniqueID)

		err = txn.Set(key, val)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return fmt.Errorf("commit airmen: %w", err)
			}
			txn = b.db.NewTransaction(true)
			err = txn.Set(key, val)
		}
		if err != nil {
			return fmt.Errorf("write airman %s: %w", a.UniqueID, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit airmen: %w", err)
	}
	return nil
}

// GetAirman returns the stored airman or ErrNotFound.
func (b *Backend) GetAirman(_ context.Context, uniqueID string) (domain.Airman, error) {
	var a domain.Airman
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeAirmanKey(uniqueID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		})
	})
	return a, err
}

// DeleteAirman removes an airman. Deleting a missing id is not an error.
func (b *Backend) DeleteAirman(_ context.Context, uniqueID string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(makeAirmanKey(uniqueID))
	})
}

// Scan calls fn for every stored airman in key order. Iteration stops at
// the first error returned by fn or when ctx is cancelled.
func (b *Backend) Scan(ctx context.Context, fn func(domain.Airman) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(airmanPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var a domain.Airman
			err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", iter.Item().Key(), err)
			}
			if err := fn(a); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindAirmen returns every airman matching the store-level filter.
func (b *Backend) FindAirmen(ctx context.Context, f domain.StoreFilter) ([]domain.Airman, error) {
	var out []domain.Airman
	err := b.Scan(ctx, func(a domain.Airman) error {
		if f.Matches(a) {
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountAirmen returns the number of stored airmen.
func (b *Backend) CountAirmen(_ context.Context) (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(airmanPrefix)
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
		}
		return nil
	})
	return n, err
}
