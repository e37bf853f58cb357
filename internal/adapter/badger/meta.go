package badger

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// PutImportMeta records the most recent completed import.
func (b *Backend) PutImportMeta(_ context.Context, m domain.ImportMeta) error {
	val, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(importMetaKey), val)
	})
}

// GetImportMeta returns the most recent import metadata or ErrNotFound.
func (b *Backend) GetImportMeta(_ context.Context) (domain.ImportMeta, error) {
	var m domain.ImportMeta
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(importMetaKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	return m, err
}
