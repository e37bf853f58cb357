package badger

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// GetGeocode returns the cached location for k. The second result is false
// when nothing is cached.
func (b *Backend) GetGeocode(_ context.Context, k domain.GeoKey) (domain.LatLng, bool, error) {
	var loc domain.LatLng
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeGeocodeKey(k))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &loc)
		})
	})
	if err != nil {
		return domain.LatLng{}, false, err
	}
	return loc, found, nil
}

// PutGeocode stores the location for k. Cache entries are never
// overwritten; a second write for the same key is a no-op.
func (b *Backend) PutGeocode(_ context.Context, k domain.GeoKey, loc domain.LatLng) error {
	val, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	key := makeGeocodeKey(k)
	err = b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, val)
	})
	if errors.Is(err, badger.ErrConflict) {
		// A concurrent writer stored the same key first.
		return nil
	}
	return err
}
