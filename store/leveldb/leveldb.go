// Package leveldb implements a persistent result store backed by leveldb.
package leveldb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bboxx/overwatch/store"
	"github.com/syndtr/goleveldb/leveldb"
)

var _ store.Store = (*Store)(nil)

func init() {
	store.Register("leveldb",
		func(uri string) (s store.Store, err error) {
			return New(uri)
		})
}

// Store is a leveldb backed result store
type Store struct {
	data *leveldb.DB
}

// New creates a new leveldb result store from a leveldb:/path uri
func New(uri string) (s *Store, err error) {
	s = &Store{}

	params := strings.SplitN(uri, ":", 2)
	if len(params) != 2 || params[1] == "" {
		return nil, fmt.Errorf("store: invalid uri %s", uri)
	}
	path := params[1]

	s.data, err = leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Close the store
func (s *Store) Close() (err error) {
	return s.data.Close()
}

// Has checks if a result exists under the given key
func (s *Store) Has(key string) (exists bool, err error) {
	return s.data.Has([]byte(key), nil)
}

// Get a result from the store
func (s *Store) Get(key string) (result store.Result, err error) {
	b, err := s.data.Get([]byte(key), nil)

	switch {
	case err == leveldb.ErrNotFound:
		return result, store.ErrResultNotFound
	case err != nil:
		return result, err
	}

	err = json.Unmarshal(b, &result)
	if err != nil {
		return result, err
	}

	return result, nil
}

// Set stores the given result
func (s *Store) Set(key string, result store.Result) (err error) {
	b, err := json.Marshal(&result)
	if err != nil {
		return err
	}

	return s.data.Put([]byte(key), b, nil)
}

// Delete the result for the given key
func (s *Store) Delete(key string) (err error) {
	ok, err := s.Has(key)
	if err != nil {
		return err
	}

	if !ok {
		return store.ErrResultNotFound
	}

	return s.data.Delete([]byte(key), nil)
}

// Iter iterates the stored results applying the callback for the key and
// result pairs. Returning false causes the iteration to stop.
func (s *Store) Iter(callback func(key string, result store.Result) (proceed bool)) (err error) {
	iter := s.data.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		var result store.Result
		key := string(iter.Key())

		err = json.Unmarshal(iter.Value(), &result)
		if err != nil {
			return err
		}

		if !callback(key, result) {
			return nil
		}
	}
	return iter.Error()
}
