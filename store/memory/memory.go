// Package memory implements a volatile in memory result store.
package memory

import (
	"sync"

	"github.com/bboxx/overwatch/store"
)

var _ store.Store = (*Store)(nil)

func init() {
	store.Register("memory",
		func(uri string) (s store.Store, err error) {
			return New(uri)
		})
}

// Store is an in memory result store
type Store struct {
	data *sync.Map
}

// New creates a new in memory result store
func New(_ string) (s *Store, err error) {
	return &Store{data: &sync.Map{}}, nil
}

// Close the store
func (s *Store) Close() (err error) {
	s.data = &sync.Map{}
	return nil
}

// Has checks if a result exists under the given key
func (s *Store) Has(key string) (exists bool, err error) {
	_, exists = s.data.Load(key)
	return exists, nil
}

// Get a result from the store
func (s *Store) Get(key string) (result store.Result, err error) {
	r, exists := s.data.Load(key)
	if !exists {
		return result, store.ErrResultNotFound
	}

	result = r.(store.Result)
	return result, nil
}

// Set stores the given result
func (s *Store) Set(key string, result store.Result) (err error) {
	s.data.Store(key, result)
	return nil
}

// Delete the result for the given key
func (s *Store) Delete(key string) (err error) {
	ok, _ := s.Has(key)
	if !ok {
		return store.ErrResultNotFound
	}
	s.data.Delete(key)
	return nil
}

// Iter iterates the stored results applying the callback for the key and
// result pairs. Returning false causes the iteration to stop.
func (s *Store) Iter(callback func(key string, result store.Result) (proceed bool)) (err error) {
	s.data.Range(func(key interface{}, value interface{}) bool {
		return callback(key.(string), value.(store.Result))
	})

	return nil
}
