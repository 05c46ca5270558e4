// Package store defines the latest result store contract and registry.
// The store is operational caching for the worker results API, the only
// protocol state crossing invocation boundaries is the dispatch cursor.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	registry = sync.Map{}

	// ErrResultNotFound result not found
	ErrResultNotFound = fmt.Errorf("result not found")
)

// Result is the latest computed result of one test instance
type Result struct {
	Name  string            `json:"name"`
	Team  string            `json:"team"`
	Kind  string            `json:"kind"`
	Tags  map[string]string `json:"tags"`
	Value float64           `json:"value"`
	Time  time.Time         `json:"time"`
	RunID string            `json:"run_id"`
}

// Key identifies a result by test name and tag set. Tests legitimately
// share names across segments, the tags disambiguate.
func (r Result) Key() (key string) {
	pairs := make([]string, 0, len(r.Tags))
	for k, v := range r.Tags {
		pairs = append(pairs, k+":"+v)
	}
	sort.Strings(pairs)

	var b strings.Builder
	b.WriteString(r.Name)
	for _, kv := range pairs {
		b.WriteString("/")
		b.WriteString(kv)
	}
	return b.String()
}

// Store for latest test results
type Store interface {

	// Close the store
	Close() (err error)

	// Has checks if a result exists under the given key
	Has(key string) (exists bool, err error)

	// Get a result from the store
	Get(key string) (result Result, err error)

	// Set stores the given result
	Set(key string, result Result) (err error)

	// Delete the result for the given key
	Delete(key string) (err error)

	// Iter iterates the stored results applying the callback for the key and
	// result pairs. Returning false causes the iteration to stop.
	Iter(callback func(key string, result Result) (proceed bool)) (err error)
}

// Supplier for stores
type Supplier func(uri string) (s Store, err error)

// Register registers store suppliers under a uri scheme
func Register(name string, s Supplier) (err error) {
	if _, ok := registry.Load(name); ok {
		return fmt.Errorf("store: %s already registered", name)
	}
	registry.Store(name, s)

	return nil
}

// New creates a store from a uri like memory:- or leveldb:/data/results
func New(uri string) (s Store, err error) {
	params := strings.SplitN(uri, ":", 2)
	if len(params) != 2 {
		return nil, fmt.Errorf("store: invalid uri %s", uri)
	}

	name := params[0]
	spi, ok := registry.Load(name)
	if !ok {
		return nil, fmt.Errorf("store: %s not registered", name)
	}

	sp := spi.(Supplier)
	return sp(uri)
}
