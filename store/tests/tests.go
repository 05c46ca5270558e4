// Package tests implements a shared test suite for result store
// implementations.
package tests

import (
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/bboxx/overwatch/store"
)

// Setup function type for creating a store for tests
type Setup func(t *testing.T) (s store.Store)

// Destroy function type for cleaning up after tests
type Destroy func(t *testing.T, s store.Store)

// Run store test suite
func Run(t *testing.T, s Setup, d Destroy) {
	t.Run("StoreHas", StoreHas(t, s, d))
	t.Run("StoreSetGet", StoreSetGet(t, s, d))
	t.Run("StoreDelete", StoreDelete(t, s, d))
	t.Run("StoreIter", StoreIter(t, s, d))
}

func cases() testCases {
	return testCases{
		{result: store.Result{Name: "test1", Value: 1, Tags: map[string]string{"desco": "rwanda"}}, wantErr: false},
		{result: store.Result{Name: "test2", Value: 2, Tags: map[string]string{"desco": "kenya"}}, wantErr: true},
		{result: store.Result{Name: "test3", Value: -3}, wantErr: false},
		{result: store.Result{Name: "test4", Value: 0.25}, wantErr: true},
		{result: store.Result{Name: "test5"}, wantErr: true},
	}
}

// StoreHas test
func StoreHas(t *testing.T, setup Setup, destroy Destroy) func(t *testing.T) {
	return func(t *testing.T) {
		s := setup(t)
		defer destroy(t, s)

		tests := cases()
		for _, tt := range tests {
			if !tt.wantErr {
				s.Set(tt.result.Key(), tt.result)
			}
		}

		for _, tt := range tests {
			t.Run(tt.result.Name, func(t *testing.T) {
				gotExists, err := s.Has(tt.result.Key())
				if err != nil {
					t.Fatal(err)
				}

				if gotExists == tt.wantErr {
					t.Errorf("Store.Has() = %v, want %v", gotExists, !tt.wantErr)
				}
			})
		}
	}
}

// StoreSetGet test
func StoreSetGet(t *testing.T, setup Setup, destroy Destroy) func(t *testing.T) {
	return func(t *testing.T) {
		s := setup(t)
		defer destroy(t, s)

		tests := cases()
		for _, tt := range tests {
			if !tt.wantErr {
				s.Set(tt.result.Key(), tt.result)
			}
		}

		for _, tt := range tests {
			t.Run(tt.result.Name, func(t *testing.T) {
				gotResult, err := s.Get(tt.result.Key())

				if (err != nil) != tt.wantErr {
					t.Errorf("Store.Get() error = %v, wantErr %v", err, tt.wantErr)
					return
				}

				if !tt.wantErr && !reflect.DeepEqual(gotResult, tt.result) {
					t.Errorf("Store.Get() = %v, want %v", gotResult, tt.result)
				}
			})
		}
	}
}

// StoreDelete test
func StoreDelete(t *testing.T, setup Setup, destroy Destroy) func(t *testing.T) {
	return func(t *testing.T) {
		s := setup(t)
		defer destroy(t, s)

		tests := cases()
		for _, tt := range tests {
			if !tt.wantErr {
				s.Set(tt.result.Key(), tt.result)
			}
		}

		for _, tt := range tests {
			t.Run(tt.result.Name, func(t *testing.T) {
				if err := s.Delete(tt.result.Key()); (err != nil) != tt.wantErr {
					t.Errorf("Store.Delete() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	}
}

// StoreIter test
func StoreIter(t *testing.T, setup Setup, destroy Destroy) func(t *testing.T) {
	return func(t *testing.T) {
		s := setup(t)
		defer destroy(t, s)

		tests := cases()
		for _, tt := range tests {
			s.Set(tt.result.Key(), tt.result)
		}

		var counter int32

		cb := func(k string, r store.Result) bool {
			if k != "" && r.Name != "" {
				atomic.AddInt32(&counter, 1)
			}
			return true
		}

		if err := s.Iter(cb); err != nil {
			t.Errorf("Store.Iter() error = %v", err)
		}

		if len(tests) != int(counter) {
			t.Errorf("expected %d iterations, got %d", len(tests), counter)
		}
	}
}

type testCases []struct {
	result  store.Result
	wantErr bool
}
