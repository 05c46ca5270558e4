// Package fetcher implements the data source contracts used to resolve
// overwatch test values, a registry for fetcher types and a manager owning
// the named fetcher instances for the lifetime of one worker run.
package fetcher

/*
   Copyright 2020 BBOXX

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"
	"fmt"
	"sync"

	"github.com/bboxx/overwatch/test"
)

var (
	registry = sync.Map{}

	// ErrNoRows the query returned zero rows
	ErrNoRows = fmt.Errorf("query returned zero rows")

	// ErrQuery the query failed to execute
	ErrQuery = fmt.Errorf("query error")

	// ErrInternal the data source failed internally
	ErrInternal = fmt.Errorf("internal data source error")
)

// Fetcher resolves data source query values. Calls must be independent and
// repeatable. A fetcher is opened once per worker lifetime and closed at
// teardown.
type Fetcher interface {

	// Resolve the value for the given query details
	Resolve(ctx context.Context, details test.QueryDetails) (value float64, err error)

	// Close the fetcher releasing its connections
	Close() (err error)
}

// Config for a named fetcher instance
type Config struct {
	Type     string `json:"type" yaml:"type"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`
}

// Supplier creates fetchers from their config
type Supplier func(config Config) (f Fetcher, err error)

// Register registers fetcher suppliers for a fetcher type
func Register(typ string, s Supplier) (err error) {
	if _, ok := registry.Load(typ); ok {
		return fmt.Errorf("fetcher: %s already registered", typ)
	}
	registry.Store(typ, s)

	return nil
}

// New creates a fetcher of the given type from the registry
func New(config Config) (f Fetcher, err error) {
	spi, ok := registry.Load(config.Type)
	if !ok {
		return nil, fmt.Errorf("fetcher: %s not registered", config.Type)
	}

	sp := spi.(Supplier)
	return sp(config)
}

// Manager holds the named fetcher instances of one worker run
type Manager struct {
	fetchers map[string]Fetcher
}

// NewManager creates all configured fetchers. On any failure already opened
// fetchers are closed before returning.
func NewManager(configs map[string]Config) (m *Manager, err error) {
	m = &Manager{}
	m.fetchers = make(map[string]Fetcher, len(configs))

	for name, config := range configs {
		f, err := New(config)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("fetcher: error creating %s: %w", name, err)
		}
		m.fetchers[name] = f
	}

	return m, nil
}

// Resolve the value of the given data source through its named fetcher
func (m *Manager) Resolve(ctx context.Context, source test.DataSource) (value float64, err error) {
	f, ok := m.fetchers[source.Name]
	if !ok {
		return 0, fmt.Errorf("fetcher: %s not configured", source.Name)
	}

	return f.Resolve(ctx, source.Details)
}

// Close all fetchers releasing their connections. Always closes every
// fetcher, returning the last error seen.
func (m *Manager) Close() (err error) {
	for name, f := range m.fetchers {
		if cerr := f.Close(); cerr != nil {
			err = fmt.Errorf("fetcher: error closing %s: %w", name, cerr)
		}
	}

	return err
}
