// Package postgres implements a fetcher for PostgreSQL data sources.
package postgres

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
	"database/sql"
	"fmt"

	"github.com/bboxx/overwatch/fetcher"
	"github.com/bboxx/overwatch/test"
	"github.com/lib/pq"
)

func init() {
	fetcher.Register("postgres",
		func(config fetcher.Config) (f fetcher.Fetcher, err error) {
			return New(config)
		})
}

var _ fetcher.Fetcher = (*Fetcher)(nil)

// Fetcher resolves query values from one PostgreSQL database.
// One instance holds one connection pool for the worker lifetime.
type Fetcher struct {
	db *sql.DB
}

// New creates a postgres fetcher from the given config
func New(config fetcher.Config) (f *Fetcher, err error) {
	port := config.Port
	if port == 0 {
		port = 5432
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		config.Host, port, config.Database, config.User, config.Password, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: error opening connection: %w", err)
	}

	return &Fetcher{db: db}, nil
}

// Resolve executes the query and returns the value of the first column of
// the first row. Failures are mapped to the fetcher error taxonomy.
func (f *Fetcher) Resolve(ctx context.Context, details test.QueryDetails) (value float64, err error) {
	err = f.db.QueryRowContext(ctx, details.Query).Scan(&value)

	switch e := err.(type) {
	case nil:
		return value, nil
	case *pq.Error:
		if e.Code.Class().Name() == "internal_error" {
			return 0, fmt.Errorf("postgres: %s: %w", e.Message, fetcher.ErrInternal)
		}
		return 0, fmt.Errorf("postgres: %s: %w", e.Message, fetcher.ErrQuery)
	default:
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("postgres: %w", fetcher.ErrNoRows)
		}
		return 0, fmt.Errorf("postgres: %s: %w", err, fetcher.ErrInternal)
	}
}

// Close the underlying connection pool for clean teardown
func (f *Fetcher) Close() (err error) {
	return f.db.Close()
}
