package stdout

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
	"encoding/json"
	"fmt"

	"github.com/bboxx/overwatch/test"
)

// Config options for the stdout publisher
type Config struct {
	Name   string `json:"name" yaml:"name"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// Publisher prints computed results as JSON, for local development
type Publisher struct {
	config Config
}

// New creates a new stdout publisher
func New(c Config) (p *Publisher) {
	if c.Name == "" {
		c.Name = "stdout"
	}
	return &Publisher{config: c}
}

// Name of this destination
func (p *Publisher) Name() (name string) {
	return p.config.Name
}

// Publish results to stdout
func (p *Publisher) Publish(_ context.Context, tests []*test.Test) (err error) {
	for _, t := range tests {
		var buf []byte

		switch p.config.Pretty {
		case false:
			buf, _ = json.Marshal(t)
		case true:
			buf, _ = json.MarshalIndent(t, "", "  ")
		}

		fmt.Printf("%s\n", buf)
	}

	return nil
}

// UpdateDashboards is a no-op for stdout
func (p *Publisher) UpdateDashboards(_ context.Context, _ []*test.Test) (err error) {
	return nil
}

// Close the publisher
func (p *Publisher) Close() (err error) {
	return nil
}
