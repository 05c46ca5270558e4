package elasticsearch

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
	"crypto/tls"
	"math/rand"
	"net/http"
	"time"

	"github.com/bboxx/overwatch/test"
	"github.com/oklog/ulid/v2"
	"github.com/olivere/elastic/v7"
)

// Config options for the elasticsearch publisher
type Config struct {
	Name              string        `json:"name" yaml:"name"`
	Username          string        `json:"username" yaml:"username"`
	Password          string        `json:"password" yaml:"password"`
	Urls              []string      `json:"urls" yaml:"urls"`
	Index             string        `json:"index" yaml:"index"`
	MaxPendingBytes   int64         `json:"max_pending_bytes" yaml:"max_pending_bytes"`
	MaxPendingResults int64         `json:"max_pending_results" yaml:"max_pending_results"`
	MaxPendingTime    time.Duration `json:"max_pending_time" yaml:"max_pending_time"`
}

// document is the indexed result shape
type document struct {
	Name   string            `json:"name"`
	Team   string            `json:"team"`
	Kind   test.Kind         `json:"kind"`
	Tags   map[string]string `json:"tags"`
	Result float64           `json:"result"`
	Time   time.Time         `json:"@timestamp"`
}

// Publisher bulk indexes computed results into elasticsearch
type Publisher struct {
	config        Config
	client        *elastic.Client
	entropy       *ulid.MonotonicEntropy
	bulkProcessor *elastic.BulkProcessor
}

// New creates a new elasticsearch publisher
func New(config Config) (publisher *Publisher, err error) {
	publisher = &Publisher{}
	publisher.config = config

	if publisher.config.Name == "" {
		publisher.config.Name = "elasticsearch"
	}

	var opts []elastic.ClientOptionFunc

	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	client := &http.Client{Transport: tr}

	opts = append(opts, elastic.SetURL(config.Urls...), elastic.SetHttpClient(client))

	if config.Username != "" && config.Password != "" {
		opts = append(opts, elastic.SetBasicAuth(config.Username, config.Password))
	}

	publisher.client, err = elastic.NewSimpleClient(opts...)
	if err != nil {
		return nil, err
	}

	bps := publisher.client.BulkProcessor()
	if config.MaxPendingBytes > 0 {
		bps = bps.BulkSize(int(config.MaxPendingBytes))
	}

	if config.MaxPendingResults > 0 {
		bps = bps.BulkActions(int(config.MaxPendingResults))
	}

	if config.MaxPendingTime > 0 {
		bps = bps.FlushInterval(config.MaxPendingTime)
	}

	publisher.bulkProcessor, err = bps.Do(context.Background())
	if err != nil {
		return nil, err
	}

	publisher.bulkProcessor.Start(context.Background())
	publisher.entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

	return publisher, nil
}

// Name of this destination
func (p *Publisher) Name() (name string) {
	return p.config.Name
}

// Publish adds one document per computed result to the bulk processor
func (p *Publisher) Publish(_ context.Context, tests []*test.Test) (err error) {
	now := time.Now()

	for _, t := range tests {
		if t.Result == nil {
			continue
		}

		id, _ := ulid.New(ulid.Timestamp(now), p.entropy)

		doc := document{
			Name:   t.Name,
			Team:   t.Team,
			Kind:   t.Kind,
			Tags:   t.Tags,
			Result: *t.Result,
			Time:   now,
		}

		req := elastic.NewBulkIndexRequest().
			OpType("create").
			Index(p.config.Index).
			Id(id.String()).
			Doc(doc)

		p.bulkProcessor.Add(req)
	}

	return nil
}

// UpdateDashboards is a no-op, dashboards are built on the search consumer
func (p *Publisher) UpdateDashboards(_ context.Context, _ []*test.Test) (err error) {
	return nil
}

// Close and flush pending data
func (p *Publisher) Close() (err error) {
	p.bulkProcessor.Flush()
	p.bulkProcessor.Close()
	p.client.Stop()
	return nil
}
