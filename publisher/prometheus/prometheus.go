package prometheus

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
	"net/http"
	"strings"

	"github.com/bboxx/overwatch/test"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config options for the prometheus publisher
type Config struct {
	Name   string   `json:"name" yaml:"name"`
	Path   string   `json:"path" yaml:"path"`
	Labels []string `json:"labels" yaml:"labels"`
}

// Publisher exposes the latest computed results on a scrape endpoint.
// Only available in server mode where a router is running.
type Publisher struct {
	config    Config
	published prometheus.Counter
	results   *prometheus.GaugeVec
}

// New creates a new prometheus publisher and registers its scrape
// handler on the given router
func New(c Config, router *httprouter.Router) (p *Publisher, err error) {
	if !strings.HasPrefix(c.Path, "/") {
		return nil, fmt.Errorf("prometheus: url path must start with /")
	}

	if c.Name == "" {
		c.Name = "prometheus"
	}

	p = &Publisher{}
	p.config = c

	p.published = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "overwatch",
		Subsystem: "total",
		Name:      "published",
		Help:      "total number of published test results",
	})

	labels := append([]string{"test_name", "team"}, c.Labels...)
	p.results = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "overwatch",
		Subsystem: "current",
		Name:      "result",
		Help:      "latest computed test results"},
		labels)

	router.Handler(http.MethodGet, c.Path, promhttp.Handler())
	return p, nil
}

// Name of this destination
func (p *Publisher) Name() (name string) {
	return p.config.Name
}

// Publish sets the result gauge for each test
func (p *Publisher) Publish(_ context.Context, tests []*test.Test) (err error) {
	for _, t := range tests {
		if t.Result == nil {
			continue
		}

		labels := prometheus.Labels{"test_name": t.Name, "team": t.Team}
		for _, l := range p.config.Labels {
			labels[l] = t.Tags[l]
		}

		p.results.With(labels).Set(*t.Result)
		p.published.Add(1)
	}

	return nil
}

// UpdateDashboards is a no-op, dashboards are built on the scrape consumer
func (p *Publisher) UpdateDashboards(_ context.Context, _ []*test.Test) (err error) {
	return nil
}

// Close the publisher
func (p *Publisher) Close() (err error) {
	return nil
}
