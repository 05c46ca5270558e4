// Package datadog implements a publisher sending metric points to the
// Datadog API and reconciling timeboards for the published series.
package datadog

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
	"sort"
	"strings"
	"time"

	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/test"
	"github.com/zorkian/go-datadog-api"
)

// DefaultMetricPrefix for published series
const DefaultMetricPrefix = "overwatch"

// Config options for the datadog publisher
type Config struct {
	Name         string `json:"name" yaml:"name"`
	APIKey       string `json:"api_key" yaml:"api_key"`
	AppKey       string `json:"app_key" yaml:"app_key"`
	MetricPrefix string `json:"metric_prefix" yaml:"metric_prefix"`
}

// Publisher sends metric points to datadog and maintains timeboards
type Publisher struct {
	client *datadog.Client
	config Config
}

// New creates a new datadog publisher
func New(c Config) (p *Publisher) {
	if c.Name == "" {
		c.Name = "datadog"
	}

	if c.MetricPrefix == "" {
		c.MetricPrefix = DefaultMetricPrefix
	}

	return &Publisher{
		client: datadog.NewClient(c.APIKey, c.AppKey),
		config: c,
	}
}

// Name of this destination
func (p *Publisher) Name() (name string) {
	return p.config.Name
}

// Publish sends two series per test: a detailed series under the test name
// for per test graphs, and a summary series under the dashboard name with a
// test_name tag for top level graphs.
func (p *Publisher) Publish(_ context.Context, tests []*test.Test) (err error) {
	start := time.Now()
	now := float64(start.Unix())

	var series []datadog.Metric
	for _, t := range tests {
		if t.Result == nil {
			continue
		}

		target, ok := t.Target(p.config.Name)
		if !ok {
			continue
		}

		board := boardMetricName(target.Dashboard)
		point := datadog.DataPoint{&now, t.Result}

		detailed := datadog.Metric{
			Metric: datadog.String(p.config.MetricPrefix + "." + board + "." + t.Name),
			Points: []datadog.DataPoint{point},
			Tags:   tagList(t.Tags),
		}

		summary := datadog.Metric{
			Metric: datadog.String(p.config.MetricPrefix + "." + board),
			Points: []datadog.DataPoint{point},
			Tags:   append(tagList(t.Tags), "test_name:"+t.Name),
		}

		series = append(series, detailed, summary)
	}

	if err = p.client.PostMetrics(series); err != nil {
		return fmt.Errorf("datadog: error posting metrics: %w", err)
	}

	log.Info("sent metric points to datadog").
		Int("tests", int64(len(tests))).Int("series", int64(len(series))).
		Float("duration_seconds", time.Since(start).Seconds()).Log()

	return nil
}

// UpdateDashboards reconciles one timeboard per dashboard name declared by
// the given tests, creating missing boards and updating existing ones.
func (p *Publisher) UpdateDashboards(_ context.Context, tests []*test.Test) (err error) {
	perBoard := make(map[string][]*test.Test)
	for _, t := range tests {
		target, ok := t.Target(p.config.Name)
		if !ok || !strings.EqualFold(target.DashboardType, "timeboard") {
			continue
		}
		perBoard[target.Dashboard] = append(perBoard[target.Dashboard], t)
	}

	boards, err := p.client.GetDashboards()
	if err != nil {
		return fmt.Errorf("datadog: error listing timeboards: %w", err)
	}

	ids := make(map[string]int, len(boards))
	for _, b := range boards {
		if b.Title != nil && b.Id != nil {
			ids[*b.Title] = *b.Id
		}
	}

	for title, boardTests := range perBoard {
		graphs := p.boardGraphs(title, boardTests)

		board := &datadog.Dashboard{
			Title:       datadog.String(title),
			Description: datadog.String(""),
			Graphs:      graphs,
		}

		id, exists := ids[title]
		if !exists {
			if _, err := p.client.CreateDashboard(board); err != nil {
				return fmt.Errorf("datadog: error creating timeboard %s: %w", title, err)
			}
			log.Info("created timeboard").String("title", title).
				Int("graphs", int64(len(graphs))).Log()
			continue
		}

		board.Id = datadog.Int(id)
		if err := p.client.UpdateDashboard(board); err != nil {
			return fmt.Errorf("datadog: error updating timeboard %s: %w", title, err)
		}
		log.Info("updated timeboard").String("title", title).
			Int("graphs", int64(len(graphs))).Log()
	}

	return nil
}

// Close the publisher
func (p *Publisher) Close() (err error) {
	return nil
}

// boardGraphs builds the toplist and change summary graphs plus one
// timeseries graph per unique test name.
func (p *Publisher) boardGraphs(title string, tests []*test.Test) (graphs []datadog.Graph) {
	board := p.config.MetricPrefix + "." + boardMetricName(title)

	graphs = append(graphs, datadog.Graph{
		Title: datadog.String("top offenders"),
		Definition: &datadog.GraphDefinition{
			Viz: datadog.String("toplist"),
			Requests: []datadog.GraphDefinitionRequest{{
				Query: datadog.String(
					fmt.Sprintf("top(avg:%s{*} by {test_name,desco}, 50, 'last', 'desc')", board)),
			}},
		},
	})

	graphs = append(graphs, datadog.Graph{
		Title: datadog.String("change vs previous day"),
		Definition: &datadog.GraphDefinition{
			Viz: datadog.String("change"),
			Requests: []datadog.GraphDefinitionRequest{{
				Query:          datadog.String(fmt.Sprintf("avg:%s{*} by {test_name,desco}", board)),
				CompareTo:      datadog.String("day_before"),
				ChangeType:     datadog.String("absolute"),
				OrderBy:        datadog.String("change"),
				OrderDirection: datadog.String("desc"),
				ExtraCol:       datadog.String("present"),
				IncreaseGood:   datadog.Bool(false),
			}},
		},
	})

	seen := make(map[string]struct{}, len(tests))
	for _, t := range tests {
		if _, ok := seen[t.Name]; ok {
			continue
		}
		seen[t.Name] = struct{}{}

		graphs = append(graphs, datadog.Graph{
			Title: datadog.String(t.Name),
			Definition: &datadog.GraphDefinition{
				Viz: datadog.String("timeseries"),
				Requests: []datadog.GraphDefinitionRequest{{
					Query: datadog.String(fmt.Sprintf("avg:%s.%s{*} by {desco}", board, t.Name)),
				}},
			},
		})
	}

	return graphs
}

func boardMetricName(dashboard string) (name string) {
	return strings.ReplaceAll(dashboard, " ", "_")
}

func tagList(tags map[string]string) (list []string) {
	for k, v := range tags {
		list = append(list, k+":"+v)
	}
	sort.Strings(list)
	return list
}
