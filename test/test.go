// Package test implements the main types for defining, evaluating and
// publishing overwatch data monitoring tests.
package test

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
	"fmt"
	"reflect"
)

// Kind of monitoring test, determines the result computation rule.
type Kind string

// Test kinds
const (
	// Quality tests evaluate a single data source query.
	Quality Kind = "quality"

	// Consistency tests combine two data source queries.
	Consistency Kind = "consistency"
)

// Action selects the operator combining the two data source
// values of a consistency test.
type Action string

// Consistency actions
const (
	Difference Action = "difference"
	Ratio      Action = "ratio"
)

// ErrZeroDivisor is returned by ComputeResult for ratio tests
// whose second data source resolved to zero.
var ErrZeroDivisor = fmt.Errorf("test: ratio divisor is zero")

// QueryDetails for a data source call
type QueryDetails struct {
	Query string `json:"query" yaml:"query"`
}

// DataSource is one named data source call required by a test.
// Value is set by the fetch pipeline once the call resolves.
type DataSource struct {
	Name    string       `json:"name" yaml:"name"`
	Details QueryDetails `json:"details" yaml:"details"`
	Value   *float64     `json:"value,omitempty" yaml:"value,omitempty"`
}

// PublishTarget is one named publish destination for a test result.
type PublishTarget struct {
	Name          string `json:"name" yaml:"name"`
	Dashboard     string `json:"dashboard" yaml:"dashboard"`
	DashboardType string `json:"dashboard_type" yaml:"dashboard_type"`
}

// Test is one monitoring check. It is immutable after construction except
// for the data source values and the result, which are set at most once per
// run by the pipeline.
type Test struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Team        string            `json:"team" yaml:"team"`
	Kind        Kind              `json:"kind" yaml:"kind"`
	Action      Action            `json:"action,omitempty" yaml:"action,omitempty"`
	Active      bool              `json:"active" yaml:"active"`
	Sources     []DataSource      `json:"sources" yaml:"sources"`
	Targets     []PublishTarget   `json:"publishers" yaml:"publishers"`
	Tags        map[string]string `json:"tags" yaml:"tags"`
	Result      *float64          `json:"result,omitempty" yaml:"result,omitempty"`
}

// Filter is a set of field predicates for Matches. Zero valued
// fields are not evaluated.
type Filter struct {
	Name   string
	Team   string
	Kind   Kind
	Active *bool
}

// Matches returns true if every non zero field of the given filter
// equals the corresponding field of this test.
func (t *Test) Matches(f Filter) (ok bool) {
	if f.Name != "" && t.Name != f.Name {
		return false
	}

	if f.Team != "" && t.Team != f.Team {
		return false
	}

	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}

	if f.Active != nil && t.Active != *f.Active {
		return false
	}

	return true
}

// ComputeResult computes and sets this test result from its resolved data
// source values. For quality tests the result is the single source value.
// For consistency tests the result combines both source values with the
// test action. A zero ratio divisor is a domain error.
func (t *Test) ComputeResult() (err error) {
	for i := range t.Sources {
		if t.Sources[i].Value == nil {
			return fmt.Errorf("test: %s source %s has no resolved value", t.Name, t.Sources[i].Name)
		}
	}

	switch t.Kind {
	case Quality:
		r := *t.Sources[0].Value
		t.Result = &r

	case Consistency:
		switch t.Action {
		case Difference:
			r := *t.Sources[0].Value - *t.Sources[1].Value
			t.Result = &r
		case Ratio:
			if *t.Sources[1].Value == 0 {
				return fmt.Errorf("test: %s: %w", t.Name, ErrZeroDivisor)
			}
			r := *t.Sources[0].Value / *t.Sources[1].Value
			t.Result = &r
		default:
			return fmt.Errorf("test: %s has unknown action: %s", t.Name, t.Action)
		}

	default:
		return fmt.Errorf("test: %s has unknown kind: %s", t.Name, t.Kind)
	}

	return nil
}

// HasTarget checks if this test declares the named publish destination.
func (t *Test) HasTarget(name string) (ok bool) {
	for x := 0; x < len(t.Targets); x++ {
		if t.Targets[x].Name == name {
			return true
		}
	}
	return false
}

// Target returns the publish details this test declares for the named
// destination.
func (t *Test) Target(name string) (target PublishTarget, ok bool) {
	for x := 0; x < len(t.Targets); x++ {
		if t.Targets[x].Name == name {
			return t.Targets[x], true
		}
	}
	return target, false
}

// Equal compares two tests structurally. It is meant for tests and
// deduplication, never for identity.
func (t *Test) Equal(other *Test) (ok bool) {
	return reflect.DeepEqual(t, other)
}
