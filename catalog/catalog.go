// Package catalog builds the ordered set of overwatch tests from declarative
// YAML definitions and partitions it into dispatchable batches.
package catalog

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
	"io/ioutil"
	"path/filepath"
	"sort"
	"time"

	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/test"
	"gopkg.in/yaml.v2"
)

// Definition is the file level YAML document for one logical test name.
// Every metrics entry expands into one test sharing the file level metadata.
type Definition struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Team        string    `json:"team" yaml:"team"`
	Type        test.Kind `json:"type" yaml:"type"`
	Action      string    `json:"action" yaml:"action"`
	Metrics     []Metric  `json:"metrics" yaml:"metrics"`
}

// Metric is one expansion entry within a definition, typically a
// per-segment breakdown of the logical test.
type Metric struct {
	Active     bool                 `json:"active" yaml:"active"`
	Tags       map[string]string    `json:"tags" yaml:"tags"`
	Sources    []test.DataSource    `json:"sources" yaml:"sources"`
	Publishers []test.PublishTarget `json:"publishers" yaml:"publishers"`
}

// Builder builds test catalogs from a definitions path glob.
type Builder struct {
	path string
}

// NewBuilder creates a catalog builder for the given definitions path glob.
func NewBuilder(path string) (b *Builder) {
	return &Builder{path: path}
}

// Build returns the ordered list of active tests. When file names are given
// only definitions from matching file base names are built. Definition files
// are read in lexicographic path order and expansion preserves declaration
// order, keeping same named tests adjacent.
func (b *Builder) Build(names ...string) (tests []*test.Test, err error) {
	active := true
	return b.build(test.Filter{Active: &active}, names...)
}

// BuildAll is like Build but returns inactive tests as well. Used by the
// dashboard maintenance role which reconciles boards for the whole catalog.
func (b *Builder) BuildAll(names ...string) (tests []*test.Test, err error) {
	return b.build(test.Filter{}, names...)
}

func (b *Builder) build(filter test.Filter, names ...string) (tests []*test.Test, err error) {
	start := time.Now()

	paths, err := b.findFiles(names)
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		def, err := readDefinition(path)
		if err != nil {
			return nil, err
		}

		expanded, err := Expand(def)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", path, err)
		}

		for _, t := range expanded {
			if t.Matches(filter) {
				tests = append(tests, t)
			}
		}
	}

	log.Info("built test catalog").String("path", b.path).
		Int("tests", int64(len(tests))).Int("files", int64(len(paths))).
		Float("duration_seconds", time.Since(start).Seconds()).Log()

	return tests, nil
}

// findFiles resolves the definitions path glob in lexicographic order,
// optionally restricted to the given file base names.
func (b *Builder) findFiles(names []string) (paths []string, err error) {
	paths, err = filepath.Glob(b.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid definitions path %s: %w", b.path, err)
	}
	sort.Strings(paths)

	if len(names) == 0 {
		return paths, nil
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	var filtered []string
	for _, p := range paths {
		if _, ok := wanted[filepath.Base(p)]; ok {
			filtered = append(filtered, p)
		}
	}

	return filtered, nil
}

func readDefinition(path string) (def Definition, err error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("catalog: error reading definition %s: %w", path, err)
	}

	if err = yaml.Unmarshal(buf, &def); err != nil {
		return def, fmt.Errorf("catalog: error parsing definition %s: %w", path, err)
	}

	return def, nil
}

// Expand expands one definition into its individual tests. A malformed
// definition fails the whole call, silently dropping a test would hide it
// from monitoring coverage.
func Expand(def Definition) (tests []*test.Test, err error) {
	if err = validate(def); err != nil {
		return nil, err
	}

	for i, m := range def.Metrics {
		if err = validateMetric(def, i, m); err != nil {
			return nil, err
		}

		t := &test.Test{
			Name:        def.Name,
			Description: def.Description,
			Team:        def.Team,
			Kind:        def.Type,
			Action:      test.Action(def.Action),
			Active:      m.Active,
			Sources:     m.Sources,
			Targets:     m.Publishers,
			Tags:        m.Tags,
		}
		tests = append(tests, t)
	}

	return tests, nil
}

func validate(def Definition) (err error) {
	switch {
	case def.Name == "":
		return fmt.Errorf("definition has no name")
	case def.Team == "":
		return fmt.Errorf("definition %s has no team", def.Name)
	case def.Type != test.Quality && def.Type != test.Consistency:
		return fmt.Errorf("definition %s has invalid type: %q", def.Name, def.Type)
	case len(def.Metrics) == 0:
		return fmt.Errorf("definition %s has no metrics", def.Name)
	}

	if def.Type == test.Consistency {
		if a := test.Action(def.Action); a != test.Difference && a != test.Ratio {
			return fmt.Errorf("definition %s has invalid action: %q", def.Name, def.Action)
		}
	}

	return nil
}

func validateMetric(def Definition, index int, m Metric) (err error) {
	switch {
	case def.Type == test.Quality && len(m.Sources) != 1:
		return fmt.Errorf("definition %s metric %d: quality tests require exactly one source, got %d",
			def.Name, index, len(m.Sources))
	case def.Type == test.Consistency && len(m.Sources) != 2:
		return fmt.Errorf("definition %s metric %d: consistency tests require exactly two sources, got %d",
			def.Name, index, len(m.Sources))
	case len(m.Publishers) == 0:
		return fmt.Errorf("definition %s metric %d: no publishers", def.Name, index)
	}

	for _, s := range m.Sources {
		if s.Name == "" || s.Details.Query == "" {
			return fmt.Errorf("definition %s metric %d: source missing name or query", def.Name, index)
		}
	}

	return nil
}

// Subset returns the next contiguous batch starting at startIndex with at
// most maxSize tests, never splitting a run of same named tests across the
// batch boundary. When the boundary falls inside such a run, the tail of the
// candidate slice sharing the last name is trimmed and reappears at the
// start of the next batch. nextIndex is the cursor for the following call.
//
// Forward progress requires maxSize to exceed the longest same name run,
// see LongestRun.
func Subset(tests []*test.Test, startIndex, maxSize int) (batch []*test.Test, nextIndex int) {
	end := startIndex + maxSize

	if end >= len(tests) || tests[end-1].Name != tests[end].Name {
		if end > len(tests) {
			end = len(tests)
		}
		return tests[startIndex:end], end
	}

	last := tests[end-1].Name
	for _, t := range tests[startIndex:end] {
		if t.Name != last {
			batch = append(batch, t)
		}
	}

	return batch, startIndex + len(batch)
}

// LongestRun returns the length of the longest run of adjacent same named
// tests. Batch sizes at or below this value cannot make forward progress.
func LongestRun(tests []*test.Test) (n int) {
	run := 0
	for i := range tests {
		if i == 0 || tests[i].Name != tests[i-1].Name {
			run = 0
		}
		run++
		if run > n {
			n = run
		}
	}
	return n
}

// FileNames returns the unique definition file base names for the given
// tests in catalog order, as carried in slave dispatch payloads.
func FileNames(tests []*test.Test) (names []string) {
	seen := make(map[string]struct{}, len(tests))
	for _, t := range tests {
		name := t.Name + ".yaml"
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
