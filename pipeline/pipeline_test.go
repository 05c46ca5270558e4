package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bboxx/overwatch/fetcher"
	"github.com/bboxx/overwatch/publisher"
	"github.com/bboxx/overwatch/store"
	"github.com/bboxx/overwatch/store/memory"
	"github.com/bboxx/overwatch/test"
)

type fakeResolver struct {
	values map[string]float64
	fails  map[string]error
}

func (r *fakeResolver) Resolve(_ context.Context, source test.DataSource) (float64, error) {
	if err, ok := r.fails[source.Name]; ok {
		return 0, err
	}
	return r.values[source.Name], nil
}

type fakePublisher struct {
	name     string
	fail     bool
	received []*test.Test
}

func (p *fakePublisher) Name() string { return p.name }

func (p *fakePublisher) Publish(_ context.Context, tests []*test.Test) error {
	if p.fail {
		return fmt.Errorf("publish failed")
	}
	p.received = append(p.received, tests...)
	return nil
}

func (p *fakePublisher) UpdateDashboards(_ context.Context, _ []*test.Test) error { return nil }
func (p *fakePublisher) Close() error                                             { return nil }

func qualityTest(name, target, source string) *test.Test {
	return &test.Test{
		Name:    name,
		Kind:    test.Quality,
		Active:  true,
		Sources: []test.DataSource{{Name: source}},
		Targets: []test.PublishTarget{{Name: target}},
	}
}

func TestRunIsolatesFetchFailures(t *testing.T) {
	resolver := &fakeResolver{
		values: map[string]float64{"db1": 10, "db3": 30},
		fails:  map[string]error{"db2": fmt.Errorf("boom: %w", fetcher.ErrQuery)},
	}

	tests := []*test.Test{
		qualityTest("first", "sink", "db1"),
		qualityTest("second", "sink", "db2"),
		qualityTest("third", "sink", "db3"),
	}

	sink := &fakePublisher{name: "sink"}
	pm := publisher.NewManager()
	pm.Add(sink)

	p := New(resolver, pm, nil, time.Second, "run1")
	done := p.Run(context.Background(), tests)

	if len(done) != 2 {
		t.Fatalf("expected 2 tests done, got %d", len(done))
	}

	for _, d := range done {
		if d.Name == "second" {
			t.Fatal("failing test included in output")
		}
		if d.Result == nil {
			t.Fatalf("test %s has no computed result", d.Name)
		}
	}

	if *done[0].Result != 10 || *done[1].Result != 30 {
		t.Fatalf("unexpected results: %f, %f", *done[0].Result, *done[1].Result)
	}

	if len(sink.received) != 2 {
		t.Fatalf("expected 2 published tests, got %d", len(sink.received))
	}
}

func TestRunDropsZeroDivisor(t *testing.T) {
	resolver := &fakeResolver{values: map[string]float64{"db1": 10, "db2": 0}}

	ratio := &test.Test{
		Name:   "ratio_check",
		Kind:   test.Consistency,
		Action: test.Ratio,
		Sources: []test.DataSource{
			{Name: "db1"},
			{Name: "db2"},
		},
		Targets: []test.PublishTarget{{Name: "sink"}},
	}

	pm := publisher.NewManager()
	pm.Add(&fakePublisher{name: "sink"})

	p := New(resolver, pm, nil, time.Second, "run1")
	done := p.Run(context.Background(), []*test.Test{ratio})

	if len(done) != 0 {
		t.Fatalf("expected zero divisor test dropped, got %d done", len(done))
	}
}

func TestRunGroupsPerDestination(t *testing.T) {
	resolver := &fakeResolver{values: map[string]float64{"db1": 1}}

	tests := []*test.Test{
		qualityTest("for_a", "a", "db1"),
		qualityTest("for_b", "b", "db1"),
		qualityTest("for_both", "a", "db1"),
	}
	tests[2].Targets = append(tests[2].Targets, test.PublishTarget{Name: "b"})

	a := &fakePublisher{name: "a"}
	b := &fakePublisher{name: "b"}
	pm := publisher.NewManager()
	pm.Add(a)
	pm.Add(b)

	p := New(resolver, pm, nil, time.Second, "run1")
	p.Run(context.Background(), tests)

	if len(a.received) != 2 {
		t.Fatalf("destination a expected 2 tests, got %d", len(a.received))
	}

	if len(b.received) != 2 {
		t.Fatalf("destination b expected 2 tests, got %d", len(b.received))
	}
}

func TestRunIsolatesPublishFailures(t *testing.T) {
	resolver := &fakeResolver{values: map[string]float64{"db1": 1}}

	tests := []*test.Test{qualityTest("check", "broken", "db1")}
	tests[0].Targets = append(tests[0].Targets, test.PublishTarget{Name: "healthy"})

	broken := &fakePublisher{name: "broken", fail: true}
	healthy := &fakePublisher{name: "healthy"}
	pm := publisher.NewManager()
	pm.Add(broken)
	pm.Add(healthy)

	p := New(resolver, pm, nil, time.Second, "run1")
	p.Run(context.Background(), tests)

	if len(healthy.received) != 1 {
		t.Fatalf("healthy destination expected 1 test, got %d", len(healthy.received))
	}
}

func TestRunRecordsResults(t *testing.T) {
	resolver := &fakeResolver{values: map[string]float64{"db1": 7}}

	results, err := memory.New("")
	if err != nil {
		t.Fatal(err)
	}

	pm := publisher.NewManager()
	pm.Add(&fakePublisher{name: "sink"})

	tst := qualityTest("check", "sink", "db1")
	tst.Tags = map[string]string{"desco": "rwanda"}

	p := New(resolver, pm, results, time.Second, "run1")
	p.Run(context.Background(), []*test.Test{tst})

	var stored []store.Result
	results.Iter(func(_ string, r store.Result) bool {
		stored = append(stored, r)
		return true
	})

	if len(stored) != 1 {
		t.Fatalf("expected 1 stored result, got %d", len(stored))
	}

	if stored[0].Value != 7 || stored[0].RunID != "run1" {
		t.Fatalf("unexpected stored result: %+v", stored[0])
	}
}
