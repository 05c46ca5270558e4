package dispatch

import (
	"context"
	"testing"

	"github.com/bboxx/overwatch/test"
	"github.com/google/go-cmp/cmp"
)

type fakeInvoker struct {
	payloads []Payload
}

func (f *fakeInvoker) Invoke(_ context.Context, p Payload) error {
	f.payloads = append(f.payloads, p)
	return nil
}

func named(names ...string) (tests []*test.Test) {
	for _, n := range names {
		tests = append(tests, &test.Test{Name: n, Kind: test.Quality})
	}
	return tests
}

func TestRunDispatchesWholeCatalog(t *testing.T) {
	tests := named("a", "a", "b", "c", "c")
	invoker := &fakeInvoker{}

	d := New(invoker, Config{BatchSize: 3, MaxIterations: 10})

	if err := d.Run(context.Background(), tests, 0); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if d.State() != StateDone {
		t.Fatalf("unexpected state: %s", d.State())
	}

	for _, p := range invoker.payloads {
		if p.Role != RoleSlave {
			t.Fatalf("unexpected role in payload: %s", p.Role)
		}
	}

	// same named tests stay within one dispatch
	want := [][]string{{"a.yaml", "b.yaml"}, {"c.yaml"}}
	var got [][]string
	for _, p := range invoker.payloads {
		got = append(got, p.FileNames)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected dispatched files (-want +got):\n%s", diff)
	}
}

func TestRunHandsOffWhenBudgetExhausted(t *testing.T) {
	tests := named("a", "b", "c", "d", "e", "f")
	invoker := &fakeInvoker{}

	d := New(invoker, Config{BatchSize: 2, MaxIterations: 2})

	if err := d.Run(context.Background(), tests, 0); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if d.State() != StateHandingOff {
		t.Fatalf("unexpected state: %s", d.State())
	}

	if len(invoker.payloads) != 3 {
		t.Fatalf("expected 2 dispatches and 1 hand off, got %d payloads", len(invoker.payloads))
	}

	last := invoker.payloads[2]
	if last.Role != RoleMaster {
		t.Fatalf("expected master hand off, got role %s", last.Role)
	}

	// two batches of two dispatched, hand off resumes at 4
	if last.StartIndex != 4 {
		t.Fatalf("unexpected hand off cursor: %d", last.StartIndex)
	}

	if len(last.FileNames) != 0 {
		t.Fatal("hand off payload must carry only the cursor")
	}
}

func TestRunResumesFromCursor(t *testing.T) {
	tests := named("a", "b", "c", "d", "e", "f")
	invoker := &fakeInvoker{}

	d := New(invoker, Config{BatchSize: 2, MaxIterations: 10})

	if err := d.Run(context.Background(), tests, 4); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if d.State() != StateDone {
		t.Fatalf("unexpected state: %s", d.State())
	}

	if len(invoker.payloads) != 1 {
		t.Fatalf("expected a single dispatch, got %d", len(invoker.payloads))
	}

	if diff := cmp.Diff([]string{"e.yaml", "f.yaml"}, invoker.payloads[0].FileNames); diff != "" {
		t.Fatalf("unexpected batch (-want +got):\n%s", diff)
	}
}

func TestRunRejectsTooSmallBatchSize(t *testing.T) {
	tests := named("a", "a", "a", "b")
	invoker := &fakeInvoker{}

	d := New(invoker, Config{BatchSize: 3, MaxIterations: 10})

	if err := d.Run(context.Background(), tests, 0); err == nil {
		t.Fatal("expected configuration error for batch size at longest run")
	}

	if len(invoker.payloads) != 0 {
		t.Fatalf("no dispatch expected on configuration error, got %d", len(invoker.payloads))
	}
}
