package test

import (
	"errors"
	"testing"
)

func value(v float64) *float64 {
	return &v
}

func TestQualityComputeResult(t *testing.T) {
	for _, v := range []float64{42, 0, -17.5} {
		tst := Test{
			Name:    "active_ccu_count",
			Kind:    Quality,
			Sources: []DataSource{{Name: "repo_db", Value: value(v)}},
		}

		if err := tst.ComputeResult(); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if tst.Result == nil || *tst.Result != v {
			t.Fatalf("unexpected result: %v, expected %f", tst.Result, v)
		}
	}
}

func TestConsistencyDifference(t *testing.T) {
	tst := Test{
		Name:   "ccu_link_true_record",
		Kind:   Consistency,
		Action: Difference,
		Sources: []DataSource{
			{Name: "repo_db", Value: value(10)},
			{Name: "crm_db", Value: value(25)},
		},
	}

	if err := tst.ComputeResult(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if *tst.Result != -15 {
		t.Fatalf("unexpected result: %f, expected -15", *tst.Result)
	}
}

func TestConsistencyRatio(t *testing.T) {
	tst := Test{
		Name:   "ccu_link_true_record",
		Kind:   Consistency,
		Action: Ratio,
		Sources: []DataSource{
			{Name: "repo_db", Value: value(30)},
			{Name: "crm_db", Value: value(60)},
		},
	}

	if err := tst.ComputeResult(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if *tst.Result != 0.5 {
		t.Fatalf("unexpected result: %f, expected 0.5", *tst.Result)
	}
}

func TestConsistencyRatioZeroDivisor(t *testing.T) {
	tst := Test{
		Name:   "ccu_link_true_record",
		Kind:   Consistency,
		Action: Ratio,
		Sources: []DataSource{
			{Name: "repo_db", Value: value(30)},
			{Name: "crm_db", Value: value(0)},
		},
	}

	err := tst.ComputeResult()
	if !errors.Is(err, ErrZeroDivisor) {
		t.Fatalf("expected ErrZeroDivisor, got: %v", err)
	}

	if tst.Result != nil {
		t.Fatalf("result set on domain error: %f", *tst.Result)
	}
}

func TestComputeResultUnresolvedSource(t *testing.T) {
	tst := Test{
		Name:   "ccu_link_true_record",
		Kind:   Consistency,
		Action: Difference,
		Sources: []DataSource{
			{Name: "repo_db", Value: value(30)},
			{Name: "crm_db"},
		},
	}

	if err := tst.ComputeResult(); err == nil {
		t.Fatal("expected error for unresolved source value")
	}
}

func TestMatches(t *testing.T) {
	active := true
	inactive := false

	tst := Test{Name: "payments_volume", Team: "billing", Kind: Quality, Active: true}

	cases := []struct {
		filter Filter
		match  bool
	}{
		{Filter{}, true},
		{Filter{Name: "payments_volume"}, true},
		{Filter{Name: "other"}, false},
		{Filter{Team: "billing", Kind: Quality}, true},
		{Filter{Team: "data_insight"}, false},
		{Filter{Active: &active}, true},
		{Filter{Active: &inactive}, false},
		{Filter{Name: "payments_volume", Active: &inactive}, false},
	}

	for i, c := range cases {
		if tst.Matches(c.filter) != c.match {
			t.Fatalf("case %d: expected match=%t for filter %+v", i, c.match, c.filter)
		}
	}
}

func TestEqual(t *testing.T) {
	a := Test{
		Name: "payments_volume",
		Kind: Quality,
		Tags: map[string]string{"desco": "rwanda"},
		Sources: []DataSource{
			{Name: "repo_db", Details: QueryDetails{Query: "select count(*) from payments"}},
		},
	}
	b := a
	b.Tags = map[string]string{"desco": "rwanda"}

	if !a.Equal(&b) {
		t.Fatal("expected structural equality")
	}

	b.Tags["desco"] = "kenya"
	if a.Equal(&b) {
		t.Fatal("expected inequality after tag change")
	}
}

func TestTargetLookup(t *testing.T) {
	tst := Test{
		Name: "payments_volume",
		Targets: []PublishTarget{
			{Name: "bboxx_dd", Dashboard: "Payments", DashboardType: "timeboard"},
		},
	}

	if !tst.HasTarget("bboxx_dd") {
		t.Fatal("expected target bboxx_dd")
	}

	if tst.HasTarget("stdout") {
		t.Fatal("unexpected target stdout")
	}

	target, ok := tst.Target("bboxx_dd")
	if !ok || target.Dashboard != "Payments" {
		t.Fatalf("unexpected target details: %+v", target)
	}
}
