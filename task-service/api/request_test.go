package api

import (
	"math"
	"testing"

	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

func TestToIndex(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	cases := []struct {
		in   *float64
		want int
		ok   bool
		nil  bool
	}{
		{in: nil, ok: true, nil: true},
		{in: f(0), want: 0, ok: true},
		{in: f(7), want: 7, ok: true},
		{in: f(2.0), want: 2, ok: true},
		{in: f(2.5)},
		{in: f(-1)},
		{in: f(math.NaN())},
		{in: f(math.Inf(1))},
		{in: f(math.MaxInt32), want: board.AppendIndex, ok: true},
		{in: f(math.MaxInt32 + 1), want: board.AppendIndex, ok: true},
		{in: f(1e15), want: board.AppendIndex, ok: true},
	}
	for i, tc := range cases {
		got, err := toIndex("position", tc.in)
		if !tc.ok {
			if !domain.IsValidation(err) {
				t.Fatalf("case %d: expected validation error, got %v", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
		if tc.nil {
			if got != nil {
				t.Fatalf("case %d: expected nil, got %d", i, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Fatalf("case %d: expected %d, got %v", i, tc.want, got)
		}
	}
}

func TestTakeIndexRemovesKey(t *testing.T) {
	raw := map[string]any{"position": float64(4), "title": "x"}
	got, err := takeIndex(raw, "position")
	if err != nil || got == nil || *got != 4 {
		t.Fatalf("unexpected result %v %v", got, err)
	}
	if _, ok := raw["position"]; ok {
		t.Fatalf("position should be removed from raw fields")
	}

	if _, err := takeIndex(map[string]any{"position": "4"}, "position"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for string position, got %v", err)
	}
	if got, err := takeIndex(map[string]any{}, "position"); got != nil || err != nil {
		t.Fatalf("expected no position, got %v %v", got, err)
	}
}

func TestTakeStatus(t *testing.T) {
	raw := map[string]any{"status": "review"}
	got, err := takeStatus(raw, "status")
	if err != nil || got == nil || *got != domain.StatusReview {
		t.Fatalf("unexpected result %v %v", got, err)
	}
	if _, err := takeStatus(map[string]any{"status": 3}, "status"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
