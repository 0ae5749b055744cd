package app

import (
	"testing"

	"github.com/treykane/cli-rank/internal/ranking"
)

func TestComputeRankingMetrics(t *testing.T) {
	pool := ranking.NewPool([]ranking.ID{"a", "b", "c", "d", "e"})
	list := ranking.List{"a", "c"}
	pool.SetPlaced(list)
	pool.SetExcluded([]ranking.ID{"e"})

	got := computeRankingMetrics(list, pool, 4)
	want := rankingMetrics{ranked: 2, available: 2, shown: 4, total: 5}
	if got != want {
		t.Fatalf("computeRankingMetrics = %+v, want %+v", got, want)
	}
}

func TestRankingMetricsSummaryShowsFilteredCount(t *testing.T) {
	m, _ := newTestModel(t, testModelOptions{ranked: 1})
	if got := m.rankingMetricsSummary(); got != "Ranked:1 Left:11" {
		t.Fatalf("unexpected summary %q", got)
	}

	m.shell.Filter("12")
	got := m.rankingMetricsSummary()
	if got != "Ranked:1 Left:11 Shown:1/12" {
		t.Fatalf("unexpected filtered summary %q", got)
	}
}
