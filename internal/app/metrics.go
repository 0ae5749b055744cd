package app

import (
	"fmt"

	"github.com/treykane/cli-rank/internal/editor"
	"github.com/treykane/cli-rank/internal/ranking"
)

type rankingMetrics struct {
	ranked    int
	available int
	shown     int
	total     int
}

func computeRankingMetrics(list ranking.List, pool *ranking.Pool, shown int) rankingMetrics {
	available := 0
	for _, id := range pool.IDs() {
		if pool.Available(id) {
			available++
		}
	}
	return rankingMetrics{
		ranked:    len(list),
		available: available,
		shown:     shown,
		total:     pool.Len(),
	}
}

func (m *Model) rankingMetricsSummary() string {
	if !m.shell.Loaded() {
		return ""
	}
	metrics := computeRankingMetrics(m.shell.List(), m.shell.Pool(), m.shell.Count(editor.PanePool))
	summary := fmt.Sprintf("Ranked:%d Left:%d", metrics.ranked, metrics.available)
	if metrics.shown != metrics.total {
		summary += fmt.Sprintf(" Shown:%d/%d", metrics.shown, metrics.total)
	}
	return summary
}
