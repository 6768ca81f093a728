package service

import (
	"fmt"
	"strings"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
)

// TypeCount is the number of defects of one type.
type TypeCount struct {
	Type  string
	Count int
}

// DefectStats aggregates the defects of one pipeline.
type DefectStats struct {
	Total    int
	Critical int
	// Breakdown lists types in order of first appearance.
	Breakdown []TypeCount
}

// ComputeStats counts defects overall, by criticality and by type.
func ComputeStats(defects []model.DefectMarker) DefectStats {
	stats := DefectStats{Total: len(defects)}
	index := make(map[string]int)

	for _, d := range defects {
		if d.Severity.IsCritical() {
			stats.Critical++
		}
		i, ok := index[d.Type]
		if !ok {
			i = len(stats.Breakdown)
			index[d.Type] = i
			stats.Breakdown = append(stats.Breakdown, TypeCount{Type: d.Type})
		}
		stats.Breakdown[i].Count++
	}
	return stats
}

// Summary renders the statistics as the sentence given to the narrative
// engine, e.g. "Total defects: 3. Critical: 1. Breakdown: {'Crack': 2, 'Dent': 1}".
func (s DefectStats) Summary() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, tc := range s.Breakdown {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteKey(tc.Type))
		fmt.Fprintf(&b, ": %d", tc.Count)
	}
	b.WriteByte('}')

	return fmt.Sprintf("Total defects: %d. Critical: %d. Breakdown: %s", s.Total, s.Critical, b.String())
}

// quoteKey quotes a breakdown key with single quotes, switching to double
// quotes when the key itself holds a single quote and no double quote.
func quoteKey(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\t", `\t`)
	return "'" + r.Replace(s) + "'"
}
