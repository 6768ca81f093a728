package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rwrrioe/integrity/services/analytics-service/internal/domain/model"
)

func executivePrompt(pipelineName, statsSummary string) string {
	return fmt.Sprintf(`You are a Senior Pipeline Integrity Engineer. Analyze the summary data for pipeline '%s'.

Data Summary:
%s

Task:
1. Identify 3-4 Key Findings based on the stats.
2. Provide 3 Strategic Recommendations (categorized by priority).

OUTPUT FORMAT (Strict JSON):
{
    "findings": ["finding 1", "finding 2", ...],
    "recommendations": [
        {"priority": "High Priority", "title": "Title here", "description": "Actionable advice..."},
        {"priority": "Medium Priority", "title": "Title here", "description": "Actionable advice..."}
    ]
}
Do not use Markdown formatting like `+"```json ... ```"+`. Just raw JSON.
`, pipelineName, statsSummary)
}

func defectPrompt(f model.DefectFeatures) string {
	defectType := f.DefectType
	if defectType == "" {
		defectType = "Unknown"
	}

	var b strings.Builder
	b.WriteString("Analyze the pipeline condition data and failure risk below. Write a detailed report.\n\n")
	b.WriteString("PIPELINE DATA:\n")
	line := func(label, value, unit string) {
		b.WriteString("- ")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		if unit != "" {
			b.WriteString(" ")
			b.WriteString(unit)
		}
		b.WriteString("\n")
	}
	line("Burial depth", num(f.Depth), "m")
	line("Segment length", num(f.Length), "m")
	line("Defect type", defectType, "")
	line("Operating pressure", num(f.Pressure), "bar")
	line("Pipe diameter", num(f.Diameter), "mm")
	line("Pipeline age", num(f.Age), "years")
	line("Vibration (RMS)", num(f.RMSVibration), "")
	line("Vibration (Peak)", num(f.PeakVibration), "")
	line("Anomaly score", num(f.AnomalyScore), "")
	line("ESTIMATED FAILURE RISK", num(f.Risk)+" (scale 0-1)", "")
	b.WriteString(`
TASK:
Write a technical report (plain text, no Markdown # headings) covering:
1. Assessment of the current condition.
2. Analysis of the critical parameters.
3. Repair recommendations.

Be brief and to the point, as for an engineering report. About 150 words.
`)
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
