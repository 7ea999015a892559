package reporting

import (
	"fmt"
	"strings"
	"time"

	"crypto-backtest-lab/internal/domain"
)

// RenderMarkdown renders the report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Evaluation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Evaluated configurations: %d\n\n", len(r.Results)))

	// Ranking
	sb.WriteString("## Ranking\n\n")
	if len(r.Results) > 0 {
		sb.WriteString("| Rank | Name | Score | AvgGain | AvgBaseGain | AvgOrders | AvgFee |\n")
		sb.WriteString("|------|------|-------|---------|-------------|-----------|--------|\n")
		for i, result := range r.Results {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %.4f | %.4f | %.1f | %.2f |\n",
				i+1, result.Name, result.Score,
				result.AvgGain, result.AvgBaseGain,
				result.AvgTotalExecutedOrders, result.AvgTotalFee))
		}
	} else {
		sb.WriteString("No evaluation results available.\n")
	}
	sb.WriteString("\n")

	// Period breakdown for the best configurations
	detailed := r.Results
	if r.TopN > 0 && len(detailed) > r.TopN {
		detailed = detailed[:r.TopN]
	}
	for _, result := range detailed {
		sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", result.Name, result.RunID))
		for _, period := range result.Periods {
			sb.WriteString(formatPeriod(period))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatPeriod renders one evaluated period as
// `[start - end): gain% | base% | score`.
func formatPeriod(p domain.TimePeriod) string {
	score := 0.0
	if p.BaseFinalGain != 0 {
		score = p.FinalGain / p.BaseFinalGain
	}
	return fmt.Sprintf("- [%s - %s): %+.2f%% | %+.2f%% | %.4f\n",
		time.Unix(p.StartTimestampSec, 0).UTC().Format("2006-01-02"),
		time.Unix(p.EndTimestampSec, 0).UTC().Format("2006-01-02"),
		(p.FinalGain-1)*100,
		(p.BaseFinalGain-1)*100,
		score)
}
