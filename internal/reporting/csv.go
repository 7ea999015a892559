package reporting

import (
	"fmt"
	"strings"

	"crypto-backtest-lab/internal/domain"
)

// RenderCSV renders evaluation results as CSV string, one row per
// result, sorted as given.
func RenderCSV(results []*domain.EvaluationResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,name,start_timestamp,end_timestamp,period_months,periods,")
	sb.WriteString("score,avg_gain,avg_base_gain,avg_executed_orders,avg_fee\n")

	// Rows
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%d,%.6f,%.6f,%.6f,%.2f,%.2f\n",
			r.RunID,
			csvEscape(r.Name),
			r.EvaluationConfig.StartTimestampSec,
			r.EvaluationConfig.EndTimestampSec,
			r.EvaluationConfig.EvaluationPeriodMonths,
			len(r.Periods),
			r.Score,
			r.AvgGain,
			r.AvgBaseGain,
			r.AvgTotalExecutedOrders,
			r.AvgTotalFee,
		))
	}

	return sb.String()
}

// csvEscape quotes a field containing separators.
func csvEscape(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
