// Package report renders an analysis result as a human-readable
// markdown summary and its HTML form for the dashboard.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"personal-insights/pkg/types"
)

// BuildMarkdown produces the markdown summary of one analysis result
func BuildMarkdown(result *types.AnalysisResult) string {
	var b strings.Builder

	b.WriteString("# Personal Insights Report\n\n")
	fmt.Fprintf(&b, "Generated %s over %d events. Overall confidence %.0f%%.\n\n",
		result.GeneratedAt.Format("2006-01-02 15:04 UTC"), result.EventCount, result.Confidence*100)

	if len(result.Trends) > 0 {
		b.WriteString("## Trends\n\n")
		for _, t := range result.Trends {
			fmt.Fprintf(&b, "- **%s** is %s (strength %.2f, confidence %.0f%%)\n",
				t.DataType, t.Direction, t.Strength, t.Confidence*100)
		}
		b.WriteString("\n")
	}

	if len(result.Cycles) > 0 {
		b.WriteString("## Recurring Patterns\n\n")
		for _, c := range result.Cycles {
			fmt.Fprintf(&b, "- **%s** shows a %s cycle (strength %.2f), peaking at %s\n",
				c.DataType, c.PeriodType, c.Strength, bucketLabel(c.PeriodType, c.PeakBucket))
		}
		b.WriteString("\n")
	}

	if len(result.Correlations) > 0 {
		b.WriteString("## Cross-Domain Correlations\n\n")
		for _, c := range result.Correlations {
			fmt.Fprintf(&b, "- **%s** and **%s** move %sly (r=%.2f, confidence %.0f%%)\n",
				c.DataTypeA, c.DataTypeB, c.Direction, c.Coefficient, c.Confidence*100)
		}
		b.WriteString("\n")
	}

	if len(result.Anomalies) > 0 {
		b.WriteString("## Anomalies\n\n")
		for _, a := range result.Anomalies {
			fmt.Fprintf(&b, "- [%s/%s] %s\n", a.Kind, a.Severity, a.Description)
		}
		b.WriteString("\n")
	}

	if len(result.Clusters) > 0 {
		b.WriteString("## Behavioral Clusters\n\n")
		for _, set := range result.Clusters {
			fmt.Fprintf(&b, "- **%s**: %d clusters, silhouette %.2f\n",
				set.DataType, len(set.Clusters), set.Silhouette)
		}
		b.WriteString("\n")
	}

	if len(result.Predictions) > 0 {
		b.WriteString("## Forecasts\n\n")
		for _, p := range result.Predictions {
			if len(p.Series) == 0 {
				continue
			}
			last := p.Series[len(p.Series)-1]
			fmt.Fprintf(&b, "- **%s** projected to reach %.2f in %d days (confidence %.0f%%)\n",
				p.DataType, last.Value, len(p.Series), last.Confidence*100)
		}
		b.WriteString("\n")
	}

	if result.EventCount == 0 {
		b.WriteString("No events in the analysis window.\n")
	}

	return b.String()
}

// RenderHTML converts the markdown report to HTML
func RenderHTML(result *types.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(BuildMarkdown(result)), &buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

var weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func bucketLabel(period types.PeriodType, bucket int) string {
	switch period {
	case types.PeriodDaily:
		return fmt.Sprintf("%02d:00", bucket)
	case types.PeriodWeekly:
		if bucket >= 0 && bucket < len(weekdays) {
			return weekdays[bucket]
		}
	case types.PeriodMonthly:
		return fmt.Sprintf("day %d", bucket+1)
	}
	return fmt.Sprintf("bucket %d", bucket)
}
