package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"ConcentrationPanel/internal/fund"
	"ConcentrationPanel/internal/model"
)

// FormatRunSummary formats the outcome of one run into a Telegram message.
func FormatRunSummary(s *fund.RunSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Concentration panel</b> | %s\n", s.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("run %s, %d funds, %d failed, %s\n",
		s.RunID, len(s.Outcomes), s.Failed(), s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond)))

	for _, o := range s.Outcomes {
		b.WriteString("\n")
		if o.Err != nil {
			b.WriteString(fmt.Sprintf("❌ <b>%s</b>: %s\n", html.EscapeString(o.Fund), html.EscapeString(o.Err.Error())))
			continue
		}
		res := o.Result
		b.WriteString(fmt.Sprintf("✅ <b>%s</b>: %d periods (%d skipped), %d observations\n",
			html.EscapeString(o.Fund), len(res.Records), len(res.PeriodSkips), len(res.Panel)))
		b.WriteString(FormatRegressions(res.Regressions, res.FactorErrors))
	}
	return b.String()
}

// FormatRegressions renders one line per factor: the fit when it succeeded,
// the reason otherwise.
func FormatRegressions(results []model.RegressionResult, failures map[string]error) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(fmt.Sprintf("  %s: R²=%.3f β=%+.4g (p=%.3f) size p=%.3f\n",
			r.Factor, r.RSquared,
			r.Coefficients[r.Factor], r.PValues[r.Factor], r.PValues[model.RegressorFundSize]))
	}
	for _, f := range model.Factors {
		if err, ok := failures[f]; ok {
			b.WriteString(fmt.Sprintf("  %s: %s\n", f, html.EscapeString(err.Error())))
		}
	}
	return b.String()
}

// FormatRunState formats the run manifest for display.
func FormatRunState(st *fund.RunState) string {
	var b strings.Builder
	b.WriteString("📦 <b>Run state</b>\n\n")
	if st.LastRunID == "" {
		b.WriteString("no run yet\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("last run: %s at %s\n", st.LastRunID, st.LastRunAt.Format("2006-01-02 15:04")))

	names := make([]string, 0, len(st.Funds))
	for name := range st.Funds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := st.Funds[name]
		line := fmt.Sprintf("%s: %s, %d periods, %d regressions", html.EscapeString(name), f.Status, f.Periods, f.Regressions)
		if f.Error != "" {
			line += " (" + html.EscapeString(f.Error) + ")"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
