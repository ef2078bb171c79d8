package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/GoSim-25-26J-441/processline-sim/internal/simd"
	"github.com/GoSim-25-26J-441/processline-sim/pkg/models"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorMuted  = lipgloss.Color("#6C7A89")
	colorGood   = lipgloss.Color("#2CD7C7")
	colorBad    = lipgloss.Color("#E74C3C")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	goodStyle   = lipgloss.NewStyle().Foreground(colorGood)
	badStyle    = lipgloss.NewStyle().Foreground(colorBad).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// money renders a currency amount with two decimals, half away from zero.
func money(v float64) string {
	return "₹" + decimal.NewFromFloat(v).StringFixed(2)
}

func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func pct(v float64) string {
	return decimal.NewFromFloat(v * 100).StringFixed(2) + "%"
}

func setpointString(sp map[string]float64) string {
	names := make([]string, 0, len(sp))
	for name := range sp {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%s", name, num(sp[name]))
	}
	return strings.Join(parts, " ")
}

func renderLines(lines []simd.LineInfo) string {
	t := newTable("line", "model", "target", "parameters")
	for _, l := range lines {
		params := make([]string, len(l.Parameters))
		for i, p := range l.Parameters {
			params[i] = fmt.Sprintf("%s [%s, %s]", p.Name, num(p.Min), num(p.Max))
		}
		t.Row(l.Name, l.Model, l.Target, strings.Join(params, "\n"))
	}
	return t.String()
}

func statsRow(name string, s models.Stats, format func(float64) string) []string {
	return []string{name, format(s.Mean), format(s.StdDev), format(s.P05), format(s.P50), format(s.P95),
		fmt.Sprintf("[%s, %s]", format(s.CI95Low), format(s.CI95High))}
}

func renderSummary(s *models.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(s.ProductLine), mutedStyle.Render(fmt.Sprintf("run %s  n=%d  seed=%d", s.RunID, s.N, s.Seed)))
	if len(s.Setpoints) > 0 {
		fmt.Fprintf(&b, "setpoints: %s\n", setpointString(s.Setpoints))
	}
	failure := pct(s.FailureRate)
	if s.FailureRate > 0 {
		failure = badStyle.Render(failure)
	}
	fmt.Fprintf(&b, "failure rate: %s\n", failure)

	t := newTable("outcome", "mean", "stddev", "p05", "p50", "p95", "95% CI")
	t.Row(statsRow("yield", s.Yield, num)...)
	t.Row(statsRow("cycle_time", s.CycleTime, num)...)
	t.Row(statsRow("unit_cost", s.UnitCost, money)...)
	t.Row(statsRow("margin", s.Margin, money)...)
	t.Row(statsRow("objective", s.Objective, num)...)
	quality := make([]string, 0, len(s.Quality))
	for name := range s.Quality {
		quality = append(quality, name)
	}
	sort.Strings(quality)
	for _, name := range quality {
		t.Row(statsRow(name, s.Quality[name], num)...)
	}
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(renderSpecs(s.Specs))
	return b.String()
}

func renderSpecs(specs []models.SpecResult) string {
	t := newTable("spec", "outcome", "window", "pass", "cpk", "sigma")
	for _, r := range specs {
		window := "("
		if r.Lower != nil {
			window += num(*r.Lower)
		} else {
			window += "-∞"
		}
		window += ", "
		if r.Upper != nil {
			window += num(*r.Upper)
		} else {
			window += "∞"
		}
		window += ")"

		cpk := mutedStyle.Render(string(r.Capability.Status))
		if r.Capability.Cpk != nil {
			cpk = num(*r.Capability.Cpk)
		}
		pass := pct(r.PassRate)
		if r.PassRate >= 0.99 {
			pass = goodStyle.Render(pass)
		}
		t.Row(r.Name, r.Outcome, window, pass, cpk, fmt.Sprintf("%.2f", r.Capability.SigmaLevel))
	}
	return t.String()
}

func renderSweep(r *simd.SweepResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(r.ProductLine+" sweep"),
		mutedStyle.Render(fmt.Sprintf("run %s  target=%s  n=%d  seed=%d", r.RunID, r.Target, r.N, r.Seed)))

	t := newTable(append(append([]string(nil), r.Parameters...), "aggregate", "mean yield", "unit cost", "failure", "feasible")...)
	for _, p := range r.Points {
		row := make([]string, 0, len(p.Values)+5)
		for _, v := range p.Values {
			row = append(row, num(v))
		}
		feasible := "yes"
		if !p.Feasible {
			feasible = badStyle.Render("no")
		}
		if r.Optimum != nil && sameValues(p.Values, r.Optimum.Values) {
			feasible = goodStyle.Render("optimum")
		}
		row = append(row, num(p.Aggregate), num(p.MeanYield), money(p.MeanUnitCost), pct(p.FailureRate), feasible)
		t.Row(row...)
	}
	b.WriteString(t.String())
	b.WriteString("\n")

	if r.Optimum == nil {
		fmt.Fprintf(&b, "%s %s\n", badStyle.Render("no feasible setpoint:"), r.InfeasibleReason)
		return b.String()
	}
	fmt.Fprintf(&b, "optimum:  %s  (aggregate %s)\n", setpointString(r.Optimum.Setpoint), num(r.Optimum.Aggregate))
	fmt.Fprintf(&b, "baseline: %s  (aggregate %s)\n", setpointString(r.Baseline.Setpoint), num(r.Baseline.Aggregate))
	if c := r.Comparison; c != nil {
		fmt.Fprintf(&b, "change:   yield %+.4g  unit cost %s  failure %s\n",
			c.YieldDelta, money(c.UnitCostDelta), pct(c.FailureRateDelta))
	}
	if len(r.Refinement) > 0 {
		fmt.Fprintf(&b, "refined %d rounds: %s\n", len(r.Refinement)-1, r.ConvergenceReason)
	}
	return b.String()
}

func sameValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func renderSensitivity(r *simd.SensitivityResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(r.ProductLine+" drivers of "+r.Outcome),
		mutedStyle.Render(fmt.Sprintf("run %s  n=%d  seed=%d", r.RunID, r.N, r.Seed)))
	fmt.Fprintf(&b, "mean %s, 95%% CI [%s, %s]\n", num(r.Mean.Mean), num(r.Mean.Low), num(r.Mean.High))

	t := newTable("input", "kind", "r", "impact")
	for _, d := range r.Drivers {
		t.Row(d.Name, d.Kind, fmt.Sprintf("%+.3f", d.Correlation), num(d.Impact))
	}
	b.WriteString(t.String())
	return b.String()
}
