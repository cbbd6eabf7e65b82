package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/notargets/FVLoads/coefficients"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// columns returns the channels shown in tables for a dim-dimensional case
func columns(dim int) []coefficients.Channel {
	if dim == 3 {
		return []coefficients.Channel{
			coefficients.CD, coefficients.CL, coefficients.CSF, coefficients.CEff,
			coefficients.CMx, coefficients.CMy, coefficients.CMz,
			coefficients.CT, coefficients.CQ, coefficients.HF, coefficients.MaxHF,
		}
	}
	return []coefficients.Channel{
		coefficients.CD, coefficients.CL, coefficients.CEff, coefficients.CMz,
		coefficients.CT, coefficients.CQ, coefficients.HF, coefficients.MaxHF,
	}
}

const cell = 13

func row(label string, c Coefficients, cols []coefficients.Channel) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %-12s", label))
	for _, ch := range cols {
		b.WriteString(fmt.Sprintf("%*.6g", cell, c.Get(ch)))
	}
	return b.String()
}

// Render formats the report for a terminal
func (r *Report) Render() string {
	cols := columns(r.Dim)
	var b strings.Builder

	b.WriteString(titleStyle.Render("Boundary coefficients"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  run %s  %s  %dD  %d rank(s)",
		r.RunID, r.Created.Format("2006-01-02 15:04:05"), r.Dim, r.Ranks)))
	b.WriteString("\n")

	strategy := fmt.Sprintf("  edge loops: %s, %d colors, efficiency %.3f (min over ranks %.3f)",
		r.Coloring.Strategy, r.Coloring.Colors, r.Coloring.Efficiency, r.Coloring.MinEfficiency)
	if r.Coloring.ReducerRanks > 0 {
		b.WriteString(warnStyle.Render(strategy +
			fmt.Sprintf(", %d rank(s) on the reducer", r.Coloring.ReducerRanks)))
	} else {
		b.WriteString(strategy)
	}
	b.WriteString("\n\n")

	var header strings.Builder
	header.WriteString(fmt.Sprintf("  %-12s", ""))
	for _, ch := range cols {
		header.WriteString(fmt.Sprintf("%*s", cell, ch.String()))
	}
	b.WriteString(headerStyle.Render(header.String()))
	b.WriteString("\n")

	for _, p := range r.Passes {
		b.WriteString(row(p.Name, p.AllBound, cols))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(row("total", r.Total, cols)))
	b.WriteString("\n")

	if len(r.Surfaces) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("  Monitored surfaces"))
		b.WriteString("\n")
		for _, s := range r.Surfaces {
			b.WriteString(row(s.Tag, s.Coefficients, cols))
			b.WriteString("\n")
		}
	}
	if r.NearField != 0 {
		b.WriteString(fmt.Sprintf("\n  near-field objective %.6g\n", r.NearField))
	}
	return b.String()
}
