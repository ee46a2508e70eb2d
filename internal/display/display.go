// Package display renders engine results as terminal or Markdown
// tables for the analyze command.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// Cell marks in the scene matrix.
const (
	MarkPossible = "OK"
	MarkReach    = "REACH"
	MarkNone     = "-"
)

const slotLayout = "01/02 15:04"

func newWriter(m Mode) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(w table.Writer, m Mode) string {
	if m == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

// Slot formats a candidate window, eliding the end date when the
// window stays within one day.
func Slot(start, end time.Time) string {
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return start.Format(slotLayout) + "-" + end.Format("15:04")
	}
	return start.Format(slotLayout) + "-" + end.Format(slotLayout)
}

// Matrix renders scenes as rows and candidates as columns.  Reach
// cells name the missing member; candidates failing the required-role
// check are marked in the footer.
func Matrix(a *scheduling.CalendarAnalysis, m Mode) string {
	w := newWriter(m)

	header := table.Row{"#", "Scene"}
	for _, c := range a.Analyses {
		header = append(header, Slot(c.Start, c.End))
	}
	w.AppendHeader(header)

	type cellKey struct{ candidate, scene string }
	cells := make(map[cellKey]string)
	for _, c := range a.Analyses {
		for _, s := range c.PossibleScenes {
			cells[cellKey{c.CandidateID, s.SceneID}] = MarkPossible
		}
		for _, s := range c.ReachScenes {
			mark := MarkReach
			if len(s.MissingMemberNames) > 0 {
				mark += " " + strings.Join(s.MissingMemberNames, "/")
			}
			cells[cellKey{c.CandidateID, s.SceneID}] = mark
		}
	}

	for _, s := range a.AllScenes {
		row := table.Row{s.Ordinal, s.Heading}
		for _, c := range a.Analyses {
			mark, ok := cells[cellKey{c.CandidateID, s.SceneID}]
			if !ok {
				mark = MarkNone
			}
			row = append(row, mark)
		}
		w.AppendRow(row)
	}

	footer := table.Row{"", "Available"}
	roles := table.Row{"", "Required roles"}
	anyMissing := false
	for _, c := range a.Analyses {
		footer = append(footer, len(c.AvailableMembers))
		if len(c.MissingRequiredRoles) > 0 {
			anyMissing = true
			roles = append(roles, "missing "+strings.Join(c.MissingRequiredRoles, ", "))
		} else {
			roles = append(roles, "ok")
		}
	}
	w.AppendFooter(footer)
	if anyMissing {
		w.AppendFooter(roles)
	}

	cfgs := []table.ColumnConfig{{Number: 1, Align: text.AlignRight}, {Number: 2, WidthMax: 40}}
	for i := range a.Analyses {
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 3, Align: text.AlignCenter})
	}
	w.SetColumnConfigs(cfgs)
	return render(w, m)
}

// Recommendations renders the ranked candidates with their scene
// previews.
func Recommendations(recs []scheduling.Recommendation, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Rank", "Slot", "Score", "Summary", "Scenes"})
	for i, r := range recs {
		previews := make([]string, 0, len(r.PossibleScenePreviews))
		for _, p := range r.PossibleScenePreviews {
			previews = append(previews, fmt.Sprintf("%d %s", p.Ordinal, p.Heading))
		}
		scenes := strings.Join(previews, "; ")
		if scenes == "" {
			scenes = MarkNone
		}
		w.AppendRow(table.Row{i + 1, Slot(r.Start, r.End), r.Score, r.SummaryReason, scenes})
	}
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 5, WidthMax: 60},
	})
	return render(w, m)
}

// Unanswered renders the members without any answer.
func Unanswered(members []scheduling.MemberRef, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Member", "Roles"})
	for _, mem := range members {
		w.AppendRow(table.Row{mem.DisplayName, mem.RoleSummary})
	}
	return render(w, m)
}
