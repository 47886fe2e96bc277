package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/messages"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return m.renderSummary()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("sqlctx playground"))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(RenderHelpFull())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Press f1 to close help"))
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(RenderDropdown(m.candidates, m.selected))
	b.WriteString("\n")
	if m.result != nil {
		b.WriteString(RenderStatus(m.result.Context))
	} else {
		b.WriteString(RenderStatus(sqlcontext.Analyze(m.input.Value(), m.Cursor())))
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render(shortHelp()))

	if len(m.actions) > 0 {
		b.WriteString("\n\n")
		start := max(0, len(m.actions)-3)
		for _, action := range m.actions[start:] {
			b.WriteString("  " + detailStyle.Render(action) + "\n")
		}
	}

	return b.String()
}

// RenderDropdown renders up to maxRows candidates, scrolled so that the
// selected one is visible.
func RenderDropdown(candidates []completion.Candidate, selected int) string {
	if len(candidates) == 0 {
		return emptyStyle.Render("no completions")
	}

	start := 0
	if selected >= maxRows {
		start = selected - maxRows + 1
	}
	end := min(len(candidates), start+maxRows)

	width := 0
	for _, c := range candidates[start:end] {
		width = max(width, len(c.Label))
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		c := candidates[i]
		row := fmt.Sprintf(" %-*s  %-8s ", width, c.Label, c.Kind)
		if i == selected {
			b.WriteString(selectedStyle.Render(row))
		} else {
			b.WriteString(row)
		}
		if c.Detail != "" {
			b.WriteString(detailStyle.Render(c.Detail))
		}
		b.WriteString("\n")
	}
	if end < len(candidates) {
		b.WriteString(detailStyle.Render(fmt.Sprintf(" … %d more", len(candidates)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderStatus renders the analysis context of the cursor on one line.
func RenderStatus(ctx sqlcontext.Context) string {
	parts := []string{statusStyle.Render(messages.ContextDescription(ctx.Kind))}
	if len(ctx.Tables) > 0 {
		parts = append(parts, tableStyle.Render("tables: "+strings.Join(ctx.Tables, ", ")))
	}
	if len(ctx.Aliases) > 0 {
		aliases := make([]string, 0, len(ctx.Aliases))
		for _, alias := range slices.Sorted(maps.Keys(ctx.Aliases)) {
			aliases = append(aliases, alias+"→"+ctx.Aliases[alias])
		}
		parts = append(parts, tableStyle.Render("aliases: "+strings.Join(aliases, ", ")))
	}
	return strings.Join(parts, " • ")
}

// RenderHelpFull renders every key binding with its description.
func RenderHelpFull() string {
	bindings := []key.Binding{
		keys.Accept, keys.Next, keys.Prev, keys.Undo,
		keys.Clear, keys.Export, keys.Help, keys.Quit,
	}
	var b strings.Builder
	for _, k := range bindings {
		h := k.Help()
		fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
	}
	return b.String()
}

func shortHelp() string {
	bindings := []key.Binding{keys.Accept, keys.Next, keys.Prev, keys.Undo, keys.Help, keys.Quit}
	parts := make([]string, len(bindings))
	for i, k := range bindings {
		h := k.Help()
		parts[i] = h.Key + " " + h.Desc
	}
	return strings.Join(parts, " • ")
}

// renderSummary renders the exit summary.
func (m Model) renderSummary() string {
	var b strings.Builder
	accepted := 0
	for _, a := range m.history.All() {
		if a.Type == ActionAccept {
			accepted++
		}
	}
	fmt.Fprintf(&b, "Accepted completions: %d\n", accepted)
	if q := m.input.Value(); q != "" {
		b.WriteString(q)
		b.WriteString("\n")
	}
	return b.String()
}
