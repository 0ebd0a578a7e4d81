package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dukex/flowdeck/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

// printer writes command output. Styles degrade to plain text when out is
// not a terminal.
type printer struct {
	out     io.Writer
	heading lipgloss.Style
	muted   lipgloss.Style
	status  map[string]lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	renderer := lipgloss.NewRenderer(out)

	return &printer{
		out:     out,
		heading: renderer.NewStyle().Bold(true),
		muted:   renderer.NewStyle().Foreground(lipgloss.Color("8")),
		status: map[string]lipgloss.Style{
			models.LogStatusSuccess: renderer.NewStyle().Foreground(lipgloss.Color("10")),
			models.LogStatusFailed:  renderer.NewStyle().Foreground(lipgloss.Color("9")),
			models.LogStatusQueued:  renderer.NewStyle().Foreground(lipgloss.Color("11")),
		},
	}
}

func (p *printer) line(text string) {
	_, _ = fmt.Fprintln(p.out, text)
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func (p *printer) kinds(kinds []models.KindInfo) {
	for _, info := range kinds {
		p.line(p.heading.Render(fmt.Sprintf("%-8s", info.Type)) + " " + info.Description)

		for _, field := range models.FieldsOf(info.Type) {
			if nested := models.NestedFieldsOf(info.Type, field); len(nested) > 0 {
				for _, key := range nested {
					p.line("  " + field + "." + key)
				}

				continue
			}

			p.line("  " + field)
		}
	}
}

func (p *printer) created(workflow *models.Workflow) {
	if workflow.ID == "" {
		p.line("Workflow created.")

		return
	}

	p.line("Workflow created: " + p.heading.Render(workflow.ID))
}

func (p *printer) workflows(workflows []*models.Workflow) {
	if len(workflows) == 0 {
		p.line("No workflows found.")

		return
	}

	for _, workflow := range workflows {
		p.line(p.heading.Render(workflow.Name) + " " + p.muted.Render(workflow.ID))
		p.line("  trigger: " + workflow.Trigger)
		p.line("  actions: " + describeActions(workflow.ActionTypes()))

		if !workflow.CreatedAt.IsZero() {
			p.line("  created: " + workflow.CreatedAt.Local().Format(timeLayout))
		}
	}
}

func (p *printer) logs(logs []*models.WorkflowLog) {
	if len(logs) == 0 {
		p.line("No logs found.")

		return
	}

	for _, entry := range logs {
		status := fmt.Sprintf("%-8s", entry.Status)
		if style, ok := p.status[entry.Status]; ok {
			status = style.Render(status)
		}

		p.line(strings.Join([]string{
			p.muted.Render(formatTime(entry.CreatedAt)),
			status,
			fmt.Sprintf("%-8s", entry.ActionType),
			entry.WorkflowName,
			entry.Message,
		}, "  "))
	}
}

func describeActions(types []string) string {
	if len(types) == 0 {
		return "none"
	}

	named := make([]string, len(types))
	for i, t := range types {
		if t == "" {
			t = "unknown"
		}

		named[i] = t
	}

	return strings.Join(named, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return strings.Repeat(" ", len(timeLayout))
	}

	return t.Local().Format(timeLayout)
}
