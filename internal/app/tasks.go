package app

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/sitepipe/internal/core/domain"
	"go.trai.ch/sitepipe/internal/ui/style"
)

// ListTasks prints every task and pipeline of the project to w.
func (a *App) ListTasks(w io.Writer, opts Options) error {
	project, err := a.load(opts)
	if err != nil {
		return err
	}

	names := project.Graph.Names()
	pipelines := slices.Clone(project.Pipelines)
	slices.SortFunc(pipelines, func(x, y domain.Pipeline) int { return strings.Compare(x.Name, y.Name) })

	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}
	for _, p := range pipelines {
		width = max(width, len(p.Name))
	}
	column := lipgloss.NewStyle().Width(width + 2)

	var b strings.Builder
	b.WriteString(style.Title.Render("Tasks") + "\n")
	for _, name := range names {
		task, _ := project.Graph.GetTask(name)
		line := "  " + column.Render(name) + string(task.Action)
		if len(task.Dependencies) > 0 {
			line += style.Label.Render(" after " + strings.Join(task.Dependencies, ", "))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + style.Title.Render("Pipelines") + "\n")
	for _, p := range pipelines {
		stages := make([]string, 0, len(p.Stages))
		for _, stage := range p.Stages {
			stages = append(stages, strings.Join(stage, ", "))
		}
		flow := strings.Join(stages, " "+style.Arrow+" ")
		if p.Serve {
			flow += " " + style.Arrow + " serve"
		}
		_, _ = fmt.Fprintf(&b, "  %s%s\n", column.Render(p.Name), p.Description)
		_, _ = fmt.Fprintf(&b, "  %s%s\n", column.Render(""), style.Label.Render(flow))
	}

	_, err = io.WriteString(w, b.String())
	return err
}
