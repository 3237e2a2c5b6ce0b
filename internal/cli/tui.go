package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/enowx/forger/pkg/generate"
)

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

const barWidth = 30

// progressMsg carries one orchestrator snapshot into the model.
type progressMsg generate.Progress

// doneMsg ends the program with the combined result.
type doneMsg struct {
	result generate.Result
	err    error
}

// generateModel renders live progress for one GenerateAll run.
type generateModel struct {
	updates <-chan generate.Progress
	done    <-chan doneMsg
	cancel  context.CancelFunc

	total     int // templates in the run
	progress  generate.Progress
	result    *doneMsg
	canceling bool
}

func newGenerateModel(updates <-chan generate.Progress, done <-chan doneMsg, cancel context.CancelFunc, total int) generateModel {
	return generateModel{updates: updates, done: done, cancel: cancel, total: total}
}

func (m generateModel) Init() tea.Cmd {
	return tea.Batch(waitProgress(m.updates), waitDone(m.done))
}

func waitProgress(ch <-chan generate.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}

func waitDone(ch <-chan doneMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m generateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.canceling {
				m.canceling = true
				m.cancel()
			}
		}
	case progressMsg:
		m.progress = generate.Progress(msg)
		return m, waitProgress(m.updates)
	case doneMsg:
		m.result = &msg
		return m, tea.Quit
	}
	return m, nil
}

func (m generateModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating icons"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d/%d templates  q cancel", len(m.progress.CompletedTemplates), m.total)))
	b.WriteString("\n\n")

	for _, r := range m.progress.Results {
		mark := styleIconSuccess.Render(iconSuccess)
		if !r.Success {
			mark = styleIconError.Render(iconError)
		}
		fmt.Fprintf(&b, "  %s %s %s\n", mark, r.TemplateName,
			listDimStyle.Render(fmt.Sprintf("%d generated, %d failed", len(r.Generated), len(r.Failed))))
	}

	if m.progress.IsGenerating && m.progress.CurrentTemplate != "" && !m.templateDone(m.progress.CurrentTemplate) {
		fmt.Fprintf(&b, "  %s %s %s %s\n", StyleHighlight.Render(iconArrow), m.progress.CurrentTemplate,
			renderBar(m.progress.Current, m.progress.Total, barWidth),
			listDimStyle.Render(m.progress.CurrentIcon))
	}

	if m.canceling && m.result == nil {
		b.WriteString("\n")
		b.WriteString(StyleWarning.Render("Canceling after the current icon..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (m generateModel) templateDone(name string) bool {
	for _, done := range m.progress.CompletedTemplates {
		if done == name {
			return true
		}
	}
	return false
}

// renderBar draws current/total as a fixed-width bar followed by the counts.
func renderBar(current, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(width, current*width/total)
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d/%d", current, total)
}
