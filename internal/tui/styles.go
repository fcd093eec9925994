package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/verdict/internal/model"
)

type styles struct {
	noColor bool
	title   lipgloss.Style
	label   lipgloss.Style
	bot     lipgloss.Style
	quote   lipgloss.Style
	link    lipgloss.Style
	err     lipgloss.Style
	notice  lipgloss.Style
	help    lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			noColor: true,
			title:   plain.Bold(true),
			label:   plain.Bold(true),
			bot:     plain.Bold(true),
			quote:   plain,
			link:    plain,
			err:     plain,
			notice:  plain,
			help:    plain,
		}
	}
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		label:  lipgloss.NewStyle().Bold(true),
		bot:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		quote:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("250")),
		link:   lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("33")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		notice: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		help:   lipgloss.NewStyle().Faint(true),
	}
}

// decision colors the verdict label: green supported, red refuted, yellow otherwise
func (s styles) decision(l model.Label) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	if s.noColor {
		return st
	}
	switch l {
	case model.LabelSupports:
		return st.Foreground(lipgloss.Color("42"))
	case model.LabelRefutes:
		return st.Foreground(lipgloss.Color("196"))
	default:
		return st.Foreground(lipgloss.Color("220"))
	}
}
