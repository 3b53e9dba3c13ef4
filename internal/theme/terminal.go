package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TerminalSink collects applied variables and renders them as color swatches
// for terminal previews.
type TerminalSink struct {
	names  []string
	values map[string]string
	tag    string
}

// NewTerminalSink returns an empty terminal sink.
func NewTerminalSink() *TerminalSink {
	return &TerminalSink{values: make(map[string]string)}
}

func (s *TerminalSink) SetVariable(name, value string) {
	if _, seen := s.values[name]; !seen {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

func (s *TerminalSink) SetContainerTag(tag string) {
	s.tag = tag
}

// Render returns one swatch line per variable in the order they were applied.
func (s *TerminalSink) Render() string {
	header := lipgloss.NewStyle().Bold(true).Underline(true)
	label := lipgloss.NewStyle().Width(18)
	faint := lipgloss.NewStyle().Faint(true)

	var b strings.Builder
	b.WriteString(header.Render(s.tag))
	b.WriteString("\n")
	for _, n := range s.names {
		v := s.values[n]
		swatch := lipgloss.NewStyle().
			Background(lipgloss.Color(v)).
			Render("      ")
		fmt.Fprintf(&b, "%s %s %s\n", swatch, label.Render(n), faint.Render(v))
	}
	return b.String()
}
