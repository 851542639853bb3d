package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/grbba/skosdoc/publish"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// summary collects what a command produced for the closing report.
type summary struct {
	title string
	files []string
	pages []publish.Result
	notes []string
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// print writes the report, styled when w is a terminal.
func (s *summary) print(w io.Writer, styled bool) {
	style := func(st lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return st.Render(text)
	}

	fmt.Fprintln(w, style(titleStyle, s.title))
	for _, f := range s.files {
		fmt.Fprintf(w, "%s %s\n", style(keyStyle, "written"), f)
	}
	for _, r := range s.pages {
		status := style(okStyle, string(r.Action))
		if r.Err != nil {
			status = style(failStyle, string(r.Action))
		}
		fmt.Fprintf(w, "%s %s %s\n", style(keyStyle, "page"), status, r.Title)
	}
	if len(s.pages) > 0 {
		counts := publish.Summary(s.pages)
		actions := make([]string, 0, len(counts))
		for a, n := range counts {
			actions = append(actions, fmt.Sprintf("%s=%d", a, n))
		}
		sort.Strings(actions)
		fmt.Fprintf(w, "%s %s\n", style(keyStyle, "pages"), strings.Join(actions, " "))
	}
	for _, n := range s.notes {
		fmt.Fprintf(w, "%s %s\n", style(keyStyle, "note"), n)
	}
}
