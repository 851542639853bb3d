package output

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// TerminalPreview renders Markdown as styled terminal output.
type TerminalPreview struct {
	renderer *glamour.TermRenderer
}

// NewTerminalPreview creates a preview wrapping at width columns.
func NewTerminalPreview(width int) (*TerminalPreview, error) {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glamour renderer: %w", err)
	}
	return &TerminalPreview{renderer: r}, nil
}

// Render styles markdown. Empty input renders as empty output.
func (p *TerminalPreview) Render(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}
	return p.renderer.Render(markdown)
}
