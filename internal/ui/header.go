package ui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Banner is the block printed when the server starts
type Banner struct {
	Title    string
	Subtitle string
	Params   map[string]string
	Width    int
	// Styled enables colours and the border
	Styled bool
}

// NewBanner creates a banner sized to the terminal
func NewBanner(title, subtitle string, params map[string]string, styled bool) *Banner {
	return &Banner{
		Title:    title,
		Subtitle: subtitle,
		Params:   params,
		Width:    GetTerminalWidth(),
		Styled:   styled,
	}
}

// Render returns the banner as a string. Parameters are listed in key order.
func (b *Banner) Render() string {
	keys := make([]string, 0, len(b.Params))
	for key := range b.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := []string{
		render(TitleStyle, b.Styled, strings.ToUpper(b.Title)),
		render(SubtitleStyle, b.Styled, b.Subtitle),
	}
	for _, key := range keys {
		lines = append(lines, render(KeyStyle, b.Styled, key+":")+" "+render(ValueStyle, b.Styled, b.Params[key]))
	}

	if !b.Styled {
		return strings.Join(lines, "\n")
	}

	width := max(b.Width, MinTerminalWidth)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// String implements fmt.Stringer
func (b *Banner) String() string {
	return b.Render()
}
