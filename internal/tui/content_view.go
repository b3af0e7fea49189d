package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/techfest/internal/festival"
)

const meterWidth = 20

func renderOverview(f festival.Festival, width int) string {
	lines := []string{
		accentStyle.Render(f.Title()),
		textStyle.Width(width).Render(f.Tagline),
		"",
		textStyle.Width(width).Render(f.About),
		"",
		headerStyle.Render("EVENTS"),
	}
	for _, evt := range f.Events {
		lines = append(lines, fmt.Sprintf("%s %s · %s", evt.Icon, accentStyle.Render(evt.Name), mutedStyle.Render(fmt.Sprintf("%d rounds", len(evt.Stages)))))
		if evt.Tagline != "" {
			lines = append(lines, "   "+mutedStyle.Render(evt.Tagline))
		}
	}
	return strings.Join(lines, "\n")
}

func renderRoadmap(f festival.Festival, width int) string {
	lines := []string{headerStyle.Render("YOUR JOURNEY")}
	if f.RoadmapIntro != "" {
		lines = append(lines, textStyle.Width(width).Render(f.RoadmapIntro), "")
	}
	for i, evt := range f.Events {
		marker := "├─"
		if i == len(f.Events)-1 {
			marker = "└─"
		}
		lines = append(lines, fmt.Sprintf("%s %02d %s %s", marker, i+1, evt.Icon, accentStyle.Render(evt.Name)))
		for _, stage := range evt.Stages {
			stem := "│ "
			if i == len(f.Events)-1 {
				stem = "  "
			}
			lines = append(lines, fmt.Sprintf("%s   · %s", stem, textStyle.Render(stage.Title)))
		}
	}
	return strings.Join(lines, "\n")
}

func renderTeam(f festival.Festival, width int) string {
	lines := []string{headerStyle.Render("THE TEAM")}
	for _, m := range f.Team {
		lines = append(lines, fmt.Sprintf("%s  %s", accentStyle.Render(m.Name), mutedStyle.Render(m.Role)))
	}
	lines = append(lines, "", headerStyle.Render("CONTACT"))
	contact := []struct{ label, value string }{
		{"Email", f.Contact.Email},
		{"Phone", f.Contact.Phone},
		{"Location", f.Contact.Location},
	}
	for _, c := range contact {
		if c.value == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%-9s %s", c.label, textStyle.Render(c.value)))
	}
	if len(f.Links) > 0 {
		var labels []string
		for _, l := range f.Links {
			labels = append(labels, l.Label)
		}
		lines = append(lines, "", mutedStyle.Width(width).Render(strings.Join(labels, " · ")))
	}
	return strings.Join(lines, "\n")
}

// renderMeter draws a 0-100 weight as a fixed-width bar.
func renderMeter(weight int) string {
	weight = min(max(weight, 0), 100)
	filled := weight * meterWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#00F0FF")).Render(bar) + mutedStyle.Render(fmt.Sprintf(" %d%%", weight))
}
