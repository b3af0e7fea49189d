package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/techfest/internal/festival"
)

// eventView shows one event's stages as collapsible panels. At most one stage
// is expanded at a time.
type eventView struct {
	event     festival.Event
	selection int
	expanded  int
}

func newEventView(evt festival.Event) *eventView {
	return &eventView{event: evt, expanded: -1}
}

func (v *eventView) Update(msg tea.Msg) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(v.event.Stages) == 0 {
		return
	}
	switch key.String() {
	case "up", "k":
		if v.selection > 0 {
			v.selection--
		}
	case "down", "j":
		if v.selection < len(v.event.Stages)-1 {
			v.selection++
		}
	case "enter", " ":
		v.toggle(v.selection)
	}
}

func (v *eventView) toggle(idx int) {
	if idx < 0 || idx >= len(v.event.Stages) {
		return
	}
	if v.expanded == idx {
		v.expanded = -1
		return
	}
	v.expanded = idx
}

func (v *eventView) View(width int) string {
	evt := v.event
	lines := []string{
		accentStyle.Render(strings.TrimSpace(evt.Icon + " " + evt.Name)),
	}
	if evt.Tagline != "" {
		lines = append(lines, textStyle.Width(width).Render(evt.Tagline))
	}
	lines = append(lines, "")
	for i, stage := range evt.Stages {
		cursor := "  "
		if i == v.selection {
			cursor = "› "
		}
		arrow := "▸"
		if i == v.expanded {
			arrow = "▾"
		}
		title := fmt.Sprintf("%s%s %s", cursor, arrow, stage.Title)
		if stage.Label != "" {
			title += "  " + mutedStyle.Render("["+stage.Label+"]")
		}
		if i == v.selection {
			title = accentStyle.Render(title)
		}
		lines = append(lines, title)
		if i != v.expanded {
			continue
		}
		if stage.Description != "" {
			lines = append(lines, "     "+textStyle.Render(stage.Description))
		}
		for _, d := range stage.Details {
			lines = append(lines, "     · "+textStyle.Render(d))
		}
	}
	if len(evt.Principles) > 0 {
		lines = append(lines, "", headerStyle.Render("CORE PRINCIPLES"))
		for _, p := range evt.Principles {
			lines = append(lines, fmt.Sprintf("%s  %s", accentStyle.Render(p.Title), mutedStyle.Render(p.Description)))
		}
	}
	if len(evt.Criteria) > 0 {
		lines = append(lines, "", headerStyle.Render("WINNER CRITERIA"))
		for _, c := range evt.Criteria {
			lines = append(lines, accentStyle.Render(c.Title)+"  "+mutedStyle.Render(c.Description))
			if c.Weight > 0 {
				lines = append(lines, "  "+renderMeter(c.Weight))
			}
		}
	}
	lines = append(lines, "", mutedStyle.Render("↑/↓ select · enter expand/collapse"))
	return strings.Join(lines, "\n")
}
