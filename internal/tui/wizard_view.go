package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/techfest/internal/logbook"
	"github.com/kingrea/techfest/internal/registration"
	"github.com/kingrea/techfest/internal/submission"
)

type submitResultMsg struct {
	ack registration.Ack
	err error
}

// resetWizardMsg is scheduled after a successful submission when the reset
// policy is automatic. Stale tokens are ignored.
type resetWizardMsg struct {
	token int
}

type targetKind int

const (
	targetField targetKind = iota
	targetEvent
	targetBack
	targetNext
)

type focusTarget struct {
	kind  targetKind
	field registration.Field
	event registration.EventID
}

var fieldPlaceholders = map[registration.Field]string{
	registration.FieldFullName: "Enter your full name",
	registration.FieldEmail:    "your@email.com",
	registration.FieldPhone:    "+91 XXXXX XXXXX",
	registration.FieldCollege:  "Your college name",
	registration.FieldBranch:   "e.g., Computer Science",
	registration.FieldTeamName: "Your team name",
}

type wizardView struct {
	app    *App
	wizard *registration.Wizard
	inputs map[registration.Field]*textinput.Model

	focus      int
	notice     string
	resetToken int
}

func newWizardView(app *App, wiz *registration.Wizard) *wizardView {
	v := &wizardView{
		app:    app,
		wizard: wiz,
		inputs: make(map[registration.Field]*textinput.Model),
	}
	for field, placeholder := range fieldPlaceholders {
		input := textinput.New()
		input.Placeholder = placeholder
		input.Prompt = ""
		input.CharLimit = 120
		input.Cursor.SetMode(cursor.CursorStatic)
		v.inputs[field] = &input
	}
	return v
}

func (v *wizardView) targets() []focusTarget {
	step := v.wizard.Step()
	var out []focusTarget
	for _, f := range v.wizard.Profile().StepFields(step) {
		out = append(out, focusTarget{kind: targetField, field: f})
	}
	if step == registration.Step3 {
		for _, entry := range v.wizard.Catalog().Entries() {
			out = append(out, focusTarget{kind: targetEvent, event: entry.ID})
		}
	}
	if step > registration.Step1 {
		out = append(out, focusTarget{kind: targetBack})
	}
	return append(out, focusTarget{kind: targetNext})
}

func (v *wizardView) current() focusTarget {
	targets := v.targets()
	if v.focus < 0 || v.focus >= len(targets) {
		v.focus = 0
	}
	return targets[v.focus]
}

// focusCurrent moves the text cursor to the focused input, if any.
func (v *wizardView) focusCurrent() tea.Cmd {
	target := v.current()
	var cmd tea.Cmd
	for field, input := range v.inputs {
		if target.kind == targetField && target.field == field {
			cmd = input.Focus()
			continue
		}
		input.Blur()
	}
	return cmd
}

func (v *wizardView) moveFocus(delta int) tea.Cmd {
	n := len(v.targets())
	v.focus = ((v.focus+delta)%n + n) % n
	return v.focusCurrent()
}

func (v *wizardView) stepChanged() tea.Cmd {
	v.focus = 0
	v.notice = ""
	return v.focusCurrent()
}

func (v *wizardView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case submitResultMsg:
		return v.handleSubmitResult(msg)
	case resetWizardMsg:
		if msg.token == v.resetToken && v.wizard.Status() == registration.StatusSubmitted {
			v.app.logInfo("Registration · form reset after confirmation")
			return v.reset()
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return nil
}

func (v *wizardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch v.wizard.Status() {
	case registration.StatusPending:
		return nil
	case registration.StatusSubmitted:
		if msg.String() == "enter" {
			return v.reset()
		}
		return nil
	}

	key := msg.String()
	switch key {
	case "tab", "down":
		return v.moveFocus(1)
	case "shift+tab", "up":
		return v.moveFocus(-1)
	case "f1", "f2", "f3":
		target := registration.Step(key[1] - '0')
		if v.wizard.JumpTo(target) {
			return v.stepChanged()
		}
		return nil
	case "ctrl+b":
		return v.back()
	case "ctrl+n":
		return v.next()
	}

	target := v.current()
	switch target.kind {
	case targetField:
		if options := v.wizard.Profile().Options(target.field); options != nil {
			switch key {
			case "right", "l", " ":
				v.cycle(target.field, options, 1)
			case "left", "h":
				v.cycle(target.field, options, -1)
			case "enter":
				return v.moveFocus(1)
			}
			return nil
		}
		if key == "enter" {
			return v.moveFocus(1)
		}
		input := v.inputs[target.field]
		if input == nil {
			return nil
		}
		updated, cmd := input.Update(msg)
		*input = updated
		v.setField(target.field, input.Value())
		return cmd
	case targetEvent:
		if key == "enter" || key == " " {
			if err := v.wizard.ToggleEvent(target.event); err != nil {
				v.notice = err.Error()
			}
		}
	case targetBack:
		if key == "enter" {
			return v.back()
		}
	case targetNext:
		if key == "enter" {
			return v.next()
		}
	}
	return nil
}

func (v *wizardView) setField(field registration.Field, value string) {
	if err := v.wizard.SetField(field, value); err != nil {
		v.notice = err.Error()
	}
}

func (v *wizardView) cycle(field registration.Field, options []string, delta int) {
	current := v.wizard.Form().Get(field)
	idx := -1
	for i, option := range options {
		if option == current {
			idx = i
			break
		}
	}
	switch {
	case idx == -1 && delta < 0:
		idx = len(options) - 1
	case idx == -1:
		idx = 0
	default:
		idx = ((idx+delta)%len(options) + len(options)) % len(options)
	}
	v.setField(field, options[idx])
}

func (v *wizardView) back() tea.Cmd {
	if v.wizard.Retreat() {
		return v.stepChanged()
	}
	return nil
}

func (v *wizardView) next() tea.Cmd {
	if v.wizard.Step() == registration.Step3 {
		return v.submit()
	}
	if !v.wizard.Advance() {
		v.notice = "Complete: " + strings.Join(v.wizard.Missing(v.wizard.Step()), ", ")
		return nil
	}
	v.app.logInfo("Registration · step %d reached", v.wizard.Step())
	return v.stepChanged()
}

func (v *wizardView) submit() tea.Cmd {
	form, err := v.wizard.Checkout()
	if err != nil {
		missing := registration.MissingFields(v.wizard.Form(), v.wizard.Profile(), nil)
		v.notice = "Cannot submit yet"
		if len(missing) > 0 {
			v.notice += ": " + strings.Join(missing, ", ")
		}
		return nil
	}
	v.notice = ""
	v.app.logInfo("Registration · submitting %d event(s)", len(form.Events))
	sub := v.app.submitter
	ctx := v.app.ctx
	return func() tea.Msg {
		ack, err := sub.Submit(ctx, form)
		return submitResultMsg{ack: ack, err: err}
	}
}

func (v *wizardView) handleSubmitResult(msg submitResultMsg) tea.Cmd {
	if err := v.wizard.Complete(msg.ack, msg.err); err != nil && !errors.As(err, new(*registration.SubmissionError)) {
		v.app.logWarn("Registration · unexpected result: %v", err)
		return nil
	}
	if v.wizard.Status() == registration.StatusFailed {
		v.notice = describeSubmitError(msg.err)
		v.app.logRecord(logbook.LevelWarn, "submission failed", map[string]string{
			"error": v.notice,
			"step":  fmt.Sprint(int(v.wizard.Step())),
		})
		return nil
	}
	form := v.wizard.Form()
	v.app.logRecord(logbook.LevelInfo, "registration submitted", map[string]string{
		"id":     msg.ack.ID,
		"events": joinEvents(form.Events),
	})
	policy := v.wizard.ResetPolicy()
	if !policy.Auto {
		return nil
	}
	v.resetToken++
	token := v.resetToken
	return tea.Tick(policy.Wait(), func(time.Time) tea.Msg {
		return resetWizardMsg{token: token}
	})
}

func describeSubmitError(err error) string {
	var rejected *submission.RejectedError
	switch {
	case errors.As(err, &rejected):
		return rejected.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "the registration desk did not answer in time"
	case err != nil:
		return err.Error()
	default:
		return "submission failed"
	}
}

func (v *wizardView) reset() tea.Cmd {
	v.resetToken++
	v.wizard.Reset()
	for _, input := range v.inputs {
		input.SetValue("")
	}
	return v.stepChanged()
}

func joinEvents(ids []registration.EventID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}

func (v *wizardView) View(width int) string {
	lines := []string{headerStyle.Render("REGISTER NOW"), v.renderSteps(), ""}
	if v.wizard.Status() == registration.StatusSubmitted {
		lines = append(lines, v.renderConfirmation()...)
		return strings.Join(lines, "\n")
	}

	step := v.wizard.Step()
	lines = append(lines, accentStyle.Render(step.Title()))
	focused := v.current()
	form := v.wizard.Form()
	profile := v.wizard.Profile()
	for _, field := range profile.StepFields(step) {
		marker := "  "
		if focused.kind == targetField && focused.field == field {
			marker = "› "
		}
		label := textStyle.Render(field.Label() + " *")
		var value string
		if profile.Options(field) != nil {
			value = renderChoice(form.Get(field))
		} else if input := v.inputs[field]; input != nil {
			value = input.View()
		}
		lines = append(lines, marker+label, "    "+value)
	}
	if step == registration.Step3 {
		lines = append(lines, "", textStyle.Render("Select events *"))
		for _, entry := range v.wizard.Catalog().Entries() {
			marker := "  "
			if focused.kind == targetEvent && focused.event == entry.ID {
				marker = "› "
			}
			box := "[ ]"
			if form.HasEvent(entry.ID) {
				box = okStyle.Render("[x]")
			}
			lines = append(lines, fmt.Sprintf("%s%s %s", marker, box, entry.Name))
		}
	}
	lines = append(lines, "", v.renderButtons(focused))

	switch v.wizard.Status() {
	case registration.StatusPending:
		lines = append(lines, mutedStyle.Render("Submitting…"))
	case registration.StatusFailed:
		lines = append(lines, errStyle.Width(width).Render("Submission failed: "+v.notice+" · press Submit to retry"))
	default:
		if v.notice != "" {
			lines = append(lines, errStyle.Width(width).Render(v.notice))
		}
	}
	lines = append(lines, "", mutedStyle.Render("tab/↑↓ move · ←/→ choose · space toggle · enter confirm · f1-f3 earlier steps"))
	return strings.Join(lines, "\n")
}

func (v *wizardView) renderSteps() string {
	current := v.wizard.Step()
	done := v.wizard.Status() == registration.StatusSubmitted
	parts := make([]string, 0, len(registration.Steps))
	for _, s := range registration.Steps {
		label := fmt.Sprintf("%d %s", s, s.Title())
		switch {
		case done || s < current:
			parts = append(parts, okStyle.Render("✓ "+label))
		case s == current:
			parts = append(parts, accentStyle.Render("● "+label))
		default:
			parts = append(parts, mutedStyle.Render("○ "+label))
		}
	}
	return strings.Join(parts, mutedStyle.Render(" ── "))
}

func (v *wizardView) renderButtons(focused focusTarget) string {
	var buttons []string
	if v.wizard.Step() > registration.Step1 {
		buttons = append(buttons, renderButton("Back", true, focused.kind == targetBack))
	}
	if v.wizard.Step() == registration.Step3 {
		buttons = append(buttons, renderButton("Submit", v.wizard.CanSubmit(), focused.kind == targetNext))
	} else {
		buttons = append(buttons, renderButton("Next", v.wizard.CanAdvance(), focused.kind == targetNext))
	}
	return strings.Join(buttons, "  ")
}

func renderButton(label string, enabled, focused bool) string {
	text := "[ " + label + " ]"
	if focused {
		text = "›" + text
	}
	switch {
	case !enabled:
		return mutedStyle.Render(text)
	case focused:
		return accentStyle.Render(text)
	default:
		return textStyle.Render(text)
	}
}

func renderChoice(value string) string {
	if value == "" {
		return mutedStyle.Render("‹ Select ›")
	}
	return accentStyle.Render("‹ " + titleCaser.String(value) + " ›")
}

func (v *wizardView) renderConfirmation() []string {
	form := v.wizard.Form()
	ack := v.wizard.Ack()
	names := make([]string, 0, len(form.Events))
	for _, id := range form.Events {
		names = append(names, v.wizard.Catalog().Name(id))
	}
	lines := []string{
		okStyle.Render("✓ Registration successful!"),
		textStyle.Render(fmt.Sprintf("Welcome to %s, %s. See you at %s.", v.app.festival.Title(), form.FullName, strings.Join(names, ", "))),
	}
	if ack.Message != "" {
		lines = append(lines, mutedStyle.Render(ack.Message))
	}
	if ack.ID != "" {
		lines = append(lines, mutedStyle.Render("Reference: "+ack.ID))
	}
	if policy := v.wizard.ResetPolicy(); policy.Auto {
		lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("The form resets in %s.", policy.Wait())))
	} else {
		lines = append(lines, "", mutedStyle.Render("Press enter to register someone else."))
	}
	return lines
}
