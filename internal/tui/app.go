// internal/tui/app.go
//
// This is the terminal rendition of the festival site.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kingrea/techfest/internal/config"
	"github.com/kingrea/techfest/internal/festival"
	"github.com/kingrea/techfest/internal/logbook"
	"github.com/kingrea/techfest/internal/logging"
	"github.com/kingrea/techfest/internal/registration"
	"github.com/kingrea/techfest/internal/submission"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu appState = iota
	stateOverview
	stateRoadmap
	stateEvent
	stateRegister
	stateTeam
)

const logPanelLines = 6

var titleCaser = cases.Title(language.English)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00F0FF")).MarginBottom(1)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00E5")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithSubmitter replaces the submitter chosen from submission.mode.
func WithSubmitter(s registration.Submitter) AppOption {
	return func(a *App) {
		if s != nil {
			a.submitter = s
		}
	}
}

// WithFestival replaces the festival content loaded from disk.
func WithFestival(f festival.Festival) AppOption {
	return func(a *App) {
		a.festival = f
	}
}

// WithContext sets the parent context for submissions.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithResetPolicy overrides the configured reset behaviour.
func WithResetPolicy(p registration.ResetPolicy) AppOption {
	return func(a *App) {
		a.resetPolicy = &p
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state     appState
	config    *config.Config
	festival  festival.Festival
	logbook   *logbook.Logbook
	logger    *logging.Logger
	submitter registration.Submitter
	ctx       context.Context

	resetPolicy *registration.ResetPolicy

	// Screens. The wizard outlives visits to the register screen so a
	// half-filled form survives a detour through the menu.
	mainMenu  list.Model
	eventView *eventView
	wizard    *wizardView

	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

type menuAction int

const (
	actionOverview menuAction = iota
	actionRoadmap
	actionEvent
	actionRegister
	actionTeam
	actionExit
)

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title   string
	desc    string
	action  menuAction
	eventID string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates a new App instance for the project rooted at projectDir.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.New(projectDir)
	if err != nil {
		return nil, err
	}
	fest, err := festival.Load(cfg.FestivalPath())
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(projectDir, "techfest")
	if err != nil {
		return nil, err
	}
	lb := openLogbook(filepath.Join(cfg.LogsDir(), "session.log"), logger)

	app := &App{
		state:    stateMainMenu,
		config:   cfg,
		festival: fest,
		logbook:  lb,
		logger:   logger,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.submitter == nil {
		sub, err := submission.New(cfg, logger)
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
		app.submitter = sub
	}

	wizard, err := app.newWizard()
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	app.wizard = wizard

	mainMenu := list.New(buildMainMenu(app.festival), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⬡ " + app.festival.Title()
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	app.mainMenu = mainMenu

	app.logInfo("Session opened · %d events · submission mode %s", len(app.festival.Events), cfg.Project.Submission.Mode)
	return app, nil
}

func (a *App) newWizard() (*wizardView, error) {
	catalog, err := a.festival.Catalog()
	if err != nil {
		return nil, err
	}
	profile, err := a.config.Profile()
	if err != nil {
		return nil, err
	}
	policy := a.config.ResetPolicy()
	if a.resetPolicy != nil {
		policy = *a.resetPolicy
	}
	wiz := registration.New(catalog,
		registration.WithProfile(profile),
		registration.WithResetPolicy(policy),
	)
	return newWizardView(a, wiz), nil
}

// Close releases the application log.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.logger.Close()
}

// buildMainMenu lists the site sections followed by one entry per event.
func buildMainMenu(f festival.Festival) []list.Item {
	items := []list.Item{
		menuItem{title: "Overview", desc: f.Tagline, action: actionOverview},
		menuItem{title: "Roadmap", desc: "The journey through every challenge", action: actionRoadmap},
	}
	for _, evt := range f.Events {
		title := evt.Name
		if evt.Icon != "" {
			title = evt.Icon + " " + evt.Name
		}
		items = append(items, menuItem{title: title, desc: evt.Tagline, action: actionEvent, eventID: evt.ID})
	}
	items = append(items,
		menuItem{title: "Register", desc: "Join the revolution", action: actionRegister},
		menuItem{title: "Team & Contact", desc: "Meet the organisers", action: actionTeam},
		menuItem{title: "Exit", desc: "Quit " + f.Name, action: actionExit},
	)
	return items
}

func (a *App) logInfo(format string, args ...any) {
	a.logger.Printf(format, args...)
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	a.logger.Printf("WARN "+format, args...)
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logRecord(level logbook.Level, message string, fields map[string]string) {
	a.logger.Printf("%s %s %v", level, message, fields)
	if a.logbook == nil {
		return
	}
	a.logbook.Record(level, message, fields)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-logPanelLines-8))
		return a, nil

	// Submission results and reset ticks belong to the wizard wherever the user is.
	case submitResultMsg, resetWizardMsg:
		return a, a.wizard.Update(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateMainMenu {
				return a, tea.Quit
			}
		case "esc":
			if a.state != stateMainMenu {
				return a.returnToMainMenu()
			}
		case "enter":
			if a.state == stateMainMenu {
				return a.handleMainMenuSelection()
			}
		}
	}

	switch a.state {
	case stateMainMenu:
		var cmd tea.Cmd
		a.mainMenu, cmd = a.mainMenu.Update(msg)
		return a, cmd
	case stateEvent:
		if a.eventView != nil {
			a.eventView.Update(msg)
		}
	case stateRegister:
		return a, a.wizard.Update(msg)
	}
	return a, nil
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	a.statusMsg = ""
	switch item.action {
	case actionOverview:
		a.state = stateOverview
	case actionRoadmap:
		a.state = stateRoadmap
	case actionEvent:
		evt, ok := a.festival.Event(item.eventID)
		if !ok {
			a.statusMsg = fmt.Sprintf("Event %s is unavailable", item.eventID)
			return a, nil
		}
		a.eventView = newEventView(evt)
		a.state = stateEvent
		a.logInfo("Menu · %s opened", evt.Name)
	case actionRegister:
		a.state = stateRegister
		a.logInfo("Menu · Register opened (step %d)", a.wizard.wizard.Step())
		return a, a.wizard.focusCurrent()
	case actionTeam:
		a.state = stateTeam
	case actionExit:
		a.logInfo("Menu · Exit selected")
		return a, tea.Quit
	}
	return a, nil
}

// returnToMainMenu transitions back to the main menu
func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.eventView = nil
	a.statusMsg = ""
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	contentWidth := max(20, width-4)
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateOverview:
		content = renderOverview(a.festival, contentWidth)
	case stateRoadmap:
		content = renderRoadmap(a.festival, contentWidth)
	case stateEvent:
		if a.eventView != nil {
			content = a.eventView.View(contentWidth)
		}
	case stateRegister:
		content = a.wizard.View(contentWidth)
	case stateTeam:
		content = renderTeam(a.festival, contentWidth)
	}

	sections := []string{
		headerStyle.Render("⬡ " + a.festival.Title()),
		boxStyle.Width(contentWidth).Render(content),
	}
	if panel := a.renderLogPanel(contentWidth); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, mutedStyle.MarginTop(1).Render(a.footer()))
	return strings.Join(sections, "\n")
}

func (a *App) footer() string {
	hint := "esc menu · ctrl+c quit"
	if a.state == stateMainMenu {
		hint = "enter open · q quit"
	}
	if a.statusMsg == "" {
		return hint
	}
	return a.statusMsg + " · " + hint
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s · %d entries", filepath.Base(a.logbook.Path()), total))
	body := mutedStyle.Render(strings.Join(lines, "\n"))
	return boxStyle.Width(width).Render(head + "\n" + body)
}

// openLogbook returns nil when the journal cannot be opened; the app runs
// without the log panel in that case.
func openLogbook(path string, logger *logging.Logger) *logbook.Logbook {
	lb, err := logbook.New(path)
	if err != nil {
		logger.Printf("session journal disabled: %v", err)
		return nil
	}
	return lb
}
