// Package festival holds the static content of the festival: its events and
// their stages, the organising team and contact details. Content ships as
// embedded YAML and can be replaced per project with .techfest/festival.yaml.
package festival

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/techfest/internal/registration"
)

//go:embed default.yaml
var defaultContent []byte

// Stage is one round of an event.
type Stage struct {
	Title       string   `yaml:"title"`
	Label       string   `yaml:"label,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Details     []string `yaml:"details,omitempty"`
}

// Note is a titled blurb: an ethics principle or a judging criterion.
type Note struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// Weight is a 0-100 emphasis used to draw meters; zero hides the meter.
	Weight int `yaml:"weight,omitempty"`
}

// Event is a competition listed on the roadmap and selectable at registration.
type Event struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Icon       string  `yaml:"icon,omitempty"`
	Tagline    string  `yaml:"tagline,omitempty"`
	Stages     []Stage `yaml:"stages"`
	Principles []Note  `yaml:"principles,omitempty"`
	Criteria   []Note  `yaml:"criteria,omitempty"`
}

// Member is one organiser.
type Member struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// Contact lists the ways to reach the organisers.
type Contact struct {
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Location string `yaml:"location"`
}

// Link is a social or quick link shown in the footer.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Festival is the full content model.
type Festival struct {
	Name         string   `yaml:"name"`
	Edition      string   `yaml:"edition"`
	Tagline      string   `yaml:"tagline"`
	About        string   `yaml:"about"`
	RoadmapIntro string   `yaml:"roadmap_intro"`
	Events       []Event  `yaml:"events"`
	Team         []Member `yaml:"team"`
	Contact      Contact  `yaml:"contact"`
	Links        []Link   `yaml:"links"`
}

// Default returns the bundled festival content.
func Default() (Festival, error) {
	return Parse(defaultContent)
}

// Load reads an override from path, falling back to the bundled content when
// the file does not exist.
func Load(path string) (Festival, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default()
		}
		return Festival{}, fmt.Errorf("festival: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, normalizes and validates festival YAML.
func Parse(data []byte) (Festival, error) {
	var f Festival
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Festival{}, fmt.Errorf("festival: parse: %w", err)
	}
	f.normalize()
	if err := f.validate(); err != nil {
		return Festival{}, fmt.Errorf("festival: %w", err)
	}
	return f, nil
}

// Title is the name with its edition, e.g. "TECHFEST 2026".
func (f Festival) Title() string {
	if f.Edition == "" {
		return f.Name
	}
	return f.Name + " " + f.Edition
}

// Event looks an event up by id.
func (f Festival) Event(id string) (Event, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, evt := range f.Events {
		if evt.ID == id {
			return evt, true
		}
	}
	return Event{}, false
}

// Catalog builds the registration catalog from the listed events.
func (f Festival) Catalog() (registration.Catalog, error) {
	entries := make([]registration.CatalogEntry, 0, len(f.Events))
	for _, evt := range f.Events {
		entries = append(entries, registration.CatalogEntry{ID: registration.EventID(evt.ID), Name: evt.Name})
	}
	return registration.NewCatalog(entries)
}

func (f *Festival) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Edition = strings.TrimSpace(f.Edition)
	for i := range f.Events {
		evt := &f.Events[i]
		evt.ID = strings.ToLower(strings.TrimSpace(evt.ID))
		evt.Name = strings.TrimSpace(evt.Name)
		for j := range evt.Stages {
			evt.Stages[j].Title = strings.TrimSpace(evt.Stages[j].Title)
		}
	}
}

func (f Festival) validate() error {
	if f.Name == "" {
		return errors.New("name is required")
	}
	if len(f.Events) == 0 {
		return errors.New("at least one event is required")
	}
	seen := map[string]struct{}{}
	for i, evt := range f.Events {
		if evt.ID == "" {
			return fmt.Errorf("events[%d]: id is required", i)
		}
		if evt.Name == "" {
			return fmt.Errorf("events[%d]: name is required", i)
		}
		if _, dup := seen[evt.ID]; dup {
			return fmt.Errorf("events[%d]: duplicate id %q", i, evt.ID)
		}
		seen[evt.ID] = struct{}{}
		for j, stage := range evt.Stages {
			if stage.Title == "" {
				return fmt.Errorf("events[%d].stages[%d]: title is required", i, j)
			}
		}
		for _, note := range evt.Criteria {
			if note.Weight < 0 || note.Weight > 100 {
				return fmt.Errorf("events[%d]: criterion %q weight must be within 0-100", i, note.Title)
			}
		}
	}
	return nil
}
