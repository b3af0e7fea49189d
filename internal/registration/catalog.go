package registration

import (
	"errors"
	"fmt"
	"strings"
)

// CatalogEntry is one selectable event.
type CatalogEntry struct {
	ID   EventID
	Name string
}

// Catalog is the fixed, ordered list of events a registrant may pick from.
type Catalog struct {
	entries []CatalogEntry
	index   map[EventID]int
}

// DefaultCatalog mirrors the festival's three flagship events.
func DefaultCatalog() Catalog {
	catalog, _ := NewCatalog([]CatalogEntry{
		{ID: "dsa", Name: "DSA Masters"},
		{ID: "ethitech", Name: "Ethi Tech Mania"},
		{ID: "cipher", Name: "Cipherville"},
	})
	return catalog
}

// NewCatalog validates entries and builds a Catalog from them.
func NewCatalog(entries []CatalogEntry) (Catalog, error) {
	if len(entries) == 0 {
		return Catalog{}, errors.New("registration: catalog must list at least one event")
	}
	catalog := Catalog{
		entries: make([]CatalogEntry, 0, len(entries)),
		index:   make(map[EventID]int, len(entries)),
	}
	for i, entry := range entries {
		id := EventID(strings.ToLower(strings.TrimSpace(string(entry.ID))))
		if id == "" {
			return Catalog{}, fmt.Errorf("registration: catalog entry %d is missing an id", i)
		}
		if _, dup := catalog.index[id]; dup {
			return Catalog{}, fmt.Errorf("registration: duplicate catalog id %q", id)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = string(id)
		}
		catalog.index[id] = len(catalog.entries)
		catalog.entries = append(catalog.entries, CatalogEntry{ID: id, Name: name})
	}
	return catalog, nil
}

// Entries returns a copy of the catalog in display order.
func (c Catalog) Entries() []CatalogEntry {
	return append([]CatalogEntry(nil), c.entries...)
}

// Len reports the number of events.
func (c Catalog) Len() int { return len(c.entries) }

// Contains reports catalog membership.
func (c Catalog) Contains(id EventID) bool {
	_, ok := c.index[id]
	return ok
}

// Name returns the display name for id, or the id itself when unknown.
func (c Catalog) Name(id EventID) string {
	if idx, ok := c.index[id]; ok {
		return c.entries[idx].Name
	}
	return string(id)
}
