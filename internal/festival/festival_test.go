package festival

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultContentListsThreeEvents(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatalf("default content: %v", err)
	}
	if f.Title() != "TECHFEST 2026" {
		t.Fatalf("title = %q", f.Title())
	}
	var ids []string
	for _, evt := range f.Events {
		ids = append(ids, evt.ID)
	}
	if strings.Join(ids, ",") != "dsa,ethitech,cipher" {
		t.Fatalf("event ids = %v", ids)
	}
	catalog, err := f.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if catalog.Len() != 3 || catalog.Name("cipher") != "Cipherville" {
		t.Fatalf("unexpected catalog %+v", catalog.Entries())
	}
	cipher, ok := f.Event("CIPHER")
	if !ok || len(cipher.Criteria) != 2 || cipher.Criteria[1].Weight != 92 {
		t.Fatalf("cipherville criteria not loaded: %+v", cipher.Criteria)
	}
}

func TestLoadFallsBackWhenOverrideMissing(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "festival.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(f.Team) != 4 {
		t.Fatalf("expected bundled team, got %d members", len(f.Team))
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "festival.yaml")
	content := strings.TrimSpace(`
name: CODEFEST
events:
  - id: " Hack "
    name: Hackathon
    stages:
      - title: Build
`)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Title() != "CODEFEST" {
		t.Fatalf("title = %q", f.Title())
	}
	if _, ok := f.Event("hack"); !ok {
		t.Fatalf("event id was not normalized")
	}
}

func TestParseRejectsDuplicateEvents(t *testing.T) {
	content := `
name: X
events:
  - id: dsa
    name: One
  - id: DSA
    name: Two
`
	if _, err := Parse([]byte(content)); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
