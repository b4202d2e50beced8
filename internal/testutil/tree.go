// Package testutil provides fixture helpers for skill catalog tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// Catalog is a temporary catalog root with a categories document and a
// skills directory.
type Catalog struct {
	t       *testing.T
	RootDir string
}

// NewCatalog creates a temporary catalog whose categories document lists the
// given category keys with empty attribute metadata. It is cleaned up when
// the test completes.
func NewCatalog(t *testing.T, categories ...string) *Catalog {
	t.Helper()

	root := t.TempDir()
	attrs := make(map[string]any, len(categories))
	for _, c := range categories {
		attrs[c] = map[string]any{}
	}
	WriteJSON(t, filepath.Join(root, "skill_categories.json"), map[string]any{"attributes": attrs})
	if err := os.MkdirAll(filepath.Join(root, "skills"), 0755); err != nil {
		t.Fatalf("create skills dir: %v", err)
	}

	return &Catalog{t: t, RootDir: root}
}

// CategoriesPath returns the path of the categories document.
func (c *Catalog) CategoriesPath() string {
	return filepath.Join(c.RootDir, "skill_categories.json")
}

// SkillsDir returns the path of the skills directory.
func (c *Catalog) SkillsDir() string {
	return filepath.Join(c.RootDir, "skills")
}

// Path returns the absolute path of a file given relative to the skills directory.
func (c *Catalog) Path(rel string) string {
	return filepath.Join(c.SkillsDir(), filepath.FromSlash(rel))
}

// Skill writes a skill document with the given fields. Empty fields are omitted.
func (c *Catalog) Skill(rel, name, extends string) string {
	c.t.Helper()

	doc := map[string]any{}
	if name != "" {
		doc["name"] = name
	}
	if extends != "" {
		doc["extends"] = extends
	}
	path := c.Path(rel)
	WriteJSON(c.t, path, doc)
	return path
}

// Raw writes content verbatim to a file relative to the skills directory.
func (c *Catalog) Raw(rel, content string) string {
	c.t.Helper()

	path := c.Path(rel)
	WriteFile(c.t, path, content)
	return path
}

// WriteJSON marshals v to path, creating parent directories.
func WriteJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	WriteFile(t, path, string(data))
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
