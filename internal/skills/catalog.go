package skills

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"

	checkerrors "github.com/randalmurphal/skillcheck/internal/errors"
)

// Categories maps a category key to its attribute metadata.
type Categories map[string]json.RawMessage

// Keys returns the category keys in sorted order.
func (c Categories) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadCategories reads the categories document at path. Any failure is a
// precondition failure for the whole run and is returned as a CheckError.
func LoadCategories(path string) (Categories, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, checkerrors.ErrCategoriesMissing(path).WithCause(err)
	}

	var doc struct {
		Attributes Categories `json:"attributes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, checkerrors.ErrCategoriesInvalid(path, err.Error())
	}
	if doc.Attributes == nil {
		return nil, checkerrors.ErrCategoriesInvalid(path, `missing "attributes" object`)
	}
	return doc.Attributes, nil
}

// ParentSet is the set of identifiers a skill document may extend.
type ParentSet map[string]struct{}

// Add inserts name into the set.
func (s ParentSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is an allowed parent.
func (s ParentSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in sorted order.
func (s ParentSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BuildParentSet collects the allowed parents: every category key, the global
// root identifier, and the name of each category or subcategory root document
// found under skillsDir. Root documents live at <dir>/<dir>.json; one that
// cannot be read or parsed contributes nothing.
func BuildParentSet(skillsDir string, categories Categories, rootName string) ParentSet {
	set := make(ParentSet, len(categories)+1)
	for key := range categories {
		set.Add(key)
	}
	set.Add(rootName)

	scanRootDirs(skillsDir, func(dir string) {
		if name, ok := tryRootName(dir); ok {
			set.Add(name)
		}
	})
	return set
}

// RootDocuments returns the paths of the category and subcategory root
// documents present under skillsDir, parseable or not.
func RootDocuments(skillsDir string) map[string]bool {
	roots := make(map[string]bool)
	scanRootDirs(skillsDir, func(dir string) {
		if path := rootPath(dir); isFile(path) {
			roots[path] = true
		}
	})
	return roots
}

// scanRootDirs calls fn for every category directory (a direct child of
// skillsDir) and every subcategory directory (a child of a category).
func scanRootDirs(skillsDir string, fn func(dir string)) {
	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		return
	}
	for _, category := range entries {
		categoryDir := filepath.Join(skillsDir, category.Name())
		if !isDir(categoryDir) {
			continue
		}
		fn(categoryDir)

		subs, err := os.ReadDir(categoryDir)
		if err != nil {
			continue
		}
		for _, sub := range subs {
			subDir := filepath.Join(categoryDir, sub.Name())
			if isDir(subDir) {
				fn(subDir)
			}
		}
	}
}

func rootPath(dir string) string {
	return filepath.Join(dir, filepath.Base(dir)+".json")
}

// tryRootName reads dir's root document and returns its declared name, or
// the directory name when the document has none. ok is false when there is
// no root document or it is not a JSON object; that is not an error.
func tryRootName(dir string) (name string, ok bool) {
	path := rootPath(dir)
	if !isFile(path) {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	if !gjson.ValidBytes(data) {
		return "", false
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return "", false
	}
	if n := field(res, "name"); isSet(n) {
		return text(n), true
	}
	return filepath.Base(dir), true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
