package validate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies a validation issue.
type Kind string

// Issue kinds.
const (
	KindUnreadable      Kind = "unreadable"
	KindInvalidJSON     Kind = "invalid_json"
	KindMissingExtends  Kind = "missing_extends"
	KindUnknownParent   Kind = "unknown_parent"
	KindMissingName     Kind = "missing_name"
	KindDuplicateName   Kind = "duplicate_name"
	KindSchemaViolation Kind = "schema_violation"
	KindUnknownCategory Kind = "unknown_category"
	KindCategoryType    Kind = "category_type"
	KindCycle           Kind = "inheritance_cycle"
)

// Issue is one problem found in the skill tree.
type Issue struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path"`
	// Name is the skill name for duplicate-name issues.
	Name string `json:"name,omitempty"`
	// Parent is the unresolved parent, or the rejected category value.
	Parent string `json:"parent,omitempty"`
	// FirstPath is where a duplicated name was first registered.
	FirstPath string `json:"first_path,omitempty"`
	// Chain is the name sequence of an inheritance cycle, first name repeated last.
	Chain []string `json:"chain,omitempty"`
	// Detail carries the underlying parser or schema message.
	Detail string `json:"detail,omitempty"`
}

// String renders the issue as one report line.
func (i Issue) String() string {
	switch i.Kind {
	case KindUnreadable:
		return fmt.Sprintf("Unreadable file: %s: %s", i.Path, i.Detail)
	case KindInvalidJSON:
		return fmt.Sprintf("Invalid JSON: %s: %s", i.Path, i.Detail)
	case KindMissingExtends:
		return fmt.Sprintf("Missing extends: %s", i.Path)
	case KindUnknownParent:
		return fmt.Sprintf("Unknown parent \"%s\" in %s", i.Parent, i.Path)
	case KindMissingName:
		return fmt.Sprintf("Missing name in %s", i.Path)
	case KindDuplicateName:
		return fmt.Sprintf("Duplicate leaf skill name %s (already in %s) at %s", i.Name, i.FirstPath, i.Path)
	case KindSchemaViolation:
		return fmt.Sprintf("Schema violation in %s: %s", i.Path, i.Detail)
	case KindUnknownCategory:
		return fmt.Sprintf("Unknown category \"%s\" in %s", i.Parent, i.Path)
	case KindCategoryType:
		return fmt.Sprintf("Category must be a string in %s", i.Path)
	case KindCycle:
		return fmt.Sprintf("Inheritance cycle: %s (from %s)", strings.Join(i.Chain, " -> "), i.Path)
	default:
		return fmt.Sprintf("%s: %s", i.Kind, i.Path)
	}
}

// MarshalJSON includes the rendered message alongside the structured fields.
func (i Issue) MarshalJSON() ([]byte, error) {
	type alias Issue
	return json.Marshal(struct {
		alias
		Message string `json:"message"`
	}{
		alias:   alias(i),
		Message: i.String(),
	})
}
