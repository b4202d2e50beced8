package validate

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/skillcheck/internal/skills"
)

// Options configures a Checker.
type Options struct {
	// RootSkill is the global root identifier. The root document is the only
	// one allowed to omit extends, and it is always an allowed parent.
	RootSkill string
	// Exclude holds doublestar patterns skipped by the walker.
	Exclude []string
	// Schema, when set, is applied to every parsed document.
	Schema *Schema
	// CheckCategory enables the category field membership check.
	CheckCategory bool
	// CheckCycles enables inheritance cycle detection after the walk.
	CheckCycles bool
	// ExemptRoots lets category and subcategory root documents omit extends,
	// like the global root.
	ExemptRoots bool
}

// Checker runs the three validation phases: load categories and roots, walk
// the skill tree, check each document.
type Checker struct {
	opts   Options
	logger *slog.Logger
}

// NewChecker creates a checker. A nil logger uses slog.Default().
func NewChecker(opts Options, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RootSkill == "" {
		opts.RootSkill = "base_skill"
	}
	return &Checker{opts: opts, logger: logger}
}

// Run validates the catalog made of the categories document and the skills
// directory. The returned error is non-nil only when the categories document
// cannot be loaded; every per-file problem is an Issue in the report.
func (c *Checker) Run(categoriesPath, skillsDir string) (*Report, error) {
	started := time.Now()
	runID := uuid.NewString()

	categories, err := skills.LoadCategories(categoriesPath)
	if err != nil {
		return nil, err
	}
	parents := skills.BuildParentSet(skillsDir, categories, c.opts.RootSkill)
	c.logger.Debug("loaded catalog",
		"run_id", runID,
		"categories", categories.Keys(),
		"allowed_parents", parents.Sorted())

	vctx := NewContext(categories, parents)
	if c.opts.ExemptRoots {
		vctx.RootDocuments = skills.RootDocuments(skillsDir)
	}

	paths := skills.Walk(skillsDir, c.opts.Exclude)
	c.logger.Debug("walked skills", "run_id", runID, "dir", skillsDir, "files", len(paths))

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			vctx.Files++
			vctx.Add(Issue{Kind: KindUnreadable, Path: path, Detail: err.Error()})
			continue
		}
		c.CheckDocument(vctx, path, data)
	}

	if c.opts.CheckCycles {
		c.checkCycles(vctx)
	}

	report := newReport(runID, started, vctx)
	c.logger.Debug("validation finished",
		"run_id", runID,
		"passed", report.Passed(),
		"issues", len(report.Issues),
		"duration", time.Since(started))
	return report, nil
}

// CheckDocument applies the per-document rules to one file's contents and
// records any issues in vctx.
func (c *Checker) CheckDocument(vctx *Context, path string, data []byte) {
	vctx.Files++

	doc, err := skills.ParseDocument(path, data)
	if err != nil {
		vctx.Add(Issue{Kind: KindInvalidJSON, Path: path, Detail: err.Error()})
		return
	}

	if len(doc.Extends) == 0 && !c.mayOmitExtends(vctx, doc) {
		vctx.Add(Issue{Kind: KindMissingExtends, Path: path})
	} else {
		for _, parent := range doc.Extends {
			if !vctx.Parents.Has(parent) {
				vctx.Add(Issue{Kind: KindUnknownParent, Path: path, Parent: parent})
			}
		}
	}

	if doc.Name == "" {
		vctx.Add(Issue{Kind: KindMissingName, Path: path})
	} else if first, ok := vctx.Registry.Register(doc.Name, path); !ok {
		vctx.Add(Issue{Kind: KindDuplicateName, Path: path, Name: doc.Name, FirstPath: first})
	} else {
		vctx.edges[doc.Name] = doc.Extends
	}

	if c.opts.Schema != nil {
		c.checkSchema(vctx, doc)
	}
	if c.opts.CheckCategory {
		checkCategory(vctx, doc)
	}
}

func (c *Checker) mayOmitExtends(vctx *Context, doc *skills.Document) bool {
	if doc.Name == c.opts.RootSkill {
		return true
	}
	return c.opts.ExemptRoots && vctx.RootDocuments[doc.Path]
}

func (c *Checker) checkSchema(vctx *Context, doc *skills.Document) {
	violations, err := c.opts.Schema.Violations(doc.Raw)
	if err != nil {
		vctx.Add(Issue{Kind: KindSchemaViolation, Path: doc.Path, Detail: err.Error()})
		return
	}
	for _, v := range violations {
		vctx.Add(Issue{Kind: KindSchemaViolation, Path: doc.Path, Detail: v})
	}
}

func checkCategory(vctx *Context, doc *skills.Document) {
	value, isString, present := doc.Category()
	if !present {
		return
	}
	if !isString {
		vctx.Add(Issue{Kind: KindCategoryType, Path: doc.Path})
		return
	}
	if _, ok := vctx.Categories[value]; !ok {
		vctx.Add(Issue{Kind: KindUnknownCategory, Path: doc.Path, Parent: value})
	}
}
