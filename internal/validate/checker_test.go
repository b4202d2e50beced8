package validate

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkerrors "github.com/randalmurphal/skillcheck/internal/errors"
	"github.com/randalmurphal/skillcheck/internal/skills"
	"github.com/randalmurphal/skillcheck/internal/testutil"
)

func run(t *testing.T, cat *testutil.Catalog, opts Options) *Report {
	t.Helper()
	report, err := NewChecker(opts, nil).Run(cat.CategoriesPath(), cat.SkillsDir())
	require.NoError(t, err)
	return report
}

func kinds(r *Report) []Kind {
	out := make([]Kind, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Kind
	}
	return out
}

func TestRun_CategoryRootWithoutExtends(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	root := cat.Skill("combat/combat.json", "combat", "")
	cat.Skill("combat/sword.json", "sword", "combat")

	report := run(t, cat, Options{})

	// Only the global root may omit extends by default.
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindMissingExtends, report.Issues[0].Kind)
	assert.Equal(t, root, report.Issues[0].Path)
}

func TestRun_CategoryRootScenarioWithExemptRoots(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("combat/combat.json", "combat", "")
	cat.Skill("combat/sword.json", "sword", "combat")

	report := run(t, cat, Options{ExemptRoots: true})

	assert.True(t, report.Passed(), "issues: %v", report.Lines())
	assert.Equal(t, 1, report.Categories)
	assert.Equal(t, 2, report.LeafSkills)
}

func TestRun_DuplicateScenarioWithExemptRoots(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("combat/combat.json", "combat", "")
	cat.Skill("combat/sword.json", "sword", "combat")
	cat.Skill("combat/axe.json", "sword", "combat")

	report := run(t, cat, Options{ExemptRoots: true})

	assert.Equal(t, []Kind{KindDuplicateName}, kinds(report))
}

func TestRun_ExemptRootsDoesNotCoverLeaves(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("combat/combat.json", "combat", "")
	leaf := cat.Skill("combat/sword.json", "sword", "")

	report := run(t, cat, Options{ExemptRoots: true})

	require.Len(t, report.Issues, 1)
	assert.Equal(t, leaf, report.Issues[0].Path)
}

func TestRun_ValidTreePasses(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("base_skill.json", "base_skill", "")
	cat.Skill("combat/combat.json", "combat", "base_skill")
	cat.Skill("combat/sword.json", "sword", "combat")

	report := run(t, cat, Options{})

	assert.True(t, report.Passed(), "issues: %v", report.Lines())
	assert.Equal(t, 1, report.Categories)
	assert.Equal(t, 3, report.LeafSkills)
	assert.Equal(t, 3, report.Files)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Lines())
}

func TestRun_LeafCountEqualsDocumentCount(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat", "magic")
	cat.Skill("combat/combat.json", "combat_root", "combat")
	cat.Skill("combat/blades/blades.json", "blades", "combat_root")
	cat.Skill("magic/fire.json", "fire", "magic")
	for i := 0; i < 5; i++ {
		cat.Skill(fmt.Sprintf("combat/blades/b%d.json", i), fmt.Sprintf("blade_%d", i), "blades")
	}

	report := run(t, cat, Options{})

	assert.True(t, report.Passed(), "issues: %v", report.Lines())
	assert.Equal(t, 2, report.Categories)
	assert.Equal(t, 8, report.LeafSkills)
}

func TestRun_UnknownParent(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("combat/sword.json", "sword", "combat")
	bad := cat.Skill("combat/laser.json", "laser", "scifi")

	report := run(t, cat, Options{})

	require.False(t, report.Passed())
	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, KindUnknownParent, issue.Kind)
	assert.Equal(t, bad, issue.Path)
	assert.Equal(t, "scifi", issue.Parent)
	assert.Equal(t, fmt.Sprintf(`Unknown parent "scifi" in %s`, bad), issue.String())
}

func TestRun_DuplicateName(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("combat/sword.json", "sword", "combat")
	axe := cat.Skill("combat/axe.json", "sword", "combat")

	report := run(t, cat, Options{})

	// axe.json is walked first, so it owns the name.
	sword := cat.Path("combat/sword.json")
	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, KindDuplicateName, issue.Kind)
	assert.Equal(t, sword, issue.Path)
	assert.Equal(t, axe, issue.FirstPath)
	assert.Equal(t,
		fmt.Sprintf("Duplicate leaf skill name sword (already in %s) at %s", axe, sword),
		issue.String())
	assert.Equal(t, 1, report.LeafSkills)
}

func TestRun_DuplicateFlagsEveryLaterOccurrence(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	first := cat.Skill("a/one.json", "dup", "combat")
	cat.Skill("b/two.json", "dup", "combat")
	cat.Skill("c/three.json", "dup", "combat")

	report := run(t, cat, Options{})

	require.Len(t, report.Issues, 2)
	for _, issue := range report.Issues {
		assert.Equal(t, KindDuplicateName, issue.Kind)
		assert.Equal(t, first, issue.FirstPath)
	}
}

func TestRun_NeitherNameNorExtends(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	path := cat.Raw("combat/empty.json", `{}`)

	report := run(t, cat, Options{})

	assert.Equal(t, []Kind{KindMissingExtends, KindMissingName}, kinds(report))
	assert.Equal(t, []string{
		"Missing extends: " + path,
		"Missing name in " + path,
	}, report.Lines())
}

func TestRun_InvalidJSON(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	path := cat.Raw("combat/broken.json", `{"name": "broken", "extends": "nowhere"`)
	cat.Raw("combat/list.json", `["name", "extends"]`)

	report := run(t, cat, Options{})

	require.Len(t, report.Issues, 2)
	assert.Equal(t, KindInvalidJSON, report.Issues[0].Kind)
	assert.Equal(t, path, report.Issues[0].Path)
	assert.True(t, strings.HasPrefix(report.Issues[0].String(), "Invalid JSON: "+path+": "))
	assert.Equal(t, KindInvalidJSON, report.Issues[1].Kind)
	assert.Contains(t, report.Issues[1].Detail, "not a JSON object")
	assert.Equal(t, 0, report.LeafSkills)
}

func TestRun_GlobalRootExemption(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("base_skill.json", "base_skill", "")
	cat.Skill("combat/sword.json", "sword", "base_skill")

	report := run(t, cat, Options{})
	assert.True(t, report.Passed(), "issues: %v", report.Lines())
}

func TestRun_CustomRootSkill(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("prototype.json", "prototype", "")
	cat.Skill("combat/sword.json", "sword", "prototype")
	base := cat.Skill("base_skill.json", "base_skill", "")

	report := run(t, cat, Options{RootSkill: "prototype"})

	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindMissingExtends, report.Issues[0].Kind)
	assert.Equal(t, base, report.Issues[0].Path)
}

func TestRun_RootDocumentWithUnknownParent(t *testing.T) {
	cat := testutil.NewCatalog(t)
	cat.Skill("base_skill.json", "base_skill", "ghost")

	report := run(t, cat, Options{})

	assert.Equal(t, []Kind{KindUnknownParent}, kinds(report))
}

func TestRun_SubcategoryRootsAreParents(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("combat/combat.json", "martial", "combat")
	cat.Skill("combat/blades/blades.json", "", "martial")
	cat.Skill("combat/blades/dagger.json", "dagger", "blades")

	report := run(t, cat, Options{})

	// blades.json has no name: the directory name makes it a parent, but the
	// document itself still needs a name.
	assert.Equal(t, []Kind{KindMissingName}, kinds(report))
}

func TestRun_RepeatedKeysKeepLast(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Raw("combat/a.json", `{"name": "alpha", "extends": "nope", "extends": "combat"}`)
	cat.Raw("combat/b.json", `{"name": "x", "name": "beta", "extends": "combat"}`)
	cat.Skill("combat/c.json", "x", "combat")

	report := run(t, cat, Options{})

	assert.True(t, report.Passed(), "issues: %v", report.Lines())
	assert.Equal(t, 3, report.LeafSkills)
}

func TestRun_ExtendsArray(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat", "magic")
	cat.Raw("hybrid/spellblade.json", `{"name": "spellblade", "extends": ["combat", "magic"]}`)
	path := cat.Raw("hybrid/gunmage.json", `{"name": "gunmage", "extends": ["magic", "guns", "lasers"]}`)

	report := run(t, cat, Options{})

	require.Len(t, report.Issues, 2)
	assert.Equal(t, "guns", report.Issues[0].Parent)
	assert.Equal(t, "lasers", report.Issues[1].Parent)
	assert.Equal(t, path, report.Issues[1].Path)
}

func TestRun_ExcludePatterns(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("combat/sword.json", "sword", "combat")
	cat.Raw("drafts/broken.json", `{`)

	report := run(t, cat, Options{Exclude: []string{"drafts/**"}})

	assert.True(t, report.Passed(), "issues: %v", report.Lines())
	assert.Equal(t, 1, report.Files)
}

func TestRun_CategoriesMissingIsFatal(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	testutil.WriteFile(t, cat.CategoriesPath(), `{"attributes": `)

	report, err := NewChecker(Options{}, nil).Run(cat.CategoriesPath(), cat.SkillsDir())

	require.Error(t, err)
	assert.Nil(t, report)
	checkErr := checkerrors.AsCheckError(err)
	require.NotNil(t, checkErr)
	assert.Equal(t, checkerrors.CodeCategoriesInvalid, checkErr.Code)
}

func TestRun_MissingSkillsDirPasses(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat", "magic")

	report, err := NewChecker(Options{}, nil).Run(cat.CategoriesPath(), cat.Path("nope"))

	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Equal(t, 2, report.Categories)
	assert.Equal(t, 0, report.LeafSkills)
}

func TestRun_IssuesKeepDiscoveryOrder(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Raw("a.json", `nope`)
	cat.Skill("b.json", "b", "ghost")
	cat.Skill("c.json", "", "combat")
	cat.Skill("d.json", "b", "combat")

	report := run(t, cat, Options{})

	assert.Equal(t, []Kind{
		KindInvalidJSON,
		KindUnknownParent,
		KindMissingName,
		KindDuplicateName,
	}, kinds(report))
}

func TestRun_CategoryCheck(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Raw("ok.json", `{"name": "ok", "extends": "combat", "category": "combat"}`)
	bad := cat.Raw("bad.json", `{"name": "bad", "extends": "combat", "category": "cooking"}`)
	cat.Raw("typed.json", `{"name": "typed", "extends": "combat", "category": 7}`)

	report := run(t, cat, Options{})
	assert.True(t, report.Passed(), "category check is off by default")

	report = run(t, cat, Options{CheckCategory: true})
	require.Equal(t, []Kind{KindUnknownCategory, KindCategoryType}, kinds(report))
	assert.Equal(t, fmt.Sprintf(`Unknown category "cooking" in %s`, bad), report.Issues[0].String())
}

func TestCheckDocument_Direct(t *testing.T) {
	checker := NewChecker(Options{}, nil)
	vctx := NewContext(skills.Categories{"combat": nil}, skills.ParentSet{"combat": {}})

	checker.CheckDocument(vctx, "one.json", []byte(`{"name": "one", "extends": "combat"}`))
	checker.CheckDocument(vctx, "two.json", []byte(`{"name": "one", "extends": "combat"}`))

	require.Len(t, vctx.Issues, 1)
	assert.Equal(t, KindDuplicateName, vctx.Issues[0].Kind)
	assert.Equal(t, 2, vctx.Files)
	first, ok := vctx.Registry.Lookup("one")
	assert.True(t, ok)
	assert.Equal(t, "one.json", first)
}

func TestRun_LogsAtDebug(t *testing.T) {
	cat := testutil.NewCatalog(t, "combat")
	cat.Skill("combat/sword.json", "sword", "combat")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	report, err := NewChecker(Options{}, logger).Run(cat.CategoriesPath(), cat.SkillsDir())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "categories=[combat]")
	assert.Contains(t, buf.String(), "base_skill combat")
	assert.Contains(t, buf.String(), "walked skills")
	assert.Contains(t, buf.String(), "run_id="+report.RunID)
}
