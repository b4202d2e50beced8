package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/skillcheck/internal/config"
	"github.com/randalmurphal/skillcheck/internal/db"
	"github.com/randalmurphal/skillcheck/internal/validate"
)

// newValidateCmd creates the validate command.
func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the skill catalog",
		Long: `Validate every skill document under the skills root.

Checks, per document:
  - the file parses as a JSON object
  - extends is present (only the global root may omit it) and every
    parent is a category key, the global root, or a category or
    subcategory root name
  - name is present and not used by any earlier document

Only the global root may omit extends. Category and subcategory root
documents (<dir>/<dir>.json) need one too unless --exempt-roots is given,
so a tree whose category roots carry just a name fails by default.

Optional checks: --schema, --check-category, --check-cycles.

Exit status is 0 when the catalog passes and 1 otherwise.

Examples:
  skillcheck validate
  skillcheck validate --exclude 'drafts/**'
  skillcheck validate --check-cycles --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd)
		},
	}
}

func (a *app) runValidate(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	report, err := a.validateOnce(cmd, cfg)
	if err != nil {
		return err
	}
	if !report.Passed() {
		return ErrValidationFailed
	}
	return nil
}

// validateOnce runs one validation, records it when history is enabled and
// prints the report.
func (a *app) validateOnce(cmd *cobra.Command, cfg *config.Config) (*validate.Report, error) {
	opts := validate.Options{
		RootSkill:     cfg.RootSkill,
		Exclude:       cfg.Exclude,
		CheckCategory: cfg.CheckCategory,
		CheckCycles:   cfg.CheckCycles,
		ExemptRoots:   cfg.ExemptRoots,
	}
	if path := cfg.SchemaPath(); path != "" {
		schema, err := validate.LoadSchema(path)
		if err != nil {
			return nil, err
		}
		opts.Schema = schema
	}

	report, err := validate.NewChecker(opts, a.logger).Run(cfg.CategoriesPath(), cfg.SkillsPath())
	if err != nil {
		return nil, err
	}

	if cfg.History.Enabled {
		a.recordRun(cmd.Context(), cfg, report)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonOut {
		if err := writeJSON(out, report); err != nil {
			return nil, err
		}
	} else {
		printReport(out, report, a.useColor(out))
	}
	return report, nil
}

// recordRun stores report in the history database. Failures are logged and
// never change the outcome of the run.
func (a *app) recordRun(ctx context.Context, cfg *config.Config, report *validate.Report) {
	store, err := db.Open(ctx, cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		a.logger.Warn("run history unavailable", "run_id", report.RunID, "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	baseDir := cfg.BaseDir
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	if err := store.RecordRun(ctx, report, baseDir); err != nil {
		a.logger.Warn("record run", "run_id", report.RunID, "error", err)
		return
	}
	a.logger.Debug("recorded run", "run_id", report.RunID, "dsn", store.DSN())
}
