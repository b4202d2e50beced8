// Package cli implements the skillcheck command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/randalmurphal/skillcheck/internal/config"
	checkerrors "github.com/randalmurphal/skillcheck/internal/errors"
)

// ErrValidationFailed is returned when a run completes with issues. The
// report has already been printed, so Execute does not print it again.
var ErrValidationFailed = errors.New("validation failed")

type globalFlags struct {
	cfgFile string
	verbose bool
	jsonOut bool
	noColor bool
}

// app holds the state shared by every command of one invocation.
type app struct {
	flags  globalFlags
	v      *viper.Viper
	logger *slog.Logger
}

func newApp() *app {
	return &app{
		v:      config.NewViper(),
		logger: slog.Default(),
	}
}

// Execute builds the command tree and runs it.
func Execute() error {
	a := newApp()
	cmd := a.command()
	err := cmd.Execute()
	if err != nil && !errors.Is(err, ErrValidationFailed) {
		PrintError(cmd.ErrOrStderr(), err, a.flags.verbose)
	}
	return err
}

// command returns the root command. Without a subcommand it validates.
func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skillcheck",
		Short: "Validate a skill catalog",
		Long: `skillcheck checks a skill catalog: a categories document plus a tree of
skill documents that extend categories, category roots or the global root.

Every document must name a known parent and carry a name that is unique
across the whole tree. Only the global root may omit extends; pass
--exempt-roots to let category and subcategory root documents omit it too.
All problems are collected and reported together.

Quick start:
  skillcheck                         Validate ./skill_categories.json and ./skills
  skillcheck --base-dir data/        Validate a catalog elsewhere
  skillcheck --json                  Emit the report as JSON
  skillcheck watch                   Validate again on every change
  skillcheck history                 List recorded runs`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flags.cfgFile, "config", "", "config file (default is ./.skillcheck.yaml)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&a.flags.jsonOut, "json", false, "output as JSON")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")

	pf.String("base-dir", "", "base directory for relative paths")
	pf.String("categories", "", "categories document (default skill_categories.json)")
	pf.String("skills-dir", "", "skills root directory (default skills)")
	pf.String("root-skill", "", "global root identifier (default base_skill)")
	pf.StringSlice("exclude", nil, "glob patterns to skip, relative to the skills root")
	pf.String("schema", "", "JSON Schema every skill document must satisfy")
	pf.Bool("check-category", false, "check the category field against the categories document")
	pf.Bool("check-cycles", false, "report inheritance cycles")
	pf.Bool("exempt-roots", false, "let category and subcategory roots omit extends")
	pf.Bool("record", false, "record the run in the history database")
	bindFlags(a.v, pf, map[string]string{
		"base_dir":        "base-dir",
		"categories_file": "categories",
		"skills_dir":      "skills-dir",
		"root_skill":      "root-skill",
		"exclude":         "exclude",
		"schema_file":     "schema",
		"check_category":  "check-category",
		"check_cycles":    "check-cycles",
		"exempt_roots":    "exempt-roots",
		"history.enabled": "record",
	})

	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		_ = v.BindPFlag(key, fs.Lookup(flag))
	}
}

// initConfig installs the logger and reads the config file, if any.
func (a *app) initConfig(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if a.flags.cfgFile != "" {
		a.v.SetConfigFile(a.flags.cfgFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName(config.ConfigFileName)
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.flags.cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return checkerrors.ErrConfigInvalid("config", err.Error()).WithCause(err)
	}
	a.logger.Debug("using config file", "path", a.v.ConfigFileUsed())
	return nil
}

// loadConfig returns the validated configuration merged from every source.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
