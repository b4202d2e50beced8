package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/skillcheck/internal/watcher"
)

// newWatchCmd creates the watch command.
func newWatchCmd(a *app) *cobra.Command {
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate whenever the catalog changes",
		Long: `Validate once, then watch the categories document and every JSON file
under the skills root, and validate again after each burst of changes.

Precondition failures (for example an unreadable categories document) are
printed and watching continues. Stop with Ctrl+C.

Examples:
  skillcheck watch
  skillcheck watch --debounce 1000 --check-cycles`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runOnce := func() {
				if _, err := a.validateOnce(cmd, cfg); err != nil {
					PrintError(cmd.ErrOrStderr(), err, a.flags.verbose)
				}
			}
			runOnce()

			w, err := watcher.New(&watcher.Config{
				SkillsDir:      cfg.SkillsPath(),
				CategoriesPath: cfg.CategoriesPath(),
				Logger:         a.logger,
				DebounceMs:     debounceMs,
				OnChange: func(paths []string) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d file(s) changed, validating again\n", len(paths))
					for _, p := range paths {
						a.logger.Debug("changed", "path", p)
					}
					runOnce()
				},
			})
			if err != nil {
				return err
			}

			go func() {
				select {
				case <-w.Ready():
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", cfg.SkillsPath())
				case <-ctx.Done():
				}
			}()

			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&debounceMs, "debounce", 300, "quiet period in milliseconds before validating again")

	return cmd
}
