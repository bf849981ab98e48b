package main

import (
	"fmt"
	"time"

	"github.com/drewdunne/copilint/internal/report"
	"github.com/drewdunne/copilint/internal/source"
	"github.com/drewdunne/copilint/internal/validator"
	"github.com/drewdunne/copilint/internal/watch"
	"github.com/spf13/cobra"
)

func (a *app) watchCmd() *cobra.Command {
	var quiet time.Duration
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Validate, then re-validate whenever a category file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, !a.verbose); err != nil {
				return err
			}
			format, err := a.reportFormat(cmd)
			if err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			ctx := cmd.Context()
			rules, err := a.rulesFor(ctx, cmd, source.NewLocal(dir))
			if err != nil {
				return err
			}
			v := validator.New(rules, validator.WithLogger(a.logger))

			w := watch.New(dir, v, func(rep *validator.Report, err error) {
				fmt.Fprintf(a.stdout, "\n[%s]\n", time.Now().Format(time.TimeOnly))
				if err != nil {
					fmt.Fprintf(a.stderr, "Error: %v\n", err)
					return
				}
				if err := report.Render(a.stdout, format, rep); err != nil {
					fmt.Fprintf(a.stderr, "Error: rendering report: %v\n", err)
				}
			}, watch.WithQuietPeriod(quiet), watch.WithLogger(a.logger))

			fmt.Fprintf(a.stderr, "Watching %s (Ctrl+C to stop)\n", dir)
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&quiet, "quiet-period", watch.DefaultQuietPeriod, "Wait this long after the last change before validating")
	return cmd
}
