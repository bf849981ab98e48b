package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/drewdunne/copilint/internal/config"
	"github.com/drewdunne/copilint/internal/registry"
	"github.com/drewdunne/copilint/internal/report"
	"github.com/drewdunne/copilint/internal/source"
	"github.com/drewdunne/copilint/internal/validator"
	"github.com/spf13/cobra"
)

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a directory or a hosted repository",
		Long: `Validate the Copilot customization files of a directory (default: the
current directory) or, with --remote, of a hosted repository revision.

Exit status is 0 when all checks pass, 1 when validation finds errors and
2 when the run could not be completed.`,
		Example: `  copilint validate
  copilint validate ./service --format json
  copilint validate --remote github:acme/app@main
  copilint validate --remote gitlab:group/sub/app`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runValidate,
	}
	cmd.Flags().StringVar(&a.remote, "remote", "", "Validate a hosted repository: provider:owner/repo[@ref]")
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, args []string) error {
	if err := a.setup(cmd, !a.verbose); err != nil {
		return err
	}
	if a.remote != "" && len(args) > 0 {
		return errors.New("a path and --remote cannot be combined")
	}
	format, err := a.reportFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var src source.Source
	if a.remote != "" {
		src, err = a.remoteSource(ctx)
		if err != nil {
			return err
		}
	} else {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		src = source.NewLocal(dir)
	}

	rules, err := a.rulesFor(ctx, cmd, src)
	if err != nil {
		return err
	}

	rep, err := validator.New(rules, validator.WithLogger(a.logger)).Validate(ctx, src)
	if err != nil {
		return err
	}
	if err := report.Render(a.stdout, format, rep); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if !rep.Passed() {
		return errValidationFailed
	}
	return nil
}

// rulesFor merges the repository's own config over the loaded rules, then
// applies flag overrides.
func (a *app) rulesFor(ctx context.Context, cmd *cobra.Command, src source.Source) (config.RulesConfig, error) {
	repoCfg, err := config.LoadRepoConfig(ctx, src)
	if err != nil {
		return config.RulesConfig{}, err
	}
	return a.applyFlags(cmd, config.MergeRules(a.cfg.Rules, repoCfg))
}

// remoteSource resolves --remote to a snapshot source. Without a ref the
// repository's default branch is used.
func (a *app) remoteSource(ctx context.Context) (source.Source, error) {
	target, err := source.ParseRemote(a.remote)
	if err != nil {
		return nil, err
	}
	prov, err := registry.New(a.cfg).Resolve(target.Provider)
	if err != nil {
		return nil, err
	}

	ref := target.Ref
	if ref == "" {
		repo, err := prov.GetRepository(ctx, target.Owner, target.Repo)
		if err != nil {
			return nil, fmt.Errorf("resolving default branch: %w", err)
		}
		ref = repo.DefaultBranch
	}
	return source.NewRemote(prov, target.Owner, target.Repo, ref), nil
}
