package main

import (
	"fmt"

	"github.com/drewdunne/copilint/internal/scaffold"
	"github.com/spf13/cobra"
)

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create example instruction, prompt and chat mode files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			written, err := scaffold.Init(dir, force)
			if err != nil {
				return err
			}
			if len(written) == 0 {
				fmt.Fprintln(a.stdout, "All files already exist; use --force to overwrite them.")
				return nil
			}
			for _, p := range written {
				fmt.Fprintf(a.stdout, "created %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}
